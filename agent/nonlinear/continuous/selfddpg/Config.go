package selfddpg

import (
	"fmt"
	"math"
	"os"

	"github.com/samuelfneumann/selftrigger/agent"
	"github.com/samuelfneumann/selftrigger/agent/nonlinear/continuous/discount"
	"github.com/samuelfneumann/selftrigger/agent/nonlinear/continuous/exploration"
	env "github.com/samuelfneumann/selftrigger/environment"
	"github.com/samuelfneumann/selftrigger/expreplay"
	"github.com/samuelfneumann/selftrigger/initwfn"
	"github.com/samuelfneumann/selftrigger/network"
	"github.com/samuelfneumann/selftrigger/solver"
)

func init() {
	// Register Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(agent.SelfDDPGMLP, Config{})
}

// Config implements a configuration for a SelfDDPG agent
type Config struct {
	// Policy architecture. Both heads share the hidden layer sizes and
	// activations. A nil output activation is the identity.
	PolicyLayers      []int
	PolicyActivations []*network.Activation
	ActionOutput      *network.Activation
	IntervalOutput    *network.Activation

	// Critic architecture
	CriticLayers      []int
	CriticActivations []*network.Activation

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Number of control components of an action. CreateAgent fills this
	// in from the environment if it is zero.
	ActionDims int

	// Each policy head is optimised by its own solver
	ActionSolver   *solver.Solver
	IntervalSolver *solver.Solver
	CriticSolver   *solver.Solver

	Exploration exploration.Config
	Discount    discount.Config
	Memory      expreplay.Config

	BatchSize      int
	WarmupCritic   int // Steps before the critic is trained
	WarmupActor    int // Steps before the policy is trained
	TrainInterval  int // Steps between training steps
	MemoryInterval int // Steps between stored observations

	// TargetUpdate >= 1 hard updates the targets every int(TargetUpdate)
	// steps, TargetUpdate < 1 is the Polyak averaging constant of soft
	// updates after every training step.
	TargetUpdate float64

	// Errors larger than DeltaClip in magnitude contribute linearly to
	// the critic loss. DeltaClip <= 0 or +Inf uses the squared error.
	DeltaClip float64

	// Deprecated: use DeltaClip. If set, DeltaClip = DeltaRange[1].
	DeltaRange []float64 `json:",omitempty"`

	ActionMin   float64
	ActionMax   float64
	IntervalMin float64
	IntervalMax float64

	// If HookCapacity > 0, the last HookCapacity training steps are
	// recorded. LogParams additionally records the policy weights.
	HookCapacity int
	LogParams    bool
}

// NewDefaultConfig returns a Config with the default hyperparameters
// of a SelfDDPG agent for the given number of control components
func NewDefaultConfig(actionDims int) Config {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("newdefaultconfig: %v", err))
	}
	actionSolver, err := solver.NewDefaultAdam(1e-3, 1.0)
	if err != nil {
		panic(fmt.Sprintf("newdefaultconfig: %v", err))
	}
	intervalSolver, err := solver.NewDefaultAdam(1e-5, 1.0)
	if err != nil {
		panic(fmt.Sprintf("newdefaultconfig: %v", err))
	}
	criticSolver, err := solver.NewDefaultAdam(1e-3, 0)
	if err != nil {
		panic(fmt.Sprintf("newdefaultconfig: %v", err))
	}

	return Config{
		PolicyLayers: []int{64, 64},
		PolicyActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},
		ActionOutput:   network.TanH(),
		IntervalOutput: network.Sigmoid(),

		CriticLayers: []int{64, 64},
		CriticActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},

		InitWFn:    init,
		ActionDims: actionDims,

		ActionSolver:   actionSolver,
		IntervalSolver: intervalSolver,
		CriticSolver:   criticSolver,

		Exploration: exploration.Config{
			Type:    exploration.FixedGaussianType,
			CoefU:   1.0,
			CoefTau: 0.01,
		},
		Discount: discount.Config{
			Type:  discount.AdaptiveType,
			Alpha: 0.4,
		},
		Memory: expreplay.Config{
			Limit:        100000,
			WindowLength: 1,
		},

		BatchSize:      32,
		WarmupCritic:   1000,
		WarmupActor:    1000,
		TrainInterval:  1,
		MemoryInterval: 1,
		TargetUpdate:   0.001,
		DeltaClip:      0,

		ActionMin:   -10,
		ActionMax:   10,
		IntervalMin: 0.01,
		IntervalMax: 1,
	}
}

// Type returns the type of the configuration
func (c Config) Type() agent.Type {
	return agent.SelfDDPGMLP
}

// Validate checks a Config to ensure it is a valid configuration of a
// SelfDDPG agent.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.PolicyActivations) {
		return fmt.Errorf("validate: invalid number of policy activations "+
			"\n\twant(%v) \n\thave(%v)", len(c.PolicyLayers),
			len(c.PolicyActivations))
	}
	if len(c.CriticLayers) != len(c.CriticActivations) {
		return fmt.Errorf("validate: invalid number of critic activations "+
			"\n\twant(%v) \n\thave(%v)", len(c.CriticLayers),
			len(c.CriticActivations))
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer")
	}
	if c.ActionSolver == nil || c.IntervalSolver == nil ||
		c.CriticSolver == nil {
		return fmt.Errorf("validate: action, interval, and critic solvers " +
			"must all be specified")
	}
	if c.ActionDims < 1 {
		return fmt.Errorf("validate: action dimensions must be positive, "+
			"have(%v)", c.ActionDims)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive, have(%v)",
			c.BatchSize)
	}
	if c.WarmupCritic < 0 || c.WarmupActor < 0 {
		return fmt.Errorf("validate: warmup steps must be non-negative, "+
			"have(%v, %v)", c.WarmupCritic, c.WarmupActor)
	}
	if c.TrainInterval < 1 || c.MemoryInterval < 1 {
		return fmt.Errorf("validate: train and memory intervals must be "+
			"positive, have(%v, %v)", c.TrainInterval, c.MemoryInterval)
	}

	if c.TargetUpdate < 0 || math.IsNaN(c.TargetUpdate) ||
		math.IsInf(c.TargetUpdate, 0) {
		return fmt.Errorf("validate: target update must be a non-negative "+
			"number, have(%v)", c.TargetUpdate)
	}
	if math.IsNaN(c.DeltaClip) {
		return fmt.Errorf("validate: delta clip cannot be NaN")
	}
	if len(c.DeltaRange) != 0 && len(c.DeltaRange) != 2 {
		return fmt.Errorf("validate: delta range must have 2 elements, "+
			"have(%v)", len(c.DeltaRange))
	}

	if !(c.ActionMin < c.ActionMax) {
		return fmt.Errorf("validate: empty action range [%v, %v]",
			c.ActionMin, c.ActionMax)
	}
	if !(c.IntervalMin > 0 && c.IntervalMin < c.IntervalMax) {
		return fmt.Errorf("validate: interval range [%v, %v] must be "+
			"non-empty and positive", c.IntervalMin, c.IntervalMax)
	}

	if c.HookCapacity < 0 {
		return fmt.Errorf("validate: hook capacity must be non-negative, "+
			"have(%v)", c.HookCapacity)
	}
	return nil
}

// deltaClip returns the Huber threshold of the critic loss, taking the
// deprecated DeltaRange into account
func (c Config) deltaClip() float64 {
	delta := c.DeltaClip
	if len(c.DeltaRange) == 2 {
		fmt.Fprintf(os.Stderr, "Warning: DeltaRange is deprecated, use "+
			"DeltaClip instead. Setting DeltaClip = %v\n", c.DeltaRange[1])
		delta = c.DeltaRange[1]
	}

	if delta <= 0 {
		return math.Inf(1)
	}
	return delta
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*SelfDDPG)
	return ok
}

// CreateAgent creates a new SelfDDPG agent based on the configuration,
// including its exploration strategy, discount, and replay memory.
func (c Config) CreateAgent(e env.Environment, seed uint64) (agent.Agent,
	error) {
	controlDims := e.ActionSpec().ControlDims()
	if c.ActionDims == 0 {
		c.ActionDims = controlDims
	} else if c.ActionDims != controlDims {
		return nil, fmt.Errorf("createagent: invalid action dimensions "+
			"\n\twant(%v) \n\thave(%v)", controlDims, c.ActionDims)
	}

	obsDims := e.ObservationSpec().Shape.Len()
	memory, err := c.Memory.Create(obsDims, c.ActionDims+1, seed)
	if err != nil {
		return nil, fmt.Errorf("createagent: could not create memory: %v",
			err)
	}

	strategy, err := c.Exploration.Create(c.ActionDims, seed+1)
	if err != nil {
		return nil, fmt.Errorf("createagent: could not create exploration "+
			"strategy: %v", err)
	}

	disc, err := c.Discount.Create()
	if err != nil {
		return nil, fmt.Errorf("createagent: could not create discount: %v",
			err)
	}

	return New(c, obsDims*c.Memory.WindowLength, strategy, disc, memory)
}
