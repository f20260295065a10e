// Package selfddpg implements the Deep Deterministic Policy Gradient
// algorithm for self-triggered control. The policy of a SelfDDPG agent
// outputs both an action and a trigger interval, the amount of time
// the action is held before the agent is queried again.
package selfddpg

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/selftrigger/agent/nonlinear/continuous/discount"
	"github.com/samuelfneumann/selftrigger/agent/nonlinear/continuous/exploration"
	"github.com/samuelfneumann/selftrigger/expreplay"
	"github.com/samuelfneumann/selftrigger/network"
	"github.com/samuelfneumann/selftrigger/solver"
	ts "github.com/samuelfneumann/selftrigger/timestep"
	"github.com/samuelfneumann/selftrigger/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

var metricsNames = []string{"loss", "mean_q"}

// SelfDDPG implements the DDPG algorithm with a dual-head policy. The
// action head and the interval head of the policy are trained with
// separate solvers, and the critic takes the state, action, and
// interval as input.
//
// Errors caused by malformed data or non-finite numbers are sticky:
// once such an error occurs every later call to Forward or Backward
// returns it.
//
// SelfDDPG is not safe for concurrent use.
type SelfDDPG struct {
	actionDims int
	stateDims  int

	// Behaviour policy which selects outputs one state at a time
	behaviour   network.NeuralNet
	behaviourVM G.VM

	// Policy whose weights are learned. Its graph holds a copy of the
	// critic evaluated at the policy's own outputs so that the gradient
	// of the critic flows back into the policy.
	trainPolicy    network.NeuralNet
	policyCritic   network.NeuralNet
	trainPolicyVM  G.VM
	actionSolver   *solver.Solver
	intervalSolver *solver.Solver

	// Critic whose weights are learned, regressed towards targets
	critic        network.NeuralNet
	criticTargets *G.Node
	criticVM      G.VM
	criticSolver  *solver.Solver
	criticBackup  network.NeuralNet

	// Copy of the critic without gradients, used to predict values
	// before the critic is regressed towards its clipped targets
	criticEval   network.NeuralNet
	criticEvalVM G.VM

	// Copy of the learned policy, restored if a policy step fails
	// part way through
	policyBackup network.NeuralNet

	targets *targetPair

	strategy exploration.Strategy
	discount discount.Discount
	memory   expreplay.Memory

	batchSize      int
	warmupCritic   int
	warmupActor    int
	trainInterval  int
	memoryInterval int
	deltaClip      float64
	actionBounds   r1.Interval
	intervalBounds r1.Interval

	hook      Hook
	logParams bool

	// Last observation and output, stored in the memory on Backward
	recentObs    *mat.VecDense
	recentOutput *mat.VecDense

	step int
	eval bool
	err  error
}

// New creates and returns a new SelfDDPG agent for states with
// stateDims features. The policy and critic are built from the Config.
func New(c Config, stateDims int, strategy exploration.Strategy,
	disc discount.Discount, memory expreplay.Memory) (*SelfDDPG, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if stateDims < 1 {
		return nil, fmt.Errorf("new: state dimensions must be positive, "+
			"have(%v)", stateDims)
	}
	init := c.InitWFn.InitWFn()

	policy, err := network.NewDualHeadMLP(stateDims, 1, c.ActionDims,
		G.NewGraph(), c.PolicyLayers, c.PolicyActivations, init,
		c.ActionOutput, c.IntervalOutput)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy: %v", err)
	}

	critic, err := network.NewMLP(stateDims+c.ActionDims+1, 1, 1,
		G.NewGraph(), c.CriticLayers, c.CriticActivations, init)
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic: %v", err)
	}

	return NewWithNetworks(c, policy, critic, strategy, disc, memory)
}

// NewWithNetworks creates and returns a new SelfDDPG agent which
// starts from the weights of policy and critic. The policy must have
// an action head of width c.ActionDims and an interval head of width
// 1. The critic must have a single output and take rows of
// [state, action, interval] as input. The architecture fields of c are
// ignored.
func NewWithNetworks(c Config, policy, critic network.NeuralNet,
	strategy exploration.Strategy, disc discount.Discount,
	memory expreplay.Memory) (*SelfDDPG, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if err := checkWiring(c, policy, critic); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if strategy == nil || disc == nil || memory == nil {
		return nil, fmt.Errorf("new: exploration strategy, discount, and " +
			"memory must all be non-nil")
	}
	batchSize := c.BatchSize

	// Behaviour policy for selecting outputs
	behaviour, err := policy.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %v",
			err)
	}
	if err := network.Set(behaviour, policy); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	behaviourVM := G.NewTapeMachine(behaviour.Graph())

	// Create the policy training graph: -mean(Q(s, μ(s)))
	trainPolicy, err := policy.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning policy: %v",
			err)
	}
	if err := network.Set(trainPolicy, policy); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	pred := trainPolicy.Prediction()
	policyCritic, err := critic.CloneWithInputTo(1,
		[]*G.Node{trainPolicy.Input(), pred[0], pred[1]}, trainPolicy.Graph())
	if err != nil {
		return nil, fmt.Errorf("new: could not add critic to policy "+
			"graph: %v", err)
	}
	actorLoss := G.Must(G.Mean(policyCritic.Prediction()[0]))
	actorLoss = G.Must(G.Neg(actorLoss))
	if _, err := G.Grad(actorLoss, trainPolicy.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute policy gradient: %v",
			err)
	}
	trainPolicyVM := G.NewTapeMachine(trainPolicy.Graph(),
		G.BindDualValues(trainPolicy.Learnables()...))

	// Create the critic training graph: 0.5 * mean((Q(s, a) - y)²)
	trainCritic, err := critic.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning critic: %v",
			err)
	}
	if err := network.Set(trainCritic, critic); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	criticTargets := G.NewMatrix(trainCritic.Graph(), tensor.Float64,
		G.WithShape(batchSize, 1), G.WithName("criticTargets"),
		G.WithInit(G.Zeroes()))
	criticLoss := G.Must(G.Sub(trainCritic.Prediction()[0], criticTargets))
	criticLoss = G.Must(G.Square(criticLoss))
	criticLoss = G.Must(G.Mean(criticLoss))
	criticLoss = G.Must(G.Mul(criticLoss, G.NewConstant(0.5)))
	if _, err := G.Grad(criticLoss, trainCritic.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute critic gradient: %v",
			err)
	}
	criticVM := G.NewTapeMachine(trainCritic.Graph(),
		G.BindDualValues(trainCritic.Learnables()...))

	criticBackup, err := critic.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic backup: %v", err)
	}
	criticEval, err := critic.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create evaluation critic: %v",
			err)
	}
	criticEvalVM := G.NewTapeMachine(criticEval.Graph())

	policyBackup, err := policy.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy backup: %v", err)
	}

	targets, err := newTargetPair(policy, critic, batchSize, c.TargetUpdate)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	var hook Hook
	if c.HookCapacity > 0 {
		hook = NewRingHook(c.HookCapacity)
	}

	return &SelfDDPG{
		actionDims:     c.ActionDims,
		stateDims:      policy.Features(),
		behaviour:      behaviour,
		behaviourVM:    behaviourVM,
		trainPolicy:    trainPolicy,
		policyCritic:   policyCritic,
		trainPolicyVM:  trainPolicyVM,
		actionSolver:   c.ActionSolver,
		intervalSolver: c.IntervalSolver,
		critic:         trainCritic,
		criticTargets:  criticTargets,
		criticVM:       criticVM,
		criticSolver:   c.CriticSolver,
		criticBackup:   criticBackup,
		criticEval:     criticEval,
		criticEvalVM:   criticEvalVM,
		policyBackup:   policyBackup,
		targets:        targets,
		strategy:       strategy,
		discount:       disc,
		memory:         memory,
		batchSize:      batchSize,
		warmupCritic:   c.WarmupCritic,
		warmupActor:    c.WarmupActor,
		trainInterval:  c.TrainInterval,
		memoryInterval: c.MemoryInterval,
		deltaClip:      c.deltaClip(),
		actionBounds:   r1.Interval{Min: c.ActionMin, Max: c.ActionMax},
		intervalBounds: r1.Interval{Min: c.IntervalMin, Max: c.IntervalMax},
		hook:           hook,
		logParams:      c.LogParams,
	}, nil
}

// checkWiring checks that policy and critic can be composed into a
// SelfDDPG agent
func checkWiring(c Config, policy, critic network.NeuralNet) error {
	if policy == nil || critic == nil {
		return fmt.Errorf("policy and critic must be non-nil")
	}

	outputs := policy.Outputs()
	if len(outputs) != 2 {
		return fmt.Errorf("policy must have an action and an interval "+
			"head, have(%v heads)", len(outputs))
	}
	if outputs[0] != c.ActionDims {
		return fmt.Errorf("invalid width of policy action head "+
			"\n\twant(%v) \n\thave(%v)", c.ActionDims, outputs[0])
	}
	if outputs[1] != 1 {
		return fmt.Errorf("invalid width of policy interval head "+
			"\n\twant(1) \n\thave(%v)", outputs[1])
	}

	criticOutputs := critic.Outputs()
	if len(criticOutputs) != 1 || criticOutputs[0] != 1 {
		return fmt.Errorf("critic must have a single output, have(%v)",
			criticOutputs)
	}

	if want := policy.Features() + c.ActionDims + 1; critic.Features() != want {
		return fmt.Errorf("invalid number of critic features "+
			"\n\twant(%v) \n\thave(%v)", want, critic.Features())
	}
	return nil
}

// fail makes err sticky and returns it
func (s *SelfDDPG) fail(err error) error {
	s.err = err
	return err
}

// Err returns the sticky error of the agent, if any
func (s *SelfDDPG) Err() error {
	return s.err
}

// Forward returns the output of the agent given the most recent
// observation, laid out as [action..., interval]. In training mode the
// output is perturbed by the exploration strategy. The action and
// interval are then clipped to their configured bounds.
func (s *SelfDDPG) Forward(observation mat.Vector) (*mat.VecDense, error) {
	if s.err != nil {
		return nil, s.err
	}

	state, err := s.memory.RecentState(observation)
	if err != nil {
		return nil, s.fail(fmt.Errorf("forward: %v", err))
	}
	if state.Len() != s.stateDims {
		return nil, s.fail(fmt.Errorf("forward: invalid state size "+
			"\n\twant(%v) \n\thave(%v)", s.stateDims, state.Len()))
	}

	output, err := s.selectOutput(state)
	if err != nil {
		return nil, s.fail(fmt.Errorf("forward: %v", err))
	}

	if !s.eval {
		if err := s.strategy.Perturb(state, output); err != nil {
			return nil, s.fail(fmt.Errorf("forward: could not explore: %v",
				err))
		}
	}

	for i := 0; i < s.actionDims; i++ {
		output.SetVec(i, floatutils.ClipInterval(output.AtVec(i),
			s.actionBounds))
	}
	output.SetVec(s.actionDims, floatutils.ClipInterval(
		output.AtVec(s.actionDims), s.intervalBounds))

	if !floatutils.AllFinite(output.RawVector().Data) {
		return nil, s.fail(fmt.Errorf("forward: non-finite output %v",
			output.RawVector().Data))
	}

	s.recentObs = mat.VecDenseCopyOf(observation)
	s.recentOutput = mat.VecDenseCopyOf(output)
	return output, nil
}

// selectOutput runs the behaviour policy on state
func (s *SelfDDPG) selectOutput(state *mat.VecDense) (*mat.VecDense,
	error) {
	if err := s.behaviour.SetInput(vecData(nil, state)); err != nil {
		return nil, err
	}

	defer s.behaviourVM.Reset()
	if err := s.behaviourVM.RunAll(); err != nil {
		return nil, err
	}

	action, err := network.OutputData(s.behaviour, 0)
	if err != nil {
		return nil, err
	}
	interval, err := network.OutputData(s.behaviour, 1)
	if err != nil {
		return nil, err
	}

	return mat.NewVecDense(s.actionDims+1, append(action, interval...)), nil
}

// Backward stores the outcome of the last output in the replay memory
// and, when warm-up is over and the step falls on the training
// interval, takes a training step. The returned metrics are ordered as
// MetricsNames() and are NaN if the step did not train the critic.
func (s *SelfDDPG) Backward(reward float64, terminal bool) ([]float64,
	error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.recentObs == nil {
		return nil, fmt.Errorf("backward: no output to learn from, Forward " +
			"must be called before Backward")
	}

	step := s.step
	s.step++

	if step%s.memoryInterval == 0 {
		err := s.memory.Append(s.recentObs, s.recentOutput, reward, terminal,
			!s.eval)
		if err != nil {
			return nil, s.fail(fmt.Errorf("backward: %v", err))
		}
	}

	metrics := floatutils.NaNs(len(metricsNames))
	if s.eval {
		return metrics, nil
	}

	trainCritic := step > s.warmupCritic
	trainActor := step > s.warmupActor
	if (trainCritic || trainActor) && step%s.trainInterval == 0 {
		var err error
		if metrics, err = s.train(step, trainCritic, trainActor); err != nil {
			return nil, s.fail(fmt.Errorf("backward: %v", err))
		}
	}

	if err := s.targets.endStep(step, s.trainPolicy, s.critic); err != nil {
		return nil, s.fail(fmt.Errorf("backward: %v", err))
	}
	return metrics, nil
}

// batchData holds a sampled batch as row-major matrices
type batchData struct {
	states0   []float64
	outputs   []float64
	rewards   []float64
	states1   []float64
	terminals []bool
}

// unpack checks the shape of each transition in batch and lays the
// batch out in row-major order
func (s *SelfDDPG) unpack(batch []ts.Transition) (batchData, error) {
	if len(batch) != s.batchSize {
		return batchData{}, fmt.Errorf("invalid batch size \n\twant(%v) "+
			"\n\thave(%v)", s.batchSize, len(batch))
	}

	data := batchData{
		states0:   make([]float64, 0, s.batchSize*s.stateDims),
		outputs:   make([]float64, 0, s.batchSize*(s.actionDims+1)),
		rewards:   make([]float64, s.batchSize),
		states1:   make([]float64, 0, s.batchSize*s.stateDims),
		terminals: make([]bool, s.batchSize),
	}
	for i, t := range batch {
		if t.State0 == nil || t.State0.Len() != s.stateDims {
			return batchData{}, fmt.Errorf("transition %v: invalid state0", i)
		}
		if t.State1 == nil || t.State1.Len() != s.stateDims {
			return batchData{}, fmt.Errorf("transition %v: invalid state1", i)
		}
		if t.Action == nil || t.Action.Len() != s.actionDims+1 {
			return batchData{}, fmt.Errorf("transition %v: invalid action", i)
		}

		data.states0 = vecData(data.states0, t.State0)
		data.outputs = vecData(data.outputs, t.Action)
		data.states1 = vecData(data.states1, t.State1)
		data.rewards[i] = t.Reward
		data.terminals[i] = t.Terminal1
	}
	return data, nil
}

// train takes a single training step of the critic, the policy, or
// both
func (s *SelfDDPG) train(step int, trainCritic, trainActor bool) ([]float64,
	error) {
	metrics := floatutils.NaNs(len(metricsNames))

	batch, err := s.memory.Sample(s.batchSize)
	if expreplay.IsInsufficientSamples(err) || expreplay.IsEmptyMemory(err) {
		return metrics, nil
	} else if err != nil {
		return nil, fmt.Errorf("train: could not sample: %v", err)
	}

	data, err := s.unpack(batch)
	if err != nil {
		return nil, fmt.Errorf("train: %v", err)
	}

	info := TrainInfo{
		Step:             step,
		CriticGradNorm:   math.NaN(),
		ActionGradNorm:   math.NaN(),
		IntervalGradNorm: math.NaN(),
	}

	// The critic is restored if the policy update fails
	if trainCritic && trainActor {
		if err := network.Set(s.criticBackup, s.critic); err != nil {
			return nil, fmt.Errorf("train: could not back up critic: %v", err)
		}
	}

	if trainCritic {
		loss, meanQ, norm, err := s.trainCritic(batch, data)
		if err != nil {
			return nil, fmt.Errorf("train: %v", err)
		}
		metrics[0], metrics[1] = loss, meanQ
		info.CriticGradNorm = norm
	}

	if trainActor {
		actionNorm, intervalNorm, err := s.trainActor(data)
		if err != nil {
			if trainCritic {
				if restoreErr := network.Set(s.critic, s.criticBackup); restoreErr != nil {
					return nil, fmt.Errorf("train: %v: could not restore "+
						"critic: %v", err, restoreErr)
				}
			}
			return nil, fmt.Errorf("train: %v", err)
		}
		info.ActionGradNorm, info.IntervalGradNorm = actionNorm, intervalNorm
	}

	if trainCritic {
		if err := s.targets.criticUpdated(s.critic); err != nil {
			return nil, fmt.Errorf("train: %v", err)
		}
	}
	if trainActor {
		if err := s.targets.policyUpdated(s.trainPolicy); err != nil {
			return nil, fmt.Errorf("train: %v", err)
		}
	}

	if s.hook != nil {
		info.Metrics = append([]float64(nil), metrics...)
		if s.logParams {
			info.Params = flatten(s.trainPolicy)
		}
		s.hook.Record(info)
	}
	return metrics, nil
}

// trainCritic takes a single step on the critic towards the update
// target y = r + γ * Q'(s', μ'(s')), computed with the target
// networks. The Huber loss of the step before the update, the mean
// predicted value, and the gradient norm are returned.
func (s *SelfDDPG) trainCritic(batch []ts.Transition,
	data batchData) (loss, meanQ, norm float64, err error) {
	nextActions, nextIntervals, err := s.targets.nextPolicy(data.states1)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("traincritic: %v", err)
	}
	for i := range nextActions {
		nextActions[i] = floatutils.ClipInterval(nextActions[i], s.actionBounds)
	}
	for i := range nextIntervals {
		nextIntervals[i] = floatutils.ClipInterval(nextIntervals[i],
			s.intervalBounds)
	}

	nextInputs := make([]float64, 0, s.critic.Features()*s.batchSize)
	for i := 0; i < s.batchSize; i++ {
		nextInputs = append(nextInputs,
			data.states1[i*s.stateDims:(i+1)*s.stateDims]...)
		nextInputs = append(nextInputs,
			nextActions[i*s.actionDims:(i+1)*s.actionDims]...)
		nextInputs = append(nextInputs, nextIntervals[i])
	}
	nextValues, err := s.targets.nextValues(nextInputs)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("traincritic: %v", err)
	}

	discounts, err := s.discount.Discounts(batch, nextIntervals)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("traincritic: %v", err)
	}
	if len(discounts) != s.batchSize {
		return 0, 0, 0, fmt.Errorf("traincritic: invalid number of "+
			"discounts \n\twant(%v) \n\thave(%v)", s.batchSize, len(discounts))
	}

	targets := make([]float64, s.batchSize)
	for i := range targets {
		targets[i] = data.rewards[i]
		if !data.terminals[i] {
			targets[i] += discounts[i] * nextValues[i]
		}
	}
	if !floatutils.AllFinite(targets) {
		return 0, 0, 0, fmt.Errorf("traincritic: non-finite update targets")
	}

	inputs := make([]float64, 0, s.critic.Features()*s.batchSize)
	width := s.actionDims + 1
	for i := 0; i < s.batchSize; i++ {
		inputs = append(inputs, data.states0[i*s.stateDims:(i+1)*s.stateDims]...)
		inputs = append(inputs, data.outputs[i*width:(i+1)*width]...)
	}
	values, err := s.predictValues(inputs)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("traincritic: %v", err)
	}

	// With a finite delta, regressing towards the value plus the
	// clipped error has the gradient of the Huber loss
	regressTo := targets
	if !math.IsInf(s.deltaClip, 1) {
		regressTo = make([]float64, s.batchSize)
		for i := range regressTo {
			regressTo[i] = values[i] + floatutils.Clip(targets[i]-values[i],
				-s.deltaClip, s.deltaClip)
		}
	}

	if err := s.critic.SetInput(inputs); err != nil {
		return 0, 0, 0, fmt.Errorf("traincritic: %v", err)
	}
	if err := s.setCriticTargets(regressTo); err != nil {
		return 0, 0, 0, fmt.Errorf("traincritic: %v", err)
	}
	defer s.criticVM.Reset()
	if err := s.criticVM.RunAll(); err != nil {
		return 0, 0, 0, fmt.Errorf("traincritic: %v", err)
	}

	norm, err = solver.GradNorm(s.critic.Model())
	if err != nil {
		return 0, 0, 0, fmt.Errorf("traincritic: %v", err)
	}
	if math.IsNaN(norm) || math.IsInf(norm, 0) {
		return 0, 0, 0, fmt.Errorf("traincritic: gradient norm is %v", norm)
	}
	if err := s.criticSolver.Step(s.critic.Model()); err != nil {
		return 0, 0, 0, fmt.Errorf("traincritic: %v", err)
	}

	return huberLoss(targets, values, s.deltaClip), floatutils.Mean(values),
		norm, nil
}

// predictValues returns the critic's values of inputs, a batch of
// [state, action, interval] rows, without computing any gradients
func (s *SelfDDPG) predictValues(inputs []float64) ([]float64, error) {
	if err := network.Set(s.criticEval, s.critic); err != nil {
		return nil, fmt.Errorf("could not sync critic: %v", err)
	}
	if err := s.criticEval.SetInput(inputs); err != nil {
		return nil, err
	}

	defer s.criticEvalVM.Reset()
	if err := s.criticEvalVM.RunAll(); err != nil {
		return nil, err
	}
	return network.OutputData(s.criticEval, 0)
}

// setCriticTargets sets the values the critic is regressed towards
func (s *SelfDDPG) setCriticTargets(targets []float64) error {
	targetTensor := tensor.New(
		tensor.WithShape(s.batchSize, 1),
		tensor.WithBacking(targets),
	)
	if err := G.Let(s.criticTargets, targetTensor); err != nil {
		return fmt.Errorf("could not set critic targets: %v", err)
	}
	return nil
}

// trainActor takes a single step on each policy head in the direction
// that increases the critic's value of the policy's outputs. The
// gradient norms of both heads before clipping are returned.
func (s *SelfDDPG) trainActor(data batchData) (actionNorm,
	intervalNorm float64, err error) {
	if err := network.Set(s.policyCritic, s.critic); err != nil {
		return 0, 0, fmt.Errorf("trainactor: could not sync critic: %v", err)
	}
	if err := s.trainPolicy.SetInput(data.states0); err != nil {
		return 0, 0, fmt.Errorf("trainactor: %v", err)
	}

	defer s.trainPolicyVM.Reset()
	if err := s.trainPolicyVM.RunAll(); err != nil {
		return 0, 0, fmt.Errorf("trainactor: %v", err)
	}

	actionModel, intervalModel := network.SplitModel(s.trainPolicy.Model())
	if actionNorm, err = solver.GradNorm(actionModel); err != nil {
		return 0, 0, fmt.Errorf("trainactor: %v", err)
	}
	if intervalNorm, err = solver.GradNorm(intervalModel); err != nil {
		return 0, 0, fmt.Errorf("trainactor: %v", err)
	}
	if !floatutils.AllFinite([]float64{actionNorm, intervalNorm}) {
		return 0, 0, fmt.Errorf("trainactor: gradient norms are %v, %v",
			actionNorm, intervalNorm)
	}

	if err := network.Set(s.policyBackup, s.trainPolicy); err != nil {
		return 0, 0, fmt.Errorf("trainactor: could not back up policy: %v",
			err)
	}
	if err := s.actionSolver.Step(actionModel); err != nil {
		return 0, 0, s.restorePolicy(fmt.Errorf("trainactor: action "+
			"head: %v", err))
	}
	if err := s.intervalSolver.Step(intervalModel); err != nil {
		return 0, 0, s.restorePolicy(fmt.Errorf("trainactor: interval "+
			"head: %v", err))
	}

	if err := network.Set(s.behaviour, s.trainPolicy); err != nil {
		return 0, 0, fmt.Errorf("trainactor: %v", err)
	}
	return actionNorm, intervalNorm, nil
}

// restorePolicy restores the learned policy from its backup and
// returns err
func (s *SelfDDPG) restorePolicy(err error) error {
	if restoreErr := network.Set(s.trainPolicy, s.policyBackup); restoreErr != nil {
		return fmt.Errorf("%v: could not restore policy: %v", err, restoreErr)
	}
	return err
}

// huberLoss returns the mean Huber loss between targets and values.
// An infinite delta gives half the mean squared error.
func huberLoss(targets, values []float64, delta float64) float64 {
	var loss float64
	for i := range targets {
		e := math.Abs(targets[i] - values[i])
		if e <= delta {
			loss += 0.5 * e * e
		} else {
			loss += delta * (e - 0.5*delta)
		}
	}
	return loss / float64(len(targets))
}

// vecData appends the elements of v to dst
func vecData(dst []float64, v mat.Vector) []float64 {
	for i := 0; i < v.Len(); i++ {
		dst = append(dst, v.AtVec(i))
	}
	return dst
}

// flatten returns the weights of net concatenated in the order of its
// learnables
func flatten(net network.NeuralNet) []float64 {
	var params []float64
	for _, node := range net.Learnables() {
		if data, ok := node.Value().Data().([]float64); ok {
			params = append(params, data...)
		}
	}
	return params
}

// MetricsNames returns the names of the metrics returned by Backward
func (s *SelfDDPG) MetricsNames() []string {
	return append([]string(nil), metricsNames...)
}

// ResetStates resets the exploration noise and forgets the last
// observation and output. The step counter is reset if resetStep is
// true.
func (s *SelfDDPG) ResetStates(resetStep bool) {
	s.strategy.Reset()
	s.recentObs = nil
	s.recentOutput = nil
	if resetStep {
		s.step = 0
	}
}

// Step returns the number of calls to Backward since the step counter
// was last reset
func (s *SelfDDPG) Step() int {
	return s.step
}

// Hook returns the hook called after every training step, or nil
func (s *SelfDDPG) Hook() Hook {
	return s.hook
}

// SetHook sets the hook called after every training step
func (s *SelfDDPG) SetHook(h Hook) {
	s.hook = h
}

// Eval sets the agent into evaluation mode
func (s *SelfDDPG) Eval() {
	s.eval = true
}

// Train sets the agent into training mode
func (s *SelfDDPG) Train() {
	s.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (s *SelfDDPG) IsEval() bool {
	return s.eval
}

// Close closes all VMs of the agent
func (s *SelfDDPG) Close() error {
	errs := []error{
		s.behaviourVM.Close(),
		s.trainPolicyVM.Close(),
		s.criticVM.Close(),
		s.criticEvalVM.Close(),
		s.targets.Close(),
	}
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	return nil
}
