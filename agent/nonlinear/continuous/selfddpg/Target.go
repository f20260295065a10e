package selfddpg

import (
	"fmt"

	"github.com/samuelfneumann/selftrigger/network"
	G "gorgonia.org/gorgonia"
)

// targetState describes how the target networks relate to the live
// networks
type targetState int

const (
	// Stale targets hold a hard copy of the live networks taken at
	// some earlier step
	Stale targetState = iota

	// Drifting targets follow the live networks through Polyak
	// averaging
	Drifting
)

// String implements the fmt.Stringer interface
func (t targetState) String() string {
	switch t {
	case Stale:
		return "Stale"
	case Drifting:
		return "Drifting"
	}
	return fmt.Sprintf("targetState(%d)", int(t))
}

// targetPair holds the target policy and target critic, which provide
// the bootstrapped values of the critic's update target. The pair is
// either updated softly after every training step or hard copied from
// the live networks every period steps.
type targetPair struct {
	policy   network.NeuralNet
	policyVM G.VM
	critic   network.NeuralNet
	criticVM G.VM

	soft   bool
	rho    float64 // Polyak averaging constant of soft updates
	period int     // Steps between hard updates
	state  targetState
}

// newTargetPair returns target copies of policy and critic which take
// batches of batchSize inputs. The targets are hard copied from policy
// and critic. update is the TargetUpdate of a Config.
func newTargetPair(policy, critic network.NeuralNet, batchSize int,
	update float64) (*targetPair, error) {
	if update < 0 {
		return nil, fmt.Errorf("newtargetpair: target update must be "+
			"non-negative, have(%v)", update)
	}

	targetPolicy, err := policy.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newtargetpair: could not clone policy: %v",
			err)
	}
	targetCritic, err := critic.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newtargetpair: could not clone critic: %v",
			err)
	}

	t := &targetPair{
		policy:   targetPolicy,
		policyVM: G.NewTapeMachine(targetPolicy.Graph()),
		critic:   targetCritic,
		criticVM: G.NewTapeMachine(targetCritic.Graph()),
		soft:     update < 1,
	}
	if t.soft {
		t.rho = update
	} else {
		t.period = int(update)
	}

	if err := t.sync(policy, critic); err != nil {
		return nil, fmt.Errorf("newtargetpair: %v", err)
	}
	return t, nil
}

// sync hard copies the weights of policy and critic to the targets
func (t *targetPair) sync(policy, critic network.NeuralNet) error {
	if err := network.Set(t.policy, policy); err != nil {
		return fmt.Errorf("sync: policy: %v", err)
	}
	if err := network.Set(t.critic, critic); err != nil {
		return fmt.Errorf("sync: critic: %v", err)
	}
	t.state = Stale
	return nil
}

// criticUpdated moves the target critic towards critic in soft mode
func (t *targetPair) criticUpdated(critic network.NeuralNet) error {
	if !t.soft {
		return nil
	}
	if err := network.Polyak(t.critic, critic, t.rho); err != nil {
		return fmt.Errorf("criticupdated: %v", err)
	}
	t.state = Drifting
	return nil
}

// policyUpdated moves the target policy towards policy in soft mode
func (t *targetPair) policyUpdated(policy network.NeuralNet) error {
	if !t.soft {
		return nil
	}
	if err := network.Polyak(t.policy, policy, t.rho); err != nil {
		return fmt.Errorf("policyupdated: %v", err)
	}
	t.state = Drifting
	return nil
}

// endStep hard copies policy and critic to the targets if step is a
// multiple of the hard update period
func (t *targetPair) endStep(step int, policy,
	critic network.NeuralNet) error {
	if t.soft || step%t.period != 0 {
		return nil
	}
	return t.sync(policy, critic)
}

// nextPolicy runs the target policy on a batch of states and returns
// its actions and intervals in row-major order
func (t *targetPair) nextPolicy(states []float64) (actions,
	intervals []float64, err error) {
	if err := t.policy.SetInput(states); err != nil {
		return nil, nil, fmt.Errorf("nextpolicy: %v", err)
	}
	defer t.policyVM.Reset()
	if err := t.policyVM.RunAll(); err != nil {
		return nil, nil, fmt.Errorf("nextpolicy: %v", err)
	}

	if actions, err = network.OutputData(t.policy, 0); err != nil {
		return nil, nil, fmt.Errorf("nextpolicy: %v", err)
	}
	if intervals, err = network.OutputData(t.policy, 1); err != nil {
		return nil, nil, fmt.Errorf("nextpolicy: %v", err)
	}
	return actions, intervals, nil
}

// nextValues runs the target critic on a batch of rows laid out as
// [state, action, interval]
func (t *targetPair) nextValues(inputs []float64) ([]float64, error) {
	if err := t.critic.SetInput(inputs); err != nil {
		return nil, fmt.Errorf("nextvalues: %v", err)
	}
	defer t.criticVM.Reset()
	if err := t.criticVM.RunAll(); err != nil {
		return nil, fmt.Errorf("nextvalues: %v", err)
	}

	values, err := network.OutputData(t.critic, 0)
	if err != nil {
		return nil, fmt.Errorf("nextvalues: %v", err)
	}
	return values, nil
}

// Close closes the VMs of the target networks
func (t *targetPair) Close() error {
	policyErr := t.policyVM.Close()
	criticErr := t.criticVM.Close()
	if policyErr != nil {
		return policyErr
	}
	return criticErr
}
