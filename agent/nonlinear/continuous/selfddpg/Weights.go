package selfddpg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samuelfneumann/selftrigger/network"
)

// weightPaths returns the files that hold the policy and critic
// weights of an agent saved at path
func weightPaths(path string) (actor, critic string) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "_actor" + ext, base + "_critic" + ext
}

// SaveWeights saves the weights of the policy and critic to
// <base>_actor<ext> and <base>_critic<ext>, where path is <base><ext>
func (s *SelfDDPG) SaveWeights(path string) error {
	actorPath, criticPath := weightPaths(path)

	if err := writeNet(actorPath, s.trainPolicy); err != nil {
		return fmt.Errorf("saveweights: policy: %v", err)
	}
	if err := writeNet(criticPath, s.critic); err != nil {
		return fmt.Errorf("saveweights: critic: %v", err)
	}
	return nil
}

func writeNet(path string, net network.NeuralNet) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := network.WriteWeights(file, net); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func readNet(path string, net network.NeuralNet) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return network.ReadWeights(file, net)
}

// LoadWeights loads weights saved with SaveWeights at path. The target
// networks are hard updated to the loaded weights. If either file
// cannot be read, the weights of the agent are left unchanged.
func (s *SelfDDPG) LoadWeights(path string) error {
	actorPath, criticPath := weightPaths(path)

	// Weights are read into the behaviour policy and critic backup
	// first, which have the same learnables as the learned networks
	if err := readNet(actorPath, s.behaviour); err != nil {
		s.restoreBehaviour()
		return fmt.Errorf("loadweights: policy: %v", err)
	}
	if err := readNet(criticPath, s.criticBackup); err != nil {
		s.restoreBehaviour()
		return fmt.Errorf("loadweights: critic: %v", err)
	}

	if err := network.Set(s.trainPolicy, s.behaviour); err != nil {
		return fmt.Errorf("loadweights: %v", err)
	}
	if err := network.Set(s.critic, s.criticBackup); err != nil {
		return fmt.Errorf("loadweights: %v", err)
	}
	if err := s.targets.sync(s.trainPolicy, s.critic); err != nil {
		return fmt.Errorf("loadweights: %v", err)
	}
	return nil
}

// restoreBehaviour sets the behaviour policy back to the learned policy
func (s *SelfDDPG) restoreBehaviour() {
	if err := network.Set(s.behaviour, s.trainPolicy); err != nil {
		panic(fmt.Sprintf("restorebehaviour: %v", err))
	}
}
