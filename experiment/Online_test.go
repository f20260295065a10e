package experiment

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/selftrigger/agent"
	"github.com/samuelfneumann/selftrigger/agent/nonlinear/continuous/selfddpg"
	"github.com/samuelfneumann/selftrigger/environment"
	"github.com/samuelfneumann/selftrigger/environment/envconfig"
	"github.com/samuelfneumann/selftrigger/environment/linearsystem"
	"github.com/samuelfneumann/selftrigger/experiment/checkpointer"
	"github.com/samuelfneumann/selftrigger/experiment/tracker"
	"github.com/samuelfneumann/selftrigger/experiment/trackers"
	ts "github.com/samuelfneumann/selftrigger/timestep"
	"gonum.org/v1/gonum/mat"
)

// recordingAgent always outputs a zero action held for interval and
// records how the experiment drives it
type recordingAgent struct {
	interval  float64
	forwards  int
	rewards   []float64
	terminals []bool
	resets    int
	step      int
	eval      bool
	saved     []string
}

func (r *recordingAgent) Forward(mat.Vector) (*mat.VecDense, error) {
	r.forwards++
	return mat.NewVecDense(2, []float64{0, r.interval}), nil
}

func (r *recordingAgent) Backward(reward float64, terminal bool) ([]float64,
	error) {
	r.rewards = append(r.rewards, reward)
	r.terminals = append(r.terminals, terminal)
	r.step++
	if r.eval {
		return []float64{math.NaN(), math.NaN()}, nil
	}
	return []float64{1, 2}, nil
}

func (r *recordingAgent) MetricsNames() []string {
	return []string{"loss", "mean_q"}
}

func (r *recordingAgent) ResetStates(bool) { r.resets++ }
func (r *recordingAgent) Step() int        { return r.step }
func (r *recordingAgent) Eval()            { r.eval = true }
func (r *recordingAgent) Train()           { r.eval = false }
func (r *recordingAgent) IsEval() bool     { return r.eval }

func (r *recordingAgent) SaveWeights(path string) error {
	r.saved = append(r.saved, path)
	return nil
}

func (r *recordingAgent) LoadWeights(string) error { return nil }

// metricsTracker records the steps of the metrics it is sent
type metricsTracker struct {
	steps   []int
	metrics [][]float64
}

func (m *metricsTracker) Track(ts.TimeStep) {}
func (m *metricsTracker) Save() error      { return nil }

func (m *metricsTracker) TrackMetrics(step int, names []string,
	metrics []float64) {
	m.steps = append(m.steps, step)
	m.metrics = append(m.metrics, metrics)
}

func newLinearSystem(t *testing.T, episodeSteps int) environment.Environment {
	t.Helper()
	task := linearsystem.NewRegulate(linearsystem.NewDefaultStarter(1),
		environment.NewStepLimit(episodeSteps), 0)
	e, _, err := linearsystem.New(task, 1.0, 0.0, 1)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestOnlineRun(t *testing.T) {
	a := &recordingAgent{interval: 0.1}
	e := newLinearSystem(t, 5)

	returnFile := filepath.Join(t.TempDir(), "return.bin")
	returns := trackers.NewReturn(returnFile)
	lengths := trackers.NewEpisodeLength(filepath.Join(t.TempDir(),
		"length.bin"))
	intervals := trackers.NewInterval(filepath.Join(t.TempDir(),
		"interval.bin"))

	dir := t.TempDir()
	check, err := checkpointer.NewNStep(5, a,
		checkpointer.FilenameEnumerator(0, filepath.Join(dir, "weights"),
			".gob"))
	if err != nil {
		t.Fatal(err)
	}

	exp := NewOnline(e, a, 12, []tracker.Tracker{returns, lengths,
		intervals}, []checkpointer.Checkpointer{check})
	if err := exp.Run(); err != nil {
		t.Fatal(err)
	}

	if exp.Steps() != 12 {
		t.Errorf("steps \n\twant(%v) \n\thave(%v)", 12, exp.Steps())
	}

	// Two full episodes each end with the final observation being
	// given to the agent, the third episode is cut short
	if a.forwards != 14 || len(a.rewards) != 14 {
		t.Errorf("forward/backward calls \n\twant(%v, %v) \n\thave(%v, %v)",
			14, 14, a.forwards, len(a.rewards))
	}
	if a.resets != 3 {
		t.Errorf("resets \n\twant(%v) \n\thave(%v)", 3, a.resets)
	}
	for _, i := range []int{4, 10} {
		if !a.terminals[i] {
			t.Errorf("backward %v should be terminal", i)
		}
		if a.terminals[i+1] || a.rewards[i+1] != 0 {
			t.Errorf("final observation \n\twant(reward=0, terminal=false) "+
				"\n\thave(reward=%v, terminal=%v)", a.rewards[i+1],
				a.terminals[i+1])
		}
	}

	if data := lengths.Data(); len(data) != 2 || data[0] != 5 || data[1] != 5 {
		t.Errorf("episode lengths \n\twant(%v) \n\thave(%v)", []float64{5, 5},
			data)
	}
	if data := returns.Data(); len(data) != 2 {
		t.Errorf("episodes with returns \n\twant(%v) \n\thave(%v)", 2,
			len(data))
	}
	for _, mean := range intervals.Data() {
		if math.Abs(mean-0.1) > 1e-9 {
			t.Errorf("mean interval \n\twant(%v) \n\thave(%v)", 0.1, mean)
		}
	}

	want := []string{filepath.Join(dir, "weights1.gob"),
		filepath.Join(dir, "weights2.gob")}
	if len(a.saved) != len(want) {
		t.Fatalf("checkpoints \n\twant(%v) \n\thave(%v)", want, a.saved)
	}
	for i := range want {
		if a.saved[i] != want[i] {
			t.Errorf("checkpoint %v \n\twant(%v) \n\thave(%v)", i, want[i],
				a.saved[i])
		}
	}

	if err := exp.Save(); err != nil {
		t.Fatal(err)
	}
	data, err := tracker.LoadData(returnFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 2 {
		t.Errorf("saved returns \n\twant(%v) \n\thave(%v)", 2, len(data))
	}
}

func TestOnlineTracksMetrics(t *testing.T) {
	a := &recordingAgent{interval: 0.1}
	m := &metricsTracker{}

	exp := NewOnline(newLinearSystem(t, 3), a, 3, nil, nil)
	exp.Register(m)
	if _, err := exp.RunEpisode(); err != nil {
		t.Fatal(err)
	}

	// The final observation of the episode is not a decision step
	want := []int{0, 1, 2}
	if len(m.steps) != len(want) {
		t.Fatalf("tracked metrics \n\twant(%v) \n\thave(%v)", want, m.steps)
	}
	for i := range want {
		if m.steps[i] != want[i] {
			t.Errorf("metrics step %v \n\twant(%v) \n\thave(%v)", i, want[i],
				m.steps[i])
		}
	}
}

func TestOnlineEvaluate(t *testing.T) {
	a := &recordingAgent{interval: 0.1}
	returns := trackers.NewReturn(filepath.Join(t.TempDir(), "return.bin"))
	exp := NewOnline(newLinearSystem(t, 4), a, 100,
		[]tracker.Tracker{returns}, nil)

	evalReturns, err := exp.Evaluate(2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(evalReturns) != 2 {
		t.Errorf("evaluation episodes \n\twant(%v) \n\thave(%v)", 2,
			len(evalReturns))
	}
	for _, r := range evalReturns {
		if !(r < 0) {
			t.Errorf("return of regulation task should be negative, have(%v)",
				r)
		}
	}

	if a.IsEval() {
		t.Errorf("agent left in evaluation mode")
	}
	if exp.Steps() != 0 {
		t.Errorf("evaluation counted towards step limit: steps(%v)",
			exp.Steps())
	}
	if len(returns.Data()) != 0 {
		t.Errorf("evaluation episodes were tracked")
	}
}

func testExperimentConfig(t *testing.T) Config {
	t.Helper()

	c := selfddpg.NewDefaultConfig(1)
	c.PolicyLayers = []int{8}
	c.PolicyActivations = c.PolicyActivations[:1]
	c.CriticLayers = []int{8}
	c.CriticActivations = c.CriticActivations[:1]
	c.BatchSize = 4
	c.WarmupCritic = 10
	c.WarmupActor = 20
	c.Memory.Limit = 1000

	return Config{
		Type:     OnlineExp,
		MaxSteps: 60,
		EnvConf: envconfig.NewConfig(envconfig.LinearSystem,
			envconfig.Regulate, 25, 0, 1.0, 0.1, 0),
		AgentConf: agent.NewTypedConfig(c),
	}
}

func TestConfigCreateExp(t *testing.T) {
	data, err := json.Marshal(testExperimentConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatal(err)
	}
	if c.AgentConf.Type != agent.SelfDDPGMLP {
		t.Fatalf("agent type \n\twant(%v) \n\thave(%v)", agent.SelfDDPGMLP,
			c.AgentConf.Type)
	}

	path := filepath.Join(t.TempDir(), "metrics.db")
	db, err := trackers.NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	exp, err := c.CreateExp(1, []tracker.Tracker{db}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer exp.Close()
	if err := exp.Run(); err != nil {
		t.Fatal(err)
	}
	if exp.Steps() != c.MaxSteps {
		t.Errorf("steps \n\twant(%v) \n\thave(%v)", c.MaxSteps, exp.Steps())
	}
	if err := exp.Save(); err != nil {
		t.Fatal(err)
	}

	var episodes, metrics int
	if err := db.DB().QueryRow(`SELECT COUNT(*) FROM episodes`).Scan(
		&episodes); err != nil {
		t.Fatal(err)
	}
	if episodes != 2 {
		t.Errorf("stored episodes \n\twant(%v) \n\thave(%v)", 2, episodes)
	}
	if err := db.DB().QueryRow(`SELECT COUNT(*) FROM metrics`).Scan(
		&metrics); err != nil {
		t.Fatal(err)
	}
	if metrics == 0 {
		t.Errorf("no training metrics were stored")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"type", func(c *Config) { c.Type = "Offline" }},
		{"steps", func(c *Config) { c.MaxSteps = 0 }},
		{"agent", func(c *Config) { c.AgentConf = agent.TypedConfig{} }},
		{"environment", func(c *Config) { c.EnvConf.Environment = "Acrobot" }},
	}

	for _, test := range tests {
		c := testExperimentConfig(t)
		test.modify(&c)
		if _, err := c.CreateExp(1, nil, nil); err == nil {
			t.Errorf("%v: expected error creating experiment", test.name)
		}
	}
}
