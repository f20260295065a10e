package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/logrusorgru/aurora"
	"github.com/samuelfneumann/selftrigger/agent"
	"github.com/samuelfneumann/selftrigger/agent/nonlinear/continuous/selfddpg"
	"github.com/samuelfneumann/selftrigger/environment/envconfig"
	"github.com/samuelfneumann/selftrigger/environment/render"
	"github.com/samuelfneumann/selftrigger/experiment"
	"github.com/samuelfneumann/selftrigger/experiment/checkpointer"
	"github.com/samuelfneumann/selftrigger/experiment/report"
	"github.com/samuelfneumann/selftrigger/experiment/tracker"
	"github.com/samuelfneumann/selftrigger/experiment/trackers"
	"github.com/samuelfneumann/selftrigger/utils/progressbar"
	"gonum.org/v1/gonum/spatial/r1"
)

var (
	configFile = flag.String("config", "", "experiment configuration file")
	seed       = flag.Uint64("seed", 1, "random seed")
	outDir     = flag.String("out", "results", "output directory")
	loadPath   = flag.String("load", "", "weights to load before training")

	defaults = flag.Bool("defaults", false, "print a default experiment "+
		"configuration and exit")

	checkEvery = flag.Int("checkpoint", 0, "save weights every n decisions, "+
		"0 disables checkpointing")

	renderEvery = flag.Int("render", 0, "draw every n-th episode, 0 "+
		"disables rendering")

	evalEpisodes = flag.Int("eval", 0, "evaluation episodes to run after "+
		"training")
)

// defaultConfig returns an experiment training a SelfDDPG agent on the
// stochastic linear system
func defaultConfig() experiment.Config {
	return experiment.Config{
		Type:     experiment.OnlineExp,
		MaxSteps: 100_000,
		EnvConf: envconfig.NewConfig(envconfig.LinearSystem,
			envconfig.Regulate, 200, 0, 1.0, 1.0, 0),
		AgentConf: agent.NewTypedConfig(selfddpg.NewDefaultConfig(1)),
	}
}

func loadConfig(path string) (experiment.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return experiment.Config{}, fmt.Errorf("loadConfig: %v", err)
	}

	var c experiment.Config
	if err := json.Unmarshal(data, &c); err != nil {
		return experiment.Config{}, fmt.Errorf("loadConfig: %v", err)
	}
	return c, nil
}

func main() {
	flag.Parse()

	if *defaults {
		data, err := json.MarshalIndent(defaultConfig(), "", "\t")
		if err != nil {
			log.Fatal(aurora.Red(err))
		}
		fmt.Println(string(data))
		return
	}

	if *configFile == "" {
		log.Fatal(aurora.Red("missing -config, run with -defaults for an " +
			"example configuration"))
	}
	config, err := loadConfig(*configFile)
	if err != nil {
		log.Fatal(aurora.Red(err))
	}

	if err := run(config); err != nil {
		log.Fatal(aurora.Red(err))
	}
}

func run(config experiment.Config) error {
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	// Create the trackers
	returns := trackers.NewReturn(filepath.Join(*outDir, "return.bin"))
	lengths := trackers.NewEpisodeLength(filepath.Join(*outDir,
		"length.bin"))
	intervals := trackers.NewInterval(filepath.Join(*outDir,
		"interval.bin"))
	db, err := trackers.NewSQLite(filepath.Join(*outDir, "metrics.db"))
	if err != nil {
		return err
	}
	defer db.Close()

	t := []tracker.Tracker{returns, lengths, intervals, db}
	exp, err := config.CreateExp(*seed, t, nil)
	if err != nil {
		return err
	}
	defer exp.Close()

	online, ok := exp.(*experiment.Online)
	if !ok {
		return fmt.Errorf("run: unsupported experiment type %T", exp)
	}

	// Gradient norms of each training step are stored with the metrics
	if hooked, ok := online.Agent.(interface{ SetHook(selfddpg.Hook) }); ok {
		hooked.SetHook(db)
	}

	if *renderEvery > 0 {
		r, err := newRenderer(online, *renderEvery)
		if err != nil {
			return err
		}
		online.Register(r)
	}

	if *checkEvery > 0 {
		filename := checkpointer.FilenameEnumerator(0,
			filepath.Join(*outDir, "checkpoint"), ".gob")
		c, err := checkpointer.NewNStep(*checkEvery, online.Agent, filename)
		if err != nil {
			return err
		}
		online.AddCheckpointer(c)
	}

	if *loadPath != "" {
		if err := online.Agent.LoadWeights(*loadPath); err != nil {
			return err
		}
		fmt.Println(aurora.Cyan(fmt.Sprintf("Loaded weights from %v",
			*loadPath)))
	}

	fmt.Println(aurora.Cyan(fmt.Sprintf("Training %v on %v/%v for %v "+
		"decisions", config.AgentConf.Type, config.EnvConf.Environment,
		config.EnvConf.Task, config.MaxSteps)))

	bar := progressbar.NewManualProgressBar(40, int(config.MaxSteps))
	for episode := 1; ; episode++ {
		ended, err := exp.RunEpisode()
		if err != nil {
			bar.Done()
			return err
		}

		bar.Set(int(exp.Steps()))
		bar.Display(fmt.Sprintf("episode %v", episode))
		if ended {
			break
		}
	}
	bar.Done()

	if err := exp.Save(); err != nil {
		return err
	}
	weights := filepath.Join(*outDir, "weights.gob")
	if err := online.Agent.SaveWeights(weights); err != nil {
		return err
	}

	reportFile := filepath.Join(*outDir, "report.html")
	if err := report.WriteFile(reportFile, returns.Data(),
		intervals.Data()); err != nil {
		return err
	}

	episodes := returns.Data()
	if len(episodes) > 0 {
		fmt.Println(aurora.Green(fmt.Sprintf("Finished %v episodes, last "+
			"return %.3f, mean interval %.3f", len(episodes),
			episodes[len(episodes)-1], last(intervals.Data()))))
	}
	fmt.Println(aurora.Green(fmt.Sprintf("Results written to %v", *outDir)))

	if *evalEpisodes > 0 {
		cutoff := config.EnvConf.EpisodeCutoff
		if cutoff == 0 {
			cutoff = config.MaxSteps
		}

		evalReturns, err := online.Evaluate(*evalEpisodes, cutoff)
		if err != nil {
			return err
		}
		for i, r := range evalReturns {
			fmt.Println(aurora.Blue(fmt.Sprintf("Evaluation episode %v: "+
				"return %.3f", i, r)))
		}
	}
	return nil
}

// newRenderer returns a tracker drawing every n-th episode of the
// experiment to the output directory
func newRenderer(online *experiment.Online, every int) (*trackers.Render,
	error) {
	obs := online.Environment.ObservationSpec()
	if obs.LowerBound.Len() < 2 {
		return nil, fmt.Errorf("newRenderer: cannot draw observations with "+
			"%v features", obs.LowerBound.Len())
	}
	x := r1.Interval{Min: obs.LowerBound.AtVec(0), Max: obs.UpperBound.AtVec(0)}
	y := r1.Interval{Min: obs.LowerBound.AtVec(1), Max: obs.UpperBound.AtVec(1)}

	action := online.Environment.ActionSpec()
	maxInterval := action.UpperBound.AtVec(action.UpperBound.Len() - 1)

	traj, err := render.NewTrajectory(x, y, maxInterval)
	if err != nil {
		return nil, err
	}
	return trackers.NewRender(traj, *outDir, every, 640, 480)
}

func last(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return data[len(data)-1]
}
