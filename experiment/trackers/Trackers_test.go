package trackers

import (
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/selftrigger/agent/nonlinear/continuous/selfddpg"
	"github.com/samuelfneumann/selftrigger/environment/render"
	"github.com/samuelfneumann/selftrigger/experiment/tracker"
	ts "github.com/samuelfneumann/selftrigger/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// episode returns the timesteps of an episode with the given rewards,
// each decision holding its action for interval
func episode(rewards []float64, interval float64) []ts.TimeStep {
	obs := mat.NewVecDense(2, []float64{1, -1})
	steps := []ts.TimeStep{ts.New(ts.First, 0, 1, obs, 0, 0)}
	for i, r := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = ts.Last
		}
		steps = append(steps, ts.New(stepType, r, 1, obs, i+1,
			float64(i+1)*interval))
	}
	return steps
}

func track(t tracker.Tracker, steps []ts.TimeStep) {
	for _, step := range steps {
		t.Track(step)
	}
}

func TestEpisodeTrackers(t *testing.T) {
	dir := t.TempDir()
	r := NewReturn(filepath.Join(dir, "return.bin"))
	l := NewEpisodeLength(filepath.Join(dir, "length.bin"))
	i := NewInterval(filepath.Join(dir, "interval.bin"))

	for _, tr := range []tracker.Tracker{r, l, i} {
		track(tr, episode([]float64{-1, -2, -3}, 0.5))
		track(tr, episode([]float64{-4}, 0.25))

		// Cut short by the end of the experiment
		track(tr, episode([]float64{-1, -1}, 0.5)[:2])
	}

	tests := []struct {
		name     string
		recorder tracker.Recorder
		filename string
		want     []float64
	}{
		{"return", r, "return.bin", []float64{-6, -4}},
		{"length", l, "length.bin", []float64{3, 1}},
		{"interval", i, "interval.bin", []float64{0.5, 0.25}},
	}

	for _, test := range tests {
		have := test.recorder.Data()
		if len(have) != len(test.want) {
			t.Errorf("%v: \n\twant(%v) \n\thave(%v)", test.name, test.want,
				have)
			continue
		}
		for j := range have {
			if math.Abs(have[j]-test.want[j]) > 1e-9 {
				t.Errorf("%v: \n\twant(%v) \n\thave(%v)", test.name,
					test.want, have)
			}
		}

		if err := test.recorder.(tracker.Tracker).Save(); err != nil {
			t.Fatal(err)
		}
		saved, err := tracker.LoadData(filepath.Join(dir, test.filename))
		if err != nil {
			t.Fatal(err)
		}
		if len(saved) != len(test.want) {
			t.Errorf("%v saved: \n\twant(%v) \n\thave(%v)", test.name,
				test.want, saved)
		}
	}
}

func TestReturnPanicsOnSkippedTimeStep(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic tracking non-sequential timesteps")
		}
	}()

	r := NewReturn("")
	steps := episode([]float64{1, 2, 3}, 1)
	r.Track(steps[0])
	r.Track(steps[2])
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}

	track(s, episode([]float64{-1, -2}, 0.5))
	s.TrackMetrics(0, []string{"loss", "mean_q"}, []float64{math.NaN(),
		math.NaN()})
	s.TrackMetrics(1, []string{"loss", "mean_q"}, []float64{0.5, -3})
	s.Record(selfddpg.TrainInfo{
		Step:             1,
		CriticGradNorm:   2,
		ActionGradNorm:   math.NaN(),
		IntervalGradNorm: math.NaN(),
	})
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var steps int
	var elapsed, ret float64
	if err := db.QueryRow(`SELECT steps, elapsed, episode_return FROM
		episodes WHERE episode = 0`).Scan(&steps, &elapsed, &ret); err != nil {
		t.Fatal(err)
	}
	if steps != 2 || elapsed != 1 || ret != -3 {
		t.Errorf("episode \n\twant(%v, %v, %v) \n\thave(%v, %v, %v)", 2, 1.0,
			-3.0, steps, elapsed, ret)
	}

	var rows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM metrics`).Scan(
		&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 2 {
		t.Errorf("metric rows \n\twant(%v) \n\thave(%v)", 2, rows)
	}

	var loss float64
	if err := db.QueryRow(`SELECT value FROM metrics WHERE step = 1 AND
		name = 'loss'`).Scan(&loss); err != nil {
		t.Fatal(err)
	}
	if loss != 0.5 {
		t.Errorf("loss \n\twant(%v) \n\thave(%v)", 0.5, loss)
	}

	var critic float64
	var action sql.NullFloat64
	if err := db.QueryRow(`SELECT critic_norm, action_norm FROM gradients
		WHERE step = 1`).Scan(&critic, &action); err != nil {
		t.Fatal(err)
	}
	if critic != 2 || action.Valid {
		t.Errorf("gradient norms \n\twant(%v, NULL) \n\thave(%v, %v)", 2.0,
			critic, action)
	}
}

func TestSQLiteFlushesWhenFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for i := 0; i < flushEvery; i++ {
		s.TrackMetrics(i, []string{"loss"}, []float64{float64(i)})
	}

	var rows int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM metrics`).Scan(
		&rows); err != nil {
		t.Fatal(err)
	}
	if rows != flushEvery {
		t.Errorf("rows written before save \n\twant(%v) \n\thave(%v)",
			flushEvery, rows)
	}
}

func TestRender(t *testing.T) {
	traj, err := render.NewTrajectory(r1.Interval{Min: -2, Max: 2},
		r1.Interval{Min: -2, Max: 2}, 1)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	r, err := NewRender(traj, dir, 2, 60, 45)
	if err != nil {
		t.Fatal(err)
	}

	for e := 0; e < 3; e++ {
		track(r, episode([]float64{-1, -1, -1}, 0.5))
	}
	if err := r.Save(); err != nil {
		t.Fatal(err)
	}

	for _, test := range []struct {
		file  string
		drawn bool
	}{
		{"episode0.png", true},
		{"episode1.png", false},
		{"episode2.png", true},
	} {
		_, err := os.Stat(filepath.Join(dir, test.file))
		if drawn := err == nil; drawn != test.drawn {
			t.Errorf("%v: \n\twant(drawn=%v) \n\thave(%v)", test.file,
				test.drawn, err)
		}
	}

	if traj.Len() != 4 {
		t.Errorf("recorded decisions \n\twant(%v) \n\thave(%v)", 4,
			traj.Len())
	}

	if _, err := NewRender(traj, dir, 0, 60, 45); err == nil {
		t.Errorf("expected error for non-positive render period")
	}
}
