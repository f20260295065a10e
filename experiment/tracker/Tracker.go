// Package tracker defines Trackers, which keep track of data generated
// during an experiment and save that data once the experiment is done
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/selftrigger/timestep"
)

// Interface Tracker keeps track of experiment data and saves the data
// after the experiment has finished
type Tracker interface {
	Track(t ts.TimeStep)
	Save() error
}

// MetricsTracker is a Tracker which also tracks the metrics returned
// by an agent after each decision step. Metrics are ordered as names,
// and are NaN on steps where the agent did not learn.
type MetricsTracker interface {
	Tracker
	TrackMetrics(step int, names []string, metrics []float64)
}

// Recorder is implemented by Trackers that can report the data they
// have cached so far, one value per finished episode
type Recorder interface {
	Data() []float64
}

// SaveData saves data to filename with gob encoding
func SaveData(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("savedata: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(data); err != nil {
		return fmt.Errorf("savedata: could not encode data: %v", err)
	}
	return nil
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaddata: could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []float64
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loaddata: could not decode data: %v", err)
	}
	return data, nil
}
