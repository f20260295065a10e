package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []float64{-10, -5, -2}, []float64{0.1, 0.2,
		0.4}); err != nil {
		t.Fatal(err)
	}

	page := buf.String()
	for _, want := range []string{"<html", "Episodic return",
		"Mean trigger interval"} {
		if !strings.Contains(page, want) {
			t.Errorf("page does not contain %q", want)
		}
	}
}

func TestNewLineAxisCoversLongestSeries(t *testing.T) {
	line := NewLine("test", Series{Name: "a", Data: []float64{1, 2}},
		Series{Name: "b", Data: []float64{1, 2, 3, 4}})

	if len(line.MultiSeries) != 2 {
		t.Fatalf("series \n\twant(%v) \n\thave(%v)", 2, len(line.MultiSeries))
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"3"`) {
		t.Errorf("x axis does not cover the longest series")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	if err := WriteFile(path, []float64{1}, []float64{0.5}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Errorf("report file is empty")
	}

	if err := WriteFile(filepath.Join(t.TempDir(), "missing", "r.html"),
		nil, nil); err == nil {
		t.Errorf("expected error writing to a missing directory")
	}
}
