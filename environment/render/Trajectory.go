// Package render draws episodes of self-triggered environments to
// images. The phase plane of the first two observation features is
// drawn above a bar chart of the trigger intervals chosen at each
// decision.
package render

import (
	"fmt"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/selftrigger/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

var (
	background   = color.RGBA{R: 250, G: 250, B: 250, A: 255}
	axisColour   = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	pathColour   = color.RGBA{R: 204, G: 77, B: 77, A: 255}
	startColour  = color.RGBA{R: 51, G: 153, B: 51, A: 255}
	intervalFill = color.RGBA{R: 77, G: 102, B: 204, A: 255}
)

// Trajectory records the observations of an episode and the trigger
// intervals chosen along it
type Trajectory struct {
	xBounds     r1.Interval
	yBounds     r1.Interval
	maxInterval float64

	points    [][2]float64
	intervals []float64
}

// NewTrajectory returns a new Trajectory whose phase plane spans
// xBounds by yBounds and whose interval chart spans [0, maxInterval]
func NewTrajectory(xBounds, yBounds r1.Interval,
	maxInterval float64) (*Trajectory, error) {
	if xBounds.Max <= xBounds.Min || yBounds.Max <= yBounds.Min {
		return nil, fmt.Errorf("newtrajectory: empty bounds %v, %v",
			xBounds, yBounds)
	}
	if maxInterval <= 0 {
		return nil, fmt.Errorf("newtrajectory: maximum interval must be "+
			"positive, have(%v)", maxInterval)
	}

	return &Trajectory{
		xBounds:     xBounds,
		yBounds:     yBounds,
		maxInterval: maxInterval,
	}, nil
}

// Record records the observation of a timestep and the interval chosen
// in it. Observations must have at least two features.
func (t *Trajectory) Record(step timestep.TimeStep, interval float64) error {
	if step.Observation.Len() < 2 {
		return fmt.Errorf("record: observation must have at least 2 "+
			"features, have(%v)", step.Observation.Len())
	}

	point := [2]float64{step.Observation.AtVec(0), step.Observation.AtVec(1)}
	t.points = append(t.points, point)
	t.intervals = append(t.intervals, interval)
	return nil
}

// Len returns the number of recorded decisions
func (t *Trajectory) Len() int {
	return len(t.points)
}

// Reset clears the recorded episode
func (t *Trajectory) Reset() {
	t.points = t.points[:0]
	t.intervals = t.intervals[:0]
}

// Draw draws the recorded episode onto a new width x height context
func (t *Trajectory) Draw(width, height int) *gg.Context {
	dc := gg.NewContext(width, height)
	dc.SetColor(background)
	dc.Clear()

	w, h := float64(width), float64(height)
	planeH := 2 * h / 3
	t.drawPlane(dc, w, planeH)
	t.drawIntervals(dc, planeH, w, h-planeH)

	return dc
}

// drawPlane draws the phase plane in the box [0, w] x [0, h]
func (t *Trajectory) drawPlane(dc *gg.Context, w, h float64) {
	toPixel := func(p [2]float64) (float64, float64) {
		x := (p[0] - t.xBounds.Min) / (t.xBounds.Max - t.xBounds.Min) * w
		y := h - (p[1]-t.yBounds.Min)/(t.yBounds.Max-t.yBounds.Min)*h
		return x, y
	}

	// Axes through the origin
	dc.SetColor(axisColour)
	dc.SetLineWidth(1.0)
	ox, oy := toPixel([2]float64{0, 0})
	dc.DrawLine(0, oy, w, oy)
	dc.DrawLine(ox, 0, ox, h)
	dc.Stroke()

	if len(t.points) == 0 {
		return
	}

	dc.ClearPath()
	dc.SetColor(pathColour)
	dc.SetLineWidth(2.0)
	for _, p := range t.points {
		x, y := toPixel(p)
		dc.LineTo(x, y)
	}
	dc.Stroke()

	// Each decision is marked
	for _, p := range t.points {
		x, y := toPixel(p)
		dc.DrawCircle(x, y, 2.0)
	}
	dc.Fill()

	dc.SetColor(startColour)
	x, y := toPixel(t.points[0])
	dc.DrawCircle(x, y, 5.0)
	dc.Fill()
}

// drawIntervals draws the interval chart in the box [0, w] x
// [top, top+h]
func (t *Trajectory) drawIntervals(dc *gg.Context, top, w, h float64) {
	dc.SetColor(axisColour)
	dc.SetLineWidth(1.0)
	dc.DrawLine(0, top+h-1, w, top+h-1)
	dc.Stroke()

	if len(t.intervals) == 0 {
		return
	}

	barW := w / float64(len(t.intervals))
	dc.SetColor(intervalFill)
	for i, interval := range t.intervals {
		frac := interval / t.maxInterval
		if frac > 1 {
			frac = 1
		} else if frac < 0 {
			frac = 0
		}
		barH := frac * (h - 4)
		dc.DrawRectangle(float64(i)*barW, top+h-1-barH, barW, barH)
	}
	dc.Fill()
}

// SavePNG draws the recorded episode and saves it as a PNG at path
func (t *Trajectory) SavePNG(path string, width, height int) error {
	if err := t.Draw(width, height).SavePNG(path); err != nil {
		return fmt.Errorf("savepng: %v", err)
	}
	return nil
}

// EncodePNG draws the recorded episode and writes it as a PNG to w
func (t *Trajectory) EncodePNG(w io.Writer, width, height int) error {
	if err := t.Draw(width, height).EncodePNG(w); err != nil {
		return fmt.Errorf("encodepng: %v", err)
	}
	return nil
}
