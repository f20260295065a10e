package progressbar

import (
	"bytes"
	"strings"
	"testing"
)

func TestManualProgressBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewManualProgressBarTo(&buf, 10, 4)

	p.Increment()
	if f := p.Fraction(); f != 0.25 {
		t.Errorf("fraction \n\twant(%v) \n\thave(%v)", 0.25, f)
	}

	p.Set(10)
	if f := p.Fraction(); f != 1 {
		t.Errorf("fraction after overshoot \n\twant(%v) \n\thave(%v)", 1.0, f)
	}
	p.Increment()
	if f := p.Fraction(); f != 1 {
		t.Errorf("fraction after increment past max \n\twant(%v) "+
			"\n\thave(%v)", 1.0, f)
	}

	p.Set(2)
	p.Display("episode 3")
	out := buf.String()
	if !strings.Contains(out, "50.00%") {
		t.Errorf("display does not show progress: %q", out)
	}
	if !strings.HasSuffix(out, "episode 3") {
		t.Errorf("display does not end with suffix: %q", out)
	}
	if n := strings.Count(out, "█"); n != 5 {
		t.Errorf("filled cells \n\twant(%v) \n\thave(%v)", 5, n)
	}
}
