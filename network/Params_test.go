package network

import (
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestSplitHeadsPartition(t *testing.T) {
	for n := 0; n <= 25; n++ {
		action, interval := SplitHeads(n)

		if len(action)+len(interval) != n {
			t.Errorf("n = %v: partition has wrong size \n\twant(%v) "+
				"\n\thave(%v)", n, n, len(action)+len(interval))
		}

		seen := make(map[int]bool)
		for _, i := range append(append([]int{}, action...), interval...) {
			if seen[i] {
				t.Errorf("n = %v: index %v in both groups", n, i)
			}
			seen[i] = true
		}

		// Merging both groups in order must recover 0, 1, ..., n-1
		merged := make([]int, 0, n)
		a, b := 0, 0
		for a < len(action) || b < len(interval) {
			if b >= len(interval) || (a < len(action) && action[a] < interval[b]) {
				merged = append(merged, action[a])
				a++
			} else {
				merged = append(merged, interval[b])
				b++
			}
		}
		for i := range merged {
			if merged[i] != i {
				t.Errorf("n = %v: merged partition out of order \n\twant(%v) "+
					"\n\thave(%v)", n, i, merged[i])
				break
			}
		}

		for _, i := range action {
			if i%4 >= 2 {
				t.Errorf("n = %v: index %v should be in the interval head", n, i)
			}
		}
		for _, i := range interval {
			if i%4 < 2 {
				t.Errorf("n = %v: index %v should be in the action head", n, i)
			}
		}
	}
}

func TestSplitModelDualHead(t *testing.T) {
	g := G.NewGraph()
	net, err := NewDualHeadMLP(3, 2, 1, g, []int{5, 4},
		[]*Activation{ReLU(), TanH()}, G.GlorotU(1.0), nil, Sigmoid())
	if err != nil {
		t.Fatal(err)
	}

	action, interval := SplitModel(net.Model())
	if len(action) != 6 || len(interval) != 6 {
		t.Fatalf("wrong group sizes \n\twant(6, 6) \n\thave(%v, %v)",
			len(action), len(interval))
	}

	for _, vg := range action {
		name := vg.(*G.Node).Name()
		if name[:6] != "action" {
			t.Errorf("learnable %v routed to the action head", name)
		}
	}
	for _, vg := range interval {
		name := vg.(*G.Node).Name()
		if name[:8] != "interval" {
			t.Errorf("learnable %v routed to the interval head", name)
		}
	}
}

func TestSplitModelArbitraryNodes(t *testing.T) {
	g := G.NewGraph()
	model := make([]G.ValueGrad, 7)
	for i := range model {
		model[i] = G.NewScalar(g, tensor.Float64, G.WithName(string(rune('a'+i))))
	}

	action, interval := SplitModel(model)
	wantAction := []string{"a", "b", "e", "f"}
	wantInterval := []string{"c", "d", "g"}
	if len(action) != len(wantAction) || len(interval) != len(wantInterval) {
		t.Fatalf("wrong group sizes \n\twant(%v, %v) \n\thave(%v, %v)",
			len(wantAction), len(wantInterval), len(action), len(interval))
	}

	for i, vg := range action {
		if name := vg.(*G.Node).Name(); name != wantAction[i] {
			t.Errorf("action[%v] \n\twant(%v) \n\thave(%v)", i,
				wantAction[i], name)
		}
	}
	for i, vg := range interval {
		if name := vg.(*G.Node).Name(); name != wantInterval[i] {
			t.Errorf("interval[%v] \n\twant(%v) \n\thave(%v)", i,
				wantInterval[i], name)
		}
	}
}
