package stats

import (
	"math"
	"testing"

	"github.com/verte-zerg/statsheet/internal/model"
)

func sampleStat() model.Stat {
	var s model.Stat
	for i := range s {
		s[i] = float64(i+1) * 1.5
	}
	return s
}

func TestCombineLinearEmptyIsZero(t *testing.T) {
	got := CombineLinear(nil)
	if got != (model.Stat{}) {
		t.Fatalf("expected zero stat, got %+v", got)
	}
}

func TestCombineLinearIdentity(t *testing.T) {
	s := sampleStat()
	if got := CombineLinear([]Term{{Stat: s, Coeff: 1}}); got != s {
		t.Fatalf("expected %+v, got %+v", s, got)
	}
}

func TestCombineLinearIsLinear(t *testing.T) {
	s := sampleStat()
	got := CombineLinear([]Term{{Stat: s, Coeff: 2}, {Stat: s, Coeff: -1}})
	if got != s {
		t.Fatalf("expected %+v, got %+v", s, got)
	}
}

func TestCombineLinearOrderIndependent(t *testing.T) {
	a := sampleStat()
	var b model.Stat
	b[model.Atk] = 0.1
	b[model.HP] = 300.7
	var c model.Stat
	c[model.Atk] = 17
	c[model.Dodge] = 3.3

	forward := CombineLinear([]Term{{a, 1}, {b, 0.3}, {c, 117}})
	backward := CombineLinear([]Term{{c, 117}, {b, 0.3}, {a, 1}})
	for i := range forward {
		if math.Abs(forward[i]-backward[i]) > 1e-9 {
			t.Fatalf("field %s differs: %v vs %v", model.StatField(i), forward[i], backward[i])
		}
	}
}
