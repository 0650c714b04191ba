package openmalaria

import (
	"math"
	"testing"
)

func TestDecayFunc_StepShape(t *testing.T) {
	d := NewDecayFunc(DecayStep, 10, 0)
	het := DecayHeterogeneity{factor: 1, set: true}
	if v := d.Eval(5, het); v != 1 {
		t.Fatalf(UnequalFloatParameterError, "step decay before threshold", 1, v)
	}
	if v := d.Eval(15, het); v != 0 {
		t.Fatalf(UnequalFloatParameterError, "step decay after threshold", 0, v)
	}
}

func TestDecayFunc_ExponentialHalfLife(t *testing.T) {
	d := NewDecayFunc(DecayExponential, 30, 0)
	het := DecayHeterogeneity{factor: 1, set: true}
	v := d.Eval(30, het)
	if math.Abs(v-0.5) > 1e-9 {
		t.Fatalf(UnequalFloatParameterError, "exponential decay at half-life", 0.5, v)
	}
}

func TestDecayFunc_UnsetHeterogeneityAlwaysZero(t *testing.T) {
	d := NewDecayFunc(DecayConstant, 1, 0)
	v := d.Eval(0, UnsetHeterogeneity())
	if v != 0 {
		t.Fatalf(UnequalFloatParameterError, "decay with unset heterogeneity", 0, v)
	}
}

func TestDecayFunc_Combinators(t *testing.T) {
	het := DecayHeterogeneity{factor: 1, set: true}
	a := NewDecayFunc(DecayConstant, 1, 0) // always 1
	b := NewDecayFunc(DecayStep, 10, 0)    // 1 then 0

	plus := Plus(a, b)
	if v := plus.Eval(20, het); v != 1 {
		t.Fatalf(UnequalFloatParameterError, "Plus(1,0) clamped", 1, v)
	}
	minus := Minus(a, b)
	if v := minus.Eval(20, het); v != 1 {
		t.Fatalf(UnequalFloatParameterError, "Minus(1,0)", 1, v)
	}
	mult := Multiplies(a, b)
	if v := mult.Eval(20, het); v != 0 {
		t.Fatalf(UnequalFloatParameterError, "Multiplies(1,0)", 0, v)
	}
	div := Divides(b, a)
	if v := div.Eval(20, het); v != 0 {
		t.Fatalf(UnequalFloatParameterError, "Divides(0,1)", 0, v)
	}
}

func TestDecayFunc_Increasing(t *testing.T) {
	d := NewDecayFunc(DecayStep, 10, 0).Increasing()
	het := DecayHeterogeneity{factor: 1, set: true}
	if v := d.Eval(5, het); v != 0 {
		t.Fatalf(UnequalFloatParameterError, "increasing step before threshold", 0, v)
	}
	if v := d.Eval(15, het); v != 1 {
		t.Fatalf(UnequalFloatParameterError, "increasing step after threshold", 1, v)
	}
}

func TestSampleHeterogeneity_DegenerateAtZeroCV(t *testing.T) {
	s := NewSampler(1, 0)
	het := SampleHeterogeneity(s, 0)
	if het.factor != 1 {
		t.Fatalf(UnequalFloatParameterError, "degenerate heterogeneity factor", 1, het.factor)
	}
}
