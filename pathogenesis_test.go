package openmalaria

import "testing"

func TestPyrogenicPathogenesis_ThresholdRisesWithSustainedDensity(t *testing.T) {
	params := PyrogenicParams{
		YStar0: 1500, Alpha: 142000, YStar1: 0.5, YStar2: 1500,
		YStarHalfLife: 10, SevereMalThreshold: 784000,
		ComorbIntercept: 0.0177, CriticalAge: 0.117,
		ComorbidityFactor: 1, IndirRiskCoFactor: 0.0019,
		StepLengthDays: 5,
	}
	p := NewPyrogenicPathogenesis(params)
	s := NewSampler(1, 0)

	first := p.yStar
	p.Determine(s, 50000, 50000, 10)
	if p.yStar <= first {
		t.Fatalf(InvalidFloatParameterError, "pyrogenic threshold after sustained high density", p.yStar, "must rise above its initial value")
	}
}

func TestPyrogenicPathogenesis_NoDensityYieldsNoMalariaState(t *testing.T) {
	params := PyrogenicParams{
		YStar0: 1500, Alpha: 142000, YStar1: 0.5, YStar2: 1500,
		YStarHalfLife: 10, SevereMalThreshold: 784000,
		ComorbIntercept: 0, CriticalAge: 0.117,
		ComorbidityFactor: 0, IndirRiskCoFactor: 0,
		StepLengthDays: 5,
	}
	p := NewPyrogenicPathogenesis(params)
	s := NewSampler(2, 0)
	state, indirect := p.Determine(s, 0, 0, 10)
	if state != StateNone {
		t.Fatalf(UnequalIntParameterError, "clinical state with zero density", int(StateNone), int(state))
	}
	if indirect {
		t.Fatalf("expected no indirect mortality flag with a zero comorbidity factor")
	}
}

func TestMuellerPathogenesis_RunsAcrossWideDensityRange(t *testing.T) {
	params := MuellerParams{
		RateMultiplier: 0.001, DensityExponent: 1, YearsPerStep: 5.0 / 365,
		SevereMalThreshold: 784000, ComorbIntercept: 0.0177, CriticalAge: 0.117,
		ComorbidityFactor: 1, IndirRiskCoFactor: 0.0019,
	}
	p := NewMuellerPathogenesis(params)
	s := NewSampler(3, 0)
	for _, density := range []float64{0, 1, 1000, 1000000} {
		state, _ := p.Determine(s, density, density, 10)
		if state < StateNone || state > StateSevere {
			t.Fatalf(InvalidIntParameterError, "clinical state", int(state), "must be one of the defined ClinicalState values")
		}
	}
}

func TestPredeterminedPathogenesis_TriggersOnceThenResets(t *testing.T) {
	params := PredeterminedParams{TriggerDensity: 1000, SevereMalThreshold: 500000}
	p := NewPredeterminedPathogenesis(params)
	s := NewSampler(4, 0)

	state, _ := p.Determine(s, 500, 500, 10)
	if state != StateNone {
		t.Fatalf(UnequalIntParameterError, "state below trigger density", int(StateNone), int(state))
	}

	state, _ = p.Determine(s, 2000, 2000, 10)
	if state != StateMalaria {
		t.Fatalf(UnequalIntParameterError, "state on first density crossing", int(StateMalaria), int(state))
	}

	state, _ = p.Determine(s, 2000, 2000, 10)
	if state != StateNone {
		t.Fatalf(UnequalIntParameterError, "state on repeated crossing without resetting below trigger", int(StateNone), int(state))
	}

	state, _ = p.Determine(s, 100, 100, 10)
	if state != StateNone {
		t.Fatalf(UnequalIntParameterError, "state after dropping below trigger", int(StateNone), int(state))
	}

	state, _ = p.Determine(s, 2000, 2000, 10)
	if state != StateMalaria {
		t.Fatalf(UnequalIntParameterError, "state after re-crossing trigger following a reset", int(StateMalaria), int(state))
	}
}

func TestPredeterminedPathogenesis_SevereAboveThreshold(t *testing.T) {
	params := PredeterminedParams{TriggerDensity: 1000, SevereMalThreshold: 5000}
	p := NewPredeterminedPathogenesis(params)
	s := NewSampler(5, 0)
	state, _ := p.Determine(s, 10000, 10000, 10)
	if state != StateSevere {
		t.Fatalf(UnequalIntParameterError, "state above severe threshold", int(StateSevere), int(state))
	}
}
