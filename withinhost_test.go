package openmalaria

import "testing"

func testGenotypeRegistry(t *testing.T) *GenotypeRegistry {
	t.Helper()
	reg, err := NewGenotypeRegistry([]GenotypeInfo{
		{ID: 1, InitialFreq: 0.6},
		{ID: 2, InitialFreq: 0.4},
	})
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "building genotype registry", err)
	}
	return reg
}

func testDescriptiveModel() *DescriptiveModel {
	rows := make([][]float64, DescriptiveNumDurations)
	for i := range rows {
		row := make([]float64, DescriptiveNumDurations+1)
		for j := range row {
			row[j] = 10
		}
		rows[i] = row
	}
	return NewDescriptiveModel(rows, 2, 0.1, 1, 5)
}

func TestWithinHost_UpdateBoundsTotalDensity(t *testing.T) {
	reg := testGenotypeRegistry(t)
	model := testDescriptiveModel()
	params := WithinHostParams{HStar: 1, YStar: 1, AlphaM: 0, DecayM: 1, StepLengthDays: 5}
	wh := NewWithinHost(params, model, 50)
	s := NewSampler(1, 0)

	for day := 0; day < 100; day += 5 {
		wh.Update(s, day, 3, 0, reg, nil, 20, 1, 1, 1)
		if wh.TotalDensity() < 0 {
			t.Fatalf(InvalidFloatParameterError, "total density", wh.TotalDensity(), "must be non-negative")
		}
		if wh.TotalDensity() > MaxDensity*MaxInfections {
			t.Fatalf(InvalidFloatParameterError, "total density", wh.TotalDensity(), "must not exceed MaxDensity*MaxInfections")
		}
		if len(wh.Infections()) > MaxInfections {
			t.Fatalf(UnequalIntParameterError, "infection count", MaxInfections, len(wh.Infections()))
		}
	}
}

func TestWithinHost_CumulativeCountersAreMonotonic(t *testing.T) {
	reg := testGenotypeRegistry(t)
	model := testDescriptiveModel()
	params := WithinHostParams{HStar: 1, YStar: 1, AlphaM: 0, DecayM: 1, StepLengthDays: 5}
	wh := NewWithinHost(params, model, 50)
	s := NewSampler(2, 0)

	prevH, prevY := wh.CumulativeH(), wh.CumulativeY()
	for day := 0; day < 50; day += 5 {
		wh.Update(s, day, 2, 0, reg, nil, 20, 1, 1, 1)
		if wh.CumulativeH() < prevH {
			t.Fatalf(InvalidIntParameterError, "cumulative H", wh.CumulativeH(), "must be non-decreasing")
		}
		if wh.CumulativeY() < prevY {
			t.Fatalf(InvalidFloatParameterError, "cumulative Y", wh.CumulativeY(), "must be non-decreasing")
		}
		prevH, prevY = wh.CumulativeH(), wh.CumulativeY()
	}
}

func TestWithinHost_InoculationClampedToMaxInfections(t *testing.T) {
	reg := testGenotypeRegistry(t)
	model := testDescriptiveModel()
	params := WithinHostParams{HStar: 1, YStar: 1, AlphaM: 0, DecayM: 1, StepLengthDays: 5}
	wh := NewWithinHost(params, model, 50)
	s := NewSampler(3, 0)

	wh.Update(s, 0, MaxInfections+10, 0, reg, nil, 20, 1, 1, 1)
	if len(wh.Infections()) > MaxInfections {
		t.Fatalf(UnequalIntParameterError, "infection count after oversized inoculation", MaxInfections, len(wh.Infections()))
	}
}

func TestWithinHost_TreatmentClearsBloodStageInfections(t *testing.T) {
	reg := testGenotypeRegistry(t)
	model := testDescriptiveModel()
	params := WithinHostParams{HStar: 1, YStar: 1, AlphaM: 0, DecayM: 1, StepLengthDays: 5}
	wh := NewWithinHost(params, model, 50)
	s := NewSampler(4, 0)

	for day := 0; day < 25; day += 5 {
		wh.Update(s, day, 1, 0, reg, nil, 20, 1, 1, 1)
	}
	if len(wh.Infections()) == 0 {
		t.Fatalf("expected at least one surviving infection before treatment")
	}
	wh.Treatment(25, false, true, 0, 10)
	for _, inf := range wh.Infections() {
		if inf.BloodStage() {
			t.Fatalf("expected no blood-stage infections to remain after clearBlood treatment")
		}
	}
}

func TestWithinHost_ProbTransmissionToMosquitoIsZeroWithNoHistory(t *testing.T) {
	model := testDescriptiveModel()
	params := WithinHostParams{HStar: 1, YStar: 1, AlphaM: 0, DecayM: 1, StepLengthDays: 5}
	wh := NewWithinHost(params, model, 50)

	p, perGenotype := wh.ProbTransmissionToMosquito([]int{1, 2}, 1)
	if p != 0 {
		t.Fatalf(UnequalFloatParameterError, "transmission probability with no lag history", 0, p)
	}
	if len(perGenotype) != 2 {
		t.Fatalf(UnequalIntParameterError, "per-genotype map length", 2, len(perGenotype))
	}
}

func TestWithinHost_ClearImmunityResetsCounters(t *testing.T) {
	reg := testGenotypeRegistry(t)
	model := testDescriptiveModel()
	params := WithinHostParams{HStar: 1, YStar: 1, AlphaM: 0, DecayM: 1, StepLengthDays: 5}
	wh := NewWithinHost(params, model, 50)
	s := NewSampler(5, 0)

	wh.Update(s, 0, 2, 0, reg, nil, 20, 1, 1, 1)
	wh.ClearImmunity()
	if wh.CumulativeH() != 0 {
		t.Fatalf(UnequalIntParameterError, "cumulative H after ClearImmunity", 0, wh.CumulativeH())
	}
	if wh.CumulativeY() != 0 {
		t.Fatalf(UnequalFloatParameterError, "cumulative Y after ClearImmunity", 0, wh.CumulativeY())
	}
}
