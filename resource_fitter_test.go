package openmalaria

import (
	"math"
	"testing"
)

func TestFitResources_ConvergesToTargetLinearResponse(t *testing.T) {
	// A synthetic simulate() whose output is directly proportional to the
	// mean of invLarvalResources, so the fixed-point iteration has a known
	// closed-form solution to check against.
	const responseGain = 2000.0
	simulate := func(invK [DaysPerYear]float64) (float64, error) {
		var sum float64
		for _, v := range invK {
			sum += v
		}
		mean := sum / DaysPerYear
		return responseGain * mean, nil
	}

	var seed [DaysPerYear]float64
	for d := range seed {
		seed[d] = 1e-4
	}
	params := DefaultResourceFitterParams(50)
	params.Tolerance = 1e-4
	fitted, err := FitResources(seed, params, simulate)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "fitting resources", err)
	}
	var sum float64
	for _, v := range fitted {
		sum += v
	}
	mean := sum / DaysPerYear
	gotEIR := responseGain * mean
	if math.Abs(gotEIR-50)/50 > params.Tolerance*2 {
		t.Fatalf(UnequalFloatParameterError, "fitted annual EIR", 50, gotEIR)
	}
}

func TestFitResources_RejectsNonPositiveTarget(t *testing.T) {
	var seed [DaysPerYear]float64
	params := DefaultResourceFitterParams(0)
	_, err := FitResources(seed, params, func([DaysPerYear]float64) (float64, error) { return 1, nil })
	if err == nil {
		t.Fatalf("expected an error for a non-positive target annual EIR, got nil")
	}
}

func TestFitResources_FailsOnNonFiniteSimulationOutput(t *testing.T) {
	var seed [DaysPerYear]float64
	for d := range seed {
		seed[d] = 1
	}
	params := DefaultResourceFitterParams(10)
	params.MaxIterations = 5
	_, err := FitResources(seed, params, func([DaysPerYear]float64) (float64, error) { return math.NaN(), nil })
	if err == nil {
		t.Fatalf("expected an error when simulate() returns a non-finite EIR, got nil")
	}
}
