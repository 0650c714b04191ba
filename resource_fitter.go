package openmalaria

import (
	"fmt"
	"math"
)

// ResourceFitterParams configure the one-shot pre-init calibration that
// solves for invLarvalResources so the simple-MPD emergence model
// reproduces a target annual mean EIR (spec.md §4.N).
type ResourceFitterParams struct {
	TargetAnnualEIR float64
	MaxIterations   int
	Tolerance       float64 // relative tolerance on annual EIR
	DampingFactor   float64 // 0 < d <= 1, under-relaxation to stabilise convergence
}

// DefaultResourceFitterParams returns the teacher-idiom-sized defaults:
// a damped fixed-point iteration, generously bounded.
func DefaultResourceFitterParams(targetEIR float64) ResourceFitterParams {
	return ResourceFitterParams{
		TargetAnnualEIR: targetEIR,
		MaxIterations:   1000,
		Tolerance:       1e-3,
		DampingFactor:   0.5,
	}
}

// SimulateAnnualEIR is supplied by the caller (config_loader.go's
// fitSimpleMPDResources): runs the vector model with the given
// invLarvalResources vector installed and returns the annual EIR, the sum of
// the daily EIR over the last simulated year.
type SimulateAnnualEIR func(invLarvalResources [DaysPerYear]float64) (annualEIR float64, err error)

// FitResources implements spec.md §4.N's resource-fitting algorithm: a
// damped fixed-point iteration (with a Newton correction once the relative
// error is small) that rescales invLarvalResources until the simulated
// annual mean EIR matches params.TargetAnnualEIR within tolerance.
// Grounded on the teacher's iterative convergence loop in replicator.go's
// population-size stabilisation, generalised from a scalar carrying
// capacity to an annual resource-availability vector.
func FitResources(initial [DaysPerYear]float64, params ResourceFitterParams, simulate SimulateAnnualEIR) ([DaysPerYear]float64, error) {
	if params.TargetAnnualEIR <= 0 {
		return initial, NewVectorFittingError(fmt.Errorf("resource fitting requires a positive target annual EIR, got %f", params.TargetAnnualEIR))
	}
	current := initial
	for iter := 0; iter < params.MaxIterations; iter++ {
		eir, err := simulate(current)
		if err != nil {
			return current, NewVectorFittingError(fmt.Errorf("resource fitting iteration %d: %w", iter, err))
		}
		if eir <= 0 || math.IsNaN(eir) || math.IsInf(eir, 0) {
			return current, NewVectorFittingError(fmt.Errorf("resource fitting iteration %d produced non-finite EIR %f", iter, eir))
		}
		relError := math.Abs(eir-params.TargetAnnualEIR) / params.TargetAnnualEIR
		if relError < params.Tolerance {
			return current, nil
		}

		ratio := params.TargetAnnualEIR / eir
		// Since emergence scales linearly with invLarvalResources at fixed
		// ovipositing input, a damped multiplicative correction converges
		// geometrically; switch to an unclamped Newton step once close.
		damp := params.DampingFactor
		if relError < 0.1 {
			damp = 1
		}
		factor := 1 + damp*(ratio-1)
		if factor <= 0 {
			factor = 0.1
		}
		for d := range current {
			current[d] *= factor
		}
	}
	return current, NewVectorFittingError(fmt.Errorf("resource fitting did not converge within %d iterations", params.MaxIterations))
}
