package openmalaria

import "math"

// ClinicalState is the morbidity outcome of a step's pathogenesis check
// (spec.md §4.F).
type ClinicalState int

const (
	StateNone ClinicalState = iota
	StateSick
	StateMalaria
	StateCoinfection // malaria fever with concurrent non-malarial fever
	StateSevere
)

// Pathogenesis maps within-host density to a clinical state plus an
// independent indirect-mortality flag (spec.md §4.F). Grounded on the
// teacher's multiple-implementations-behind-one-interface pattern seen
// across fitness_model_matrix.go / fitness_model_motif.go.
type Pathogenesis interface {
	Determine(s *Sampler, totalDensity, stepMaxDensity, ageYears float64) (ClinicalState, bool)
}

// PyrogenicParams are the Pyrogen-model parameters from spec.md §4.F,
// referencing AJTMH 75(2) eq. 2.
type PyrogenicParams struct {
	YStar0                    float64
	Alpha, YStar1, YStar2     float64
	YStarHalfLife             float64
	SevereMalThreshold        float64
	ComorbIntercept           float64
	CriticalAge               float64
	ComorbidityFactor         float64
	IndirRiskCoFactor         float64
	NMFIncidenceByAge         func(ageYears float64) float64
	StepLengthDays            int
}

// PyrogenicPathogenesis is the default Pyrogen morbidity model.
type PyrogenicPathogenesis struct {
	params  PyrogenicParams
	yStar   float64
}

// NewPyrogenicPathogenesis constructs a Pyrogen model with its initial
// pyrogenic threshold Y*0.
func NewPyrogenicPathogenesis(params PyrogenicParams) *PyrogenicPathogenesis {
	return &PyrogenicPathogenesis{params: params, yStar: params.YStar0}
}

// Determine updates the per-host pyrogenic threshold via an 11-substep
// fixed-step integration of AJTMH 75(2) eq. 2 (spec.md §9 design note:
// the 11-step integration is part of the model's definition, not an
// implementation detail), then evaluates the fever/severe/coinfection
// decision tree.
func (p *PyrogenicPathogenesis) Determine(s *Sampler, totalDensity, stepMaxDensity, ageYears float64) (ClinicalState, bool) {
	const substeps = 11
	interval := float64(p.params.StepLengthDays)
	if interval <= 0 {
		interval = 1
	}
	h := interval / substeps
	decayRate := math.Ln2 / p.params.YStarHalfLife
	y := p.yStar
	for i := 0; i < substeps; i++ {
		growth := p.params.Alpha * totalDensity / ((p.params.YStar1 + totalDensity) * (p.params.YStar2 + y))
		dy := growth - decayRate*y
		y += dy * h
		if y < 0 {
			y = 0
		}
	}
	p.yStar = y

	pFever := stepMaxDensity / (stepMaxDensity + p.yStar)
	indirect := s.Bernoulli(p.params.IndirRiskCoFactor / (1 + ageYears/p.params.CriticalAge) * p.params.ComorbidityFactor)

	if s.Bernoulli(pFever) {
		pSevere := totalDensity / (totalDensity + p.params.SevereMalThreshold)
		if s.Bernoulli(pSevere) {
			return StateSevere, indirect
		}
		pCoinfection := p.params.ComorbIntercept / (1 + ageYears/p.params.CriticalAge) * p.params.ComorbidityFactor
		if s.Bernoulli(pCoinfection) {
			return StateCoinfection, indirect
		}
		return StateMalaria, indirect
	}
	if p.params.NMFIncidenceByAge != nil {
		rate := p.params.NMFIncidenceByAge(ageYears)
		if s.Bernoulli(rate) {
			return StateSick, indirect
		}
	}
	return StateNone, indirect
}

// MuellerParams parameterizes the Mueller pathogenesis variant.
type MuellerParams struct {
	RateMultiplier  float64
	DensityExponent float64
	YearsPerStep    float64
	SevereMalThreshold float64
	ComorbIntercept    float64
	CriticalAge        float64
	ComorbidityFactor  float64
	IndirRiskCoFactor  float64
}

// MuellerPathogenesis replaces the Pyrogen fever step with
// 1 - exp(-rateMultiplier * density^densityExponent * yearsPerStep).
type MuellerPathogenesis struct {
	params MuellerParams
}

// NewMuellerPathogenesis constructs a Mueller pathogenesis model.
func NewMuellerPathogenesis(params MuellerParams) *MuellerPathogenesis {
	return &MuellerPathogenesis{params: params}
}

// Determine implements the Mueller fever-probability variant described in
// spec.md §4.F.
func (p *MuellerPathogenesis) Determine(s *Sampler, totalDensity, stepMaxDensity, ageYears float64) (ClinicalState, bool) {
	pFever := 1 - math.Exp(-p.params.RateMultiplier*math.Pow(stepMaxDensity, p.params.DensityExponent)*p.params.YearsPerStep)
	indirect := s.Bernoulli(p.params.IndirRiskCoFactor / (1 + ageYears/p.params.CriticalAge) * p.params.ComorbidityFactor)
	if s.Bernoulli(pFever) {
		pSevere := totalDensity / (totalDensity + p.params.SevereMalThreshold)
		if s.Bernoulli(pSevere) {
			return StateSevere, indirect
		}
		pCoinfection := p.params.ComorbIntercept / (1 + ageYears/p.params.CriticalAge) * p.params.ComorbidityFactor
		if s.Bernoulli(pCoinfection) {
			return StateCoinfection, indirect
		}
		return StateMalaria, indirect
	}
	return StateNone, indirect
}

// PredeterminedParams configures the deterministic density-crossing
// variant.
type PredeterminedParams struct {
	TriggerDensity     float64
	SevereMalThreshold float64
}

// PredeterminedPathogenesis triggers episodes deterministically when
// density crosses a scheduled threshold, rather than probabilistically.
type PredeterminedPathogenesis struct {
	params    PredeterminedParams
	triggered bool
}

// NewPredeterminedPathogenesis constructs a predetermined pathogenesis
// model.
func NewPredeterminedPathogenesis(params PredeterminedParams) *PredeterminedPathogenesis {
	return &PredeterminedPathogenesis{params: params}
}

// Determine triggers a malaria or severe episode the first time density
// crosses the configured threshold.
func (p *PredeterminedPathogenesis) Determine(s *Sampler, totalDensity, stepMaxDensity, ageYears float64) (ClinicalState, bool) {
	if stepMaxDensity < p.params.TriggerDensity {
		p.triggered = false
		return StateNone, false
	}
	if p.triggered {
		return StateNone, false
	}
	p.triggered = true
	if totalDensity >= p.params.SevereMalThreshold {
		return StateSevere, false
	}
	return StateMalaria, false
}
