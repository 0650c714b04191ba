package openmalaria

import "math"

// EmpiricalMaxDurationDays is the tabulation bound for age-specific
// autoregressive parameters (spec.md §4.D.2, _maximumDurationInDays).
const EmpiricalMaxDurationDays = 418

// EmpiricalAgeParams holds the per-day-of-infection autoregressive
// intercept and residual variance used by the empirical model.
type EmpiricalAgeParams struct {
	Intercept    float64
	ResidualVar  float64
	AR1, AR2, AR3 float64
}

// EmpiricalModel is the 1-day autoregressive infection model: state is the
// last three log-densities, updated daily by an age-tabulated AR(3)
// process with patent/sub-patent continuity at a configured threshold.
// Grounded on the teacher's per-id tabulated-parameter pattern
// (fitness_model_matrix.go's matrix[site][state] lookup), applied to a
// per-day-of-infection table instead of a per-site one.
type EmpiricalModel struct {
	params             []EmpiricalAgeParams // indexed by age-in-days, length EmpiricalMaxDurationDays
	subPatentThreshold float64
	inflationMean      float64
	inflationVar       float64
	extinctionLevel    float64
}

// NewEmpiricalModel builds an empirical model from its age-tabulated
// parameters and the sub-patent/inflation/extinction configuration.
func NewEmpiricalModel(params []EmpiricalAgeParams, subPatentThreshold, inflationMean, inflationVar, extinctionLevel float64) *EmpiricalModel {
	return &EmpiricalModel{
		params:             params,
		subPatentThreshold: subPatentThreshold,
		inflationMean:      inflationMean,
		inflationVar:       inflationVar,
		extinctionLevel:    extinctionLevel,
	}
}

type empiricalInfection struct {
	baseInfection
	m        *EmpiricalModel
	lag1, lag2, lag3 float64 // most recent log-densities, lag1 = yesterday
}

// Create constructs a new empirical-model infection with zeroed AR lags.
func (m *EmpiricalModel) Create(s *Sampler, genotype int, origin InfectionOrigin, hrp2Deficient bool) Infection {
	return &empiricalInfection{
		baseInfection: baseInfection{genotype: genotype, origin: origin, hrp2Deficient: hrp2Deficient},
		m:             m,
	}
}

// Update advances the infection by one day.
func (inf *empiricalInfection) Update(s *Sampler, immunitySurvival, innateFactor, bsvFactor, bodyMass float64, cumH int) bool {
	inf.ageDays++
	if !inf.BloodStage() {
		inf.density = 0
		inf.stepMaxDensity = 0
		return false
	}
	idx := inf.ageDays - LatentPeriodDays
	if idx >= len(inf.m.params) {
		idx = len(inf.m.params) - 1
	}
	if idx >= EmpiricalMaxDurationDays-LatentPeriodDays {
		inf.expired = true
		inf.density = 0
		return true
	}
	p := inf.m.params[idx]
	mean := p.Intercept + p.AR1*inf.lag1 + p.AR2*inf.lag2 + p.AR3*inf.lag3
	sigma := math.Sqrt(math.Max(p.ResidualVar, 0))

	logThreshold := math.Log(inf.m.subPatentThreshold)
	var logDensity float64
	if mean < logThreshold {
		// Sub-patent branch: truncate above the threshold for continuity.
		logDensity = math.Min(s.Gauss(mean, sigma), logThreshold)
	} else {
		// Patent branch: truncate below the threshold.
		logDensity = math.Max(s.Gauss(mean, sigma), logThreshold)
	}

	inflation := s.LogNormal(math.Log(inf.m.inflationMean)-inf.m.inflationVar/2, math.Sqrt(inf.m.inflationVar))
	raw := math.Exp(logDensity) * inflation
	inf.density = inf.applyFactors(raw, immunitySurvival, innateFactor, bsvFactor)
	inf.stepMaxDensity = inf.density
	inf.cumExposureJ += inf.density

	inf.lag3, inf.lag2, inf.lag1 = inf.lag2, inf.lag1, logDensity

	if inf.density < inf.m.extinctionLevel {
		inf.expired = true
		return true
	}
	return false
}
