package openmalaria

import "math"

// DescriptiveNumDurations is the hard-coded maximum number of 5-day time
// steps an infection under the descriptive model may last (spec.md
// §4.D.1, numDurations = 84).
const DescriptiveNumDurations = 84

// DescriptiveExtinctionThreshold is the default density below which a
// descriptive-model infection is flagged extinct (spec.md §4.D.1).
const DescriptiveExtinctionThreshold = 0.1

// DescriptiveModel is the 5-day descriptive infection model: a precomputed
// triangular matrix of expected log-density by (age-step, duration-step),
// sampled around with step-scaled noise. Grounded on the teacher's
// fitness-model-by-lookup-matrix idiom (fitness_model_matrix.go), applied
// here to a density curve instead of a fitness surface.
type DescriptiveModel struct {
	// meanLogParasiteCount[age][duration] gives expected log density for an
	// infection of the given duration (in steps) at the given age (in
	// steps). Ages >= duration are zero (infection has expired).
	meanLogParasiteCount [][]float64
	durationMu, durationSigma float64 // log-normal params for total duration
	sigma0Sq, xNuStar         float64 // variance model: sigma^2 = sigma0Sq/(1+cumH/xNuStar)
	extinctionThreshold       float64
}

// NewDescriptiveModel builds a descriptive model from a fitted triangular
// mean-log-density matrix and duration/variance parameters.
func NewDescriptiveModel(meanLogParasiteCount [][]float64, durationMu, durationSigma, sigma0Sq, xNuStar float64) *DescriptiveModel {
	threshold := DescriptiveExtinctionThreshold
	return &DescriptiveModel{
		meanLogParasiteCount: meanLogParasiteCount,
		durationMu:           durationMu,
		durationSigma:        durationSigma,
		sigma0Sq:             sigma0Sq,
		xNuStar:              xNuStar,
		extinctionThreshold:  threshold,
	}
}

type descriptiveInfection struct {
	baseInfection
	m              *DescriptiveModel
	durationSteps  int
	ageSteps       int
}

// Create constructs a new descriptive-model infection, sampling its total
// duration from the fitted log-normal distribution, bounded by
// DescriptiveNumDurations.
func (m *DescriptiveModel) Create(s *Sampler, genotype int, origin InfectionOrigin, hrp2Deficient bool) Infection {
	dur := int(math.Ceil(s.LogNormal(m.durationMu, m.durationSigma)))
	if dur > DescriptiveNumDurations {
		dur = DescriptiveNumDurations
	}
	if dur < 1 {
		dur = 1
	}
	return &descriptiveInfection{
		baseInfection: baseInfection{genotype: genotype, origin: origin, hrp2Deficient: hrp2Deficient},
		m:             m,
		durationSteps: dur,
	}
}

// Update advances the infection by one 5-day step. The returned bool is the
// extinction flag.
func (inf *descriptiveInfection) Update(s *Sampler, immunitySurvival, innateFactor, bsvFactor, bodyMass float64, cumH int) bool {
	inf.ageDays += 5
	if !inf.BloodStage() {
		inf.density = 0
		inf.stepMaxDensity = 0
		return false
	}
	if inf.ageSteps >= inf.durationSteps || inf.ageSteps >= len(inf.m.meanLogParasiteCount) {
		inf.expired = true
		inf.density = 0
		inf.stepMaxDensity = 0
		return true
	}
	sigmaSq := inf.m.sigma0Sq / (1 + float64(cumH)/inf.m.xNuStar)
	sigma := math.Sqrt(math.Max(sigmaSq, 0))
	mu := inf.meanLog()

	eps := s.Gauss(0, sigma)
	raw := math.Exp(mu + eps)
	inf.density = inf.applyFactors(raw, immunitySurvival, innateFactor, bsvFactor)
	inf.cumExposureJ += inf.density * 5

	// Time-step max density: simulate five intermediate daily densities
	// using the same mean curve and report their maximum, since
	// pathogenesis was calibrated on daily maxima (spec.md §4.D.1).
	maxDaily := 0.0
	for day := 0; day < 5; day++ {
		dailyEps := s.Gauss(0, sigma)
		dailyRaw := math.Exp(mu + dailyEps)
		dailyDensity := inf.applyFactors(dailyRaw, immunitySurvival, innateFactor, bsvFactor)
		if dailyDensity > maxDaily {
			maxDaily = dailyDensity
		}
	}
	inf.stepMaxDensity = maxDaily

	inf.ageSteps++
	if inf.density < inf.m.extinctionThreshold || inf.ageSteps >= inf.durationSteps {
		inf.expired = true
		return true
	}
	return false
}

func (inf *descriptiveInfection) meanLog() float64 {
	row := inf.m.meanLogParasiteCount[inf.ageSteps]
	idx := inf.durationSteps
	if idx >= len(row) {
		idx = len(row) - 1
	}
	return row[idx]
}
