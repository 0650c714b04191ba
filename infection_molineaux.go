package openmalaria

import "math"

// MolineauxNumVariants is the fixed number of antigenic variants per
// infection (spec.md §4.D.3, v = 50).
const MolineauxNumVariants = 50

// MolineauxModel is the 1-day variant-switching infection model: each
// infection instantiates MolineauxNumVariants antigenic variants with
// independent growth multipliers and lagged-density immune summations,
// switching on over a fixed schedule. Grounded on the teacher's
// per-infection owned-collection pattern (SequenceHost owning its
// pathogens), applied here to a fixed-size owned variant array.
type MolineauxModel struct {
	initialMultiplier []float64 // per-variant baseline growth multiplier, length MolineauxNumVariants
	switchDay         []int     // day-of-infection each variant switches on, length MolineauxNumVariants
	pCMean, pCCV      float64   // variant-transcending critical density sampler
	pMMean, pMCV      float64   // variant-specific critical density sampler
	initialDensity    float64
}

// NewMolineauxModel builds a Molineaux model from the published variant
// schedule and per-host critical-density samplers.
func NewMolineauxModel(initialMultiplier []float64, switchDay []int, pCMean, pCCV, pMMean, pMCV, initialDensity float64) *MolineauxModel {
	return &MolineauxModel{
		initialMultiplier: initialMultiplier,
		switchDay:         switchDay,
		pCMean:            pCMean,
		pCCV:              pCCV,
		pMMean:            pMMean,
		pMCV:              pMCV,
		initialDensity:    initialDensity,
	}
}

type molineauxVariant struct {
	density    float64
	multiplier float64
	lagged     [4]float64 // 4-slot lagged-density ring for immune summations
	lagPos     int
	active     bool
}

type molineauxInfection struct {
	baseInfection
	m         *MolineauxModel
	variants  [MolineauxNumVariants]molineauxVariant
	pCritical float64 // P*_c, variant-transcending critical density
	pMCrit    float64 // P*_m, variant-specific critical density
	transcendingSum float64
	dayInCycle      int // 0 or 1 within the 2-day update cycle
}

// Create constructs a new Molineaux infection: variant 0 starts active at
// the configured initial density, the host-specific critical densities are
// sampled, and the remaining variants switch on per the fixed schedule.
func (m *MolineauxModel) Create(s *Sampler, genotype int, origin InfectionOrigin, hrp2Deficient bool) Infection {
	inf := &molineauxInfection{
		baseInfection: baseInfection{genotype: genotype, origin: origin, hrp2Deficient: hrp2Deficient},
		m:             m,
	}
	pcSampler := NewLognormalSamplerCV(m.pCMean, m.pCCV)
	pmSampler := NewLognormalSamplerCV(m.pMMean, m.pMCV)
	inf.pCritical = pcSampler.Sample(s)
	inf.pMCrit = pmSampler.Sample(s)
	for i := 0; i < MolineauxNumVariants; i++ {
		inf.variants[i].multiplier = m.initialMultiplier[i]
	}
	inf.variants[0].active = true
	inf.variants[0].density = m.initialDensity
	return inf
}

// Update advances the infection. The Molineaux model updates every 2 days;
// on the off-day it reports the density unchanged.
func (inf *molineauxInfection) Update(s *Sampler, immunitySurvival, innateFactor, bsvFactor, bodyMass float64, cumH int) bool {
	inf.ageDays++
	if !inf.BloodStage() {
		inf.density = 0
		inf.stepMaxDensity = 0
		return false
	}
	inf.activateScheduled()
	inf.dayInCycle++
	if inf.dayInCycle < 2 {
		inf.stepMaxDensity = inf.density
		return false
	}
	inf.dayInCycle = 0

	total := 0.0
	for i := range inf.variants {
		v := &inf.variants[i]
		if !v.active {
			continue
		}
		laggedSum := v.lagged[0] + v.lagged[1] + v.lagged[2] + v.lagged[3]
		variantImmune := sigmoid(laggedSum / inf.pMCrit)
		transcendingImmune := sigmoid(inf.transcendingSum / inf.pCritical)
		combinedSurvival := (1 - variantImmune) * (1 - transcendingImmune)

		next := v.density * v.multiplier * combinedSurvival
		if next < 0 {
			next = 0
		}
		v.lagged[v.lagPos] = v.density
		v.lagPos = (v.lagPos + 1) % 4
		v.density = next
		total += next
	}
	inf.transcendingSum = total

	raw := math.Min(total, MaxDensity)
	inf.density = inf.applyFactors(raw, immunitySurvival, innateFactor, bsvFactor)
	inf.stepMaxDensity = inf.density
	inf.cumExposureJ += inf.density * 2

	if inf.density < 1 {
		inf.expired = true
		return true
	}
	return false
}

func (inf *molineauxInfection) activateScheduled() {
	for i, day := range inf.m.switchDay {
		if i == 0 {
			continue // variant 0 starts active at creation
		}
		if !inf.variants[i].active && inf.ageDays >= day {
			inf.variants[i].active = true
			inf.variants[i].density = 1
		}
	}
}

func sigmoid(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x * x / (1 + x*x)
}
