package openmalaria

import "math"

// DaysPerYear is the annual ring-buffer length used by the emergence
// sub-models (spec.md §4.H).
const DaysPerYear = 365

// EmergenceModel produces a daily mosquito emergence rate N_v0 for a
// single anopheline species (spec.md §4.H). Grounded on the teacher's
// multiple-implementations-behind-one-interface idiom.
type EmergenceModel interface {
	// Emergence returns N_v0 for day dayOfYear (0-based), given today's
	// ovipositing count (used only by the simple-MPD variant).
	Emergence(dayOfYear int, ovipositing float64) float64
	// ScaleBy rescales the model's emergence output by factor, used by the
	// pre-init warm-up's iterative S_v-matching loop.
	ScaleBy(factor float64)
}

// ForcedEmergence is the Fourier-fitted forced emergence model (spec.md
// §4.H.1): an annual emergence-rate vector, optionally attenuated by a
// larviciding window.
type ForcedEmergence struct {
	rate              [DaysPerYear]float64
	larvicideStart    int
	larvicideEnd      int
	larvicideFactor   float64 // 1 = no effect
}

// NewForcedEmergence expands mosqEmergeRate from Fourier coefficients
// a0 + sum_k(a_k*cos(2*pi*k*d/365) + b_k*sin(2*pi*k*d/365)).
func NewForcedEmergence(a0 float64, aCoeff, bCoeff []float64) *ForcedEmergence {
	f := &ForcedEmergence{larvicideFactor: 1}
	for d := 0; d < DaysPerYear; d++ {
		v := a0
		for k := range aCoeff {
			angle := 2 * math.Pi * float64(k+1) * float64(d) / DaysPerYear
			v += aCoeff[k]*math.Cos(angle) + bCoeff[k]*math.Sin(angle)
		}
		if v < 0 {
			v = 0
		}
		f.rate[d] = v
	}
	return f
}

// SetLarviciding configures a multiplicative emergence reduction over
// [start, end) days-of-year.
func (f *ForcedEmergence) SetLarviciding(start, end int, factor float64) {
	f.larvicideStart, f.larvicideEnd, f.larvicideFactor = start, end, factor
}

// Emergence returns the Fourier-fitted rate for dayOfYear, attenuated by
// larviciding if configured for that day.
func (f *ForcedEmergence) Emergence(dayOfYear int, _ float64) float64 {
	v := f.rate[dayOfYear%DaysPerYear]
	if f.larvicideEnd > f.larvicideStart && dayOfYear >= f.larvicideStart && dayOfYear < f.larvicideEnd {
		v *= f.larvicideFactor
	}
	return v
}

// ScaleBy multiplies every day's rate by factor (the pre-init warm-up's
// observed/target S_v rescaling, spec.md §4.L).
func (f *ForcedEmergence) ScaleBy(factor float64) {
	for d := range f.rate {
		f.rate[d] *= factor
	}
}

// RotatePhase shifts the annual profile by shiftDays, used alongside
// ScaleBy during steady-state matching.
func (f *ForcedEmergence) RotatePhase(shiftDays int) {
	var rotated [DaysPerYear]float64
	for d := 0; d < DaysPerYear; d++ {
		src := ((d+shiftDays)%DaysPerYear + DaysPerYear) % DaysPerYear
		rotated[d] = f.rate[src]
	}
	f.rate = rotated
}

// SimpleMPD extends ForcedEmergence with density-dependent larval
// resources (spec.md §4.H.2).
type SimpleMPD struct {
	developmentDays int     // D: egg-to-adult duration
	eggSurvival     float64 // p: egg-stage survival probability
	femaleEggsPerOviposit float64
	invLarvalResources [DaysPerYear]float64 // 1/K(d)
	ovipositingDelayed []float64            // ring buffer, length developmentDays
	pos                int
	larvicideStart, larvicideEnd int
	larvicideFactor    float64
}

// NewSimpleMPD builds a simple-MPD emergence model; invLarvalResources is
// typically initialized by the resource fitter (§4.N).
func NewSimpleMPD(developmentDays int, eggSurvival, femaleEggsPerOviposit float64, invLarvalResources [DaysPerYear]float64) *SimpleMPD {
	return &SimpleMPD{
		developmentDays:       developmentDays,
		eggSurvival:           eggSurvival,
		femaleEggsPerOviposit: femaleEggsPerOviposit,
		invLarvalResources:    invLarvalResources,
		ovipositingDelayed:    make([]float64, developmentDays),
		larvicideFactor:       1,
	}
}

// SetLarviciding configures a multiplicative emergence reduction over
// [start, end) days-of-year.
func (m *SimpleMPD) SetLarviciding(start, end int, factor float64) {
	m.larvicideStart, m.larvicideEnd, m.larvicideFactor = start, end, factor
}

// Emergence implements spec.md §4.H.2's daily update:
//
//	emergence_today = f(nOvipositingDelayed[d-D]) * invLarvalResources[d]
//	f(O) = p*fEggsLaidByOviposit*O / (1 + O*invLarvalResources[d])
//
// then shifts the delayed-ovipositing ring buffer and pushes O.
func (m *SimpleMPD) Emergence(dayOfYear int, ovipositing float64) float64 {
	invK := m.invLarvalResources[dayOfYear%DaysPerYear]
	delayed := m.ovipositingDelayed[m.pos]
	f := m.eggSurvival * m.femaleEggsPerOviposit * delayed / (1 + delayed*invK)
	emergence := f * invK

	m.ovipositingDelayed[m.pos] = ovipositing
	m.pos = (m.pos + 1) % m.developmentDays

	if m.larvicideEnd > m.larvicideStart && dayOfYear >= m.larvicideStart && dayOfYear < m.larvicideEnd {
		emergence *= m.larvicideFactor
	}
	if emergence < 0 {
		emergence = 0
	}
	return emergence
}

// ScaleBy multiplies invLarvalResources by factor (so the larval resources
// themselves scale by 1/factor) so that emergence scales by factor (since emergence is proportional to invLarvalResources at
// fixed ovipositing input).
func (m *SimpleMPD) ScaleBy(factor float64) {
	for d := range m.invLarvalResources {
		m.invLarvalResources[d] *= factor
	}
}
