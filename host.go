package openmalaria

// Host is one simulated individual (spec.md §3): demography, per-host
// heterogeneity multipliers sampled once at birth, within-host parasite
// state, clinical state, active interventions, and a private RNG stream.
// Grounded on the teacher's Host type (host.go): the fields it carries for
// a single individual's simulated lineage, replaced here with the
// epidemiological state a malaria host carries.
type Host struct {
	ID     int
	DOBDay int // SimTime day of birth; negative for hosts alive at start

	// Per-host heterogeneity multipliers, sampled once at birth and held
	// fixed for the host's lifetime (spec.md §3, §4.J).
	AvailabilityFactor   float64
	ComorbidityFactor    float64
	TreatmentSeekingFactor float64
	InnateImmunityFactor float64
	BodyMassKg           float64

	WithinHost   *WithinHost
	Interventions *InterventionSet
	Clinical     ClinicalModel

	LastEpisode EpisodeRecord

	cumulativeInfections int
	cumulativeEpisodes   int

	rng *Sampler

	alive bool

	// SubPop names the sub-population this host belongs to, for targeted
	// intervention deployment (spec.md §4.K); empty means "everyone".
	SubPop string

	deployedSchedules map[int]bool
}

// HostBirthParams bundles the scenario-level distributions needed to
// sample a new host's per-host heterogeneity factors (spec.md §3/§4.J).
type HostBirthParams struct {
	AvailabilityCV    float64
	ComorbidityCV     float64
	TreatmentSeekingCV float64
	InnateImmunityCV  float64
	MeanBodyMassKg    float64
}

// NewHost constructs a Host born on day dobDay, deriving its private RNG
// stream from masterSeed and id (spec.md §4.A, per-host stream
// reproducibility) and sampling its lifetime heterogeneity factors.
func NewHost(masterSeed uint32, id int, dobDay int, params HostBirthParams, model InfectionModel, whParams WithinHostParams, clinical ClinicalModel) *Host {
	rng := NewSampler(masterSeed, id)
	h := &Host{
		ID:                     id,
		DOBDay:                 dobDay,
		AvailabilityFactor:     sampleHetFactor(rng, params.AvailabilityCV),
		ComorbidityFactor:      sampleHetFactor(rng, params.ComorbidityCV),
		TreatmentSeekingFactor: sampleHetFactor(rng, params.TreatmentSeekingCV),
		InnateImmunityFactor:   sampleHetFactor(rng, params.InnateImmunityCV),
		BodyMassKg:             params.MeanBodyMassKg,
		Interventions:          NewInterventionSet(),
		Clinical:               clinical,
		rng:                    rng,
		alive:                  true,
		deployedSchedules:      make(map[int]bool),
	}
	h.WithinHost = NewWithinHost(whParams, model, h.BodyMassKg)
	return h
}

func sampleHetFactor(s *Sampler, cv float64) float64 {
	if cv <= 0 {
		return 1
	}
	return NewLognormalSamplerCV(1, cv).Sample(s)
}

// AgeYears returns the host's age in years on simulation day now.
func (h *Host) AgeYears(now int) float64 {
	return float64(now-h.DOBDay) / DaysPerYear
}

// Alive reports whether the host has not yet died.
func (h *Host) Alive() bool { return h.alive }

// Kill marks the host dead (from old age, indirect mortality, or severe
// case fatality, spec.md §4.L).
func (h *Host) Kill() { h.alive = false }

// RNG returns the host's private sampling stream.
func (h *Host) RNG() *Sampler { return h.rng }

// ScheduleDeployed reports whether deployment schedule index idx has already
// fired for this host, so a continuous-age trigger only ever applies once.
func (h *Host) ScheduleDeployed(idx int) bool { return h.deployedSchedules[idx] }

// MarkScheduleDeployed records that deployment schedule index idx has fired
// for this host.
func (h *Host) MarkScheduleDeployed(idx int) { h.deployedSchedules[idx] = true }

// Step advances the host by one simulation day: inoculation from the
// day's EIR, within-host update, morbidity determination, and clinical
// case management (spec.md §4.L's per-host step ordering). Returns
// whether the host became doomed (indirect or case-fatality death) and
// the scheduled delay in days before death takes effect.
func (h *Host) Step(now int, eir float64, importRate float64, genotypes *GenotypeRegistry, genotypeWeights []float64, pathogenesis Pathogenesis, sink MonitoringSink, surveyPeriod, ageGroup int) (doomed bool, deathDelay int) {
	if !h.alive {
		return false, 0
	}
	ageYears := h.AgeYears(now)

	h.Interventions.AdvanceDaily(h.rng, now)

	pevSurvival, bsvSurvival := h.Interventions.VaccineSurvival(now)
	_, preprandial, _ := h.Interventions.VectorialReduction(now)
	effectiveEIR := eir * h.AvailabilityFactor * preprandial

	nNewIndigenous := h.rng.Poisson(effectiveEIR)
	nNewImported := h.rng.Poisson(importRate)

	h.WithinHost.Update(h.rng, now, nNewIndigenous, nNewImported, genotypes, genotypeWeights, ageYears, pevSurvival, bsvSurvival, h.InnateImmunityFactor)
	if nNewIndigenous > 0 {
		h.cumulativeInfections += nNewIndigenous
	}
	if nNewImported > 0 {
		h.cumulativeInfections += nNewImported
	}

	if h.Clinical == nil || pathogenesis == nil {
		return false, 0
	}
	state, indirect := h.WithinHost.DetermineMorbidity(h.rng, pathogenesis, ageYears)
	if state == StateNone {
		return false, 0
	}
	h.cumulativeEpisodes++
	h.LastEpisode = EpisodeRecord{State: state, SurveyPeriod: surveyPeriod, AgeGroup: ageGroup, OnsetDay: now}

	doomed, deathDelay = h.Clinical.HandleEpisode(h.rng, now, state, indirect, ageYears, h.WithinHost, sink, surveyPeriod, ageGroup)
	if doomed {
		sink.Increment(MeasureIndirectDeaths, surveyPeriod, ageGroup, -1, 1)
	}
	return doomed, deathDelay
}
