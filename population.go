package openmalaria

import (
	"fmt"
	"math"
)

// PopulationParams configure the host population and its demography
// (spec.md §4.L).
type PopulationParams struct {
	Size            int
	MaxAgeYears     float64
	MasterSeed      uint32
	BirthParams     HostBirthParams
	WithinHostParams WithinHostParams
	InfectionModel  InfectionModel
	Clinical        ClinicalModel
	Pathogenesis    Pathogenesis
	Genotypes       *GenotypeRegistry
	GenotypeWeights []float64
	Sink            MonitoringSink
	SurveyPeriodDays int

	// PreInitYears/InitYears bound the two warm-up phases; MainYears bounds
	// the surveyed main phase, all in simulated years (spec.md §4.L).
	PreInitYears int
	InitYears    int
	MainYears    int

	// ImportRatePerDay is the per-host-independent daily rate at which
	// hosts acquire infections from outside the simulated population,
	// derived from ImportRatePer1000PerYear (spec.md §4.L).
	ImportRatePerDay float64
}

// Phase identifies one of the three scheduler phases (spec.md §4.L).
type Phase int

const (
	PhasePreInit Phase = iota
	PhaseInit
	PhaseMain
)

// Population owns the host roster, the vector side, and the scheduler
// state machine. Grounded on the teacher's Simulation/Population driver
// shape in contagion_simulation.go: a fixed host slice, a Step method
// advancing one day, and a run loop bounded by configured phase lengths.
type Population struct {
	params  PopulationParams
	hosts   []*Host
	species []*VectorPopulation
	speciesParams []VectorSpeciesParams
	speciesHV     [][]HostVectorParams // [host][species]

	schedules []DeploymentSchedule

	day   int
	phase Phase

	nextHostID int
	genRNG     *Sampler // population-level stream for initial host ages
}

// SetInterventions installs the deployment schedules the scheduler checks
// each day (spec.md §4.K/§4.L); call before Run.
func (p *Population) SetInterventions(schedules []DeploymentSchedule) {
	p.schedules = schedules
}

// NewPopulation constructs a population of params.Size hosts with ages
// drawn uniformly over [0, MaxAgeYears), and one VectorPopulation per
// configured species.
func NewPopulation(params PopulationParams, speciesParams []VectorSpeciesParams, emergence []EmergenceModel) (*Population, error) {
	if params.Size <= 0 {
		return nil, NewScenarioError(fmt.Errorf("population size must be positive, got %d", params.Size))
	}
	if len(speciesParams) != len(emergence) {
		return nil, NewScenarioError(fmt.Errorf("expected one emergence model per species (%d), got %d", len(speciesParams), len(emergence)))
	}
	p := &Population{
		params:        params,
		speciesParams: speciesParams,
		genRNG:        NewSampler(params.MasterSeed, -1),
	}
	for i, sp := range speciesParams {
		p.species = append(p.species, NewVectorPopulation(sp, emergence[i]))
	}
	p.hosts = make([]*Host, 0, params.Size)
	for i := 0; i < params.Size; i++ {
		ageYears := p.genRNG.Uniform01() * params.MaxAgeYears
		dob := -int(ageYears * DaysPerYear)
		p.addHost(dob)
	}
	p.speciesHV = make([][]HostVectorParams, len(p.hosts))
	for i := range p.hosts {
		p.speciesHV[i] = make([]HostVectorParams, len(speciesParams))
		for j, sp := range speciesParams {
			availability := sampleHetFactor(p.hosts[i].RNG(), 0.3)
			p.speciesHV[i][j] = SampleHostVectorParams(p.hosts[i].RNG(), sp, availability)
		}
	}
	return p, nil
}

func (p *Population) addHost(dob int) *Host {
	h := NewHost(p.params.MasterSeed, p.nextHostID, dob, p.params.BirthParams, p.params.InfectionModel, p.params.WithinHostParams, p.params.Clinical)
	p.nextHostID++
	p.hosts = append(p.hosts, h)
	return h
}

// Phase returns the scheduler's current phase.
func (p *Population) Phase() Phase { return p.phase }

// Day returns the current simulation day.
func (p *Population) Day() int { return p.day }

// Run executes the full pre-init/init/main schedule (spec.md §4.L):
//  1. Pre-init: vector-only, no hosts, until the vector ring buffers reach
//     a stable annual cycle (fixed iteration count here, matching the
//     teacher's fixed-burn-in-then-check pattern).
//  2. Init: hosts active, monitoring suppressed (NullMonitoringSink),
//     establishing pre-patent/immune steady state.
//  3. Main: hosts active, monitoring enabled; every counter is keyed by
//     survey period (day / SurveyPeriodDays). No separate per-survey pass
//     runs: the scheduler never calls WithinHost.Summarize.
func (p *Population) Run() error {
	preInitDays := p.params.PreInitYears * DaysPerYear
	initDays := p.params.InitYears * DaysPerYear
	mainDays := p.params.MainYears * DaysPerYear

	p.phase = PhasePreInit
	for i := 0; i < preInitDays; i++ {
		if err := p.stepVectorOnly(); err != nil {
			return err
		}
	}

	p.phase = PhaseInit
	realSink := p.params.Sink
	p.params.Sink = NullMonitoringSink{}
	for i := 0; i < initDays; i++ {
		if err := p.stepDay(); err != nil {
			p.params.Sink = realSink
			return err
		}
	}
	p.params.Sink = realSink

	p.phase = PhaseMain
	for i := 0; i < mainDays; i++ {
		if err := p.stepDay(); err != nil {
			return err
		}
	}
	return nil
}

// stepVectorOnly advances only the vector side, with zero human biting
// input (no hosts present yet), per spec.md §4.L's pre-init phase.
func (p *Population) stepVectorOnly() error {
	dayOfYear := p.day % DaysPerYear
	for i, vp := range p.species {
		agg := NewPopulationBitingAggregate()
		pA, pDf, pDif, pDff := agg.BitingProbabilities(p.speciesParams[i])
		vp.Update(dayOfYear, pA, pDf, pDif, pDff)
	}
	p.day++
	return p.checkNumerical()
}

// stepDay advances the full system by one day: vector aggregation from
// current host state, vector update, per-host EIR delivery and within-host
// update, then deaths (spec.md §4.L's per-step ordering). A host that is
// doomed or has reached MaxAgeYears is killed on that same day; the death
// delay returned by Host.Step is not applied. Dead hosts stay in the roster
// and no new-borns are added.
func (p *Population) stepDay() error {
	p.applyInterventions(p.day)

	dayOfYear := p.day % DaysPerYear
	surveyPeriod := p.day / p.surveyPeriodDays()
	eirPerSpecies := make([]float64, len(p.species))

	for si, vp := range p.species {
		agg := NewPopulationBitingAggregate()
		for hi, h := range p.hosts {
			if !h.Alive() {
				continue
			}
			deterrency, _, _ := h.Interventions.VectorialReduction(p.day)
			probTransmit, _ := h.WithinHost.ProbTransmissionToMosquito(p.params.Genotypes.IDs(), h.Interventions.TBVFactor(p.day))
			agg.AddHost(p.speciesHV[hi][si], deterrency, probTransmit)
		}
		pA, pDf, pDif, pDff := agg.BitingProbabilities(p.speciesParams[si])
		vp.Update(dayOfYear, pA, pDf, pDif, pDff)
		eirPerSpecies[si] = vp.EIR(p.speciesParams[si].ProbFeedingSurvival)
	}

	var totalEIR float64
	for _, e := range eirPerSpecies {
		totalEIR += e
	}
	p.params.Sink.IncrementReal(MeasureEIR, surveyPeriod, -1, -1, totalEIR)

	for _, h := range p.hosts {
		if !h.Alive() {
			continue
		}
		ageGroup := ageGroupOf(h.AgeYears(p.day))
		doomed, _ := h.Step(p.day, totalEIR, p.params.ImportRatePerDay, p.params.Genotypes, p.params.GenotypeWeights, p.params.Pathogenesis, p.params.Sink, surveyPeriod, ageGroup)
		if doomed || h.AgeYears(p.day) >= p.params.MaxAgeYears {
			h.Kill()
		}
	}

	p.day++
	return p.checkNumerical()
}

// applyInterventions is the first per-step scheduler action (spec.md
// §4.L): timed deployments fire on an exact day match against TimedDays,
// then continuous-age deployments fire once per host on entering the
// configured age window; both gate on a per-host Bernoulli(Coverage) draw,
// restricted to hosts in the schedule's sub-population (if any).
func (p *Population) applyInterventions(now int) {
	for idx, sched := range p.schedules {
		switch sched.Trigger {
		case DeployTimed:
			if !containsDay(sched.TimedDays, now) {
				continue
			}
			for _, h := range p.hosts {
				if !h.Alive() || !subPopMatches(h, sched) {
					continue
				}
				if h.RNG().Bernoulli(sched.Coverage) {
					h.Interventions.Deploy(h.RNG(), now, sched)
				}
			}
		case DeployContinuousAge:
			for _, h := range p.hosts {
				if !h.Alive() || !subPopMatches(h, sched) || h.ScheduleDeployed(idx) {
					continue
				}
				ageYears := h.AgeYears(now)
				if ageYears < sched.MinAgeYears || ageYears >= sched.MaxAgeYears {
					continue
				}
				h.MarkScheduleDeployed(idx)
				if h.RNG().Bernoulli(sched.Coverage) {
					h.Interventions.Deploy(h.RNG(), now, sched)
				}
			}
		}
	}
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// subPopMatches reports whether host h is eligible for sched's configured
// sub-population restriction; an empty SubPop targets the whole population.
func subPopMatches(h *Host, sched DeploymentSchedule) bool {
	return sched.SubPop == "" || sched.SubPop == h.SubPop
}

func (p *Population) surveyPeriodDays() int {
	if p.params.SurveyPeriodDays <= 0 {
		return DaysPerYear
	}
	return p.params.SurveyPeriodDays
}

// checkNumerical enforces the I-VEC-NONNEG invariant and the strict
// fail-fast policy of spec.md §7: any non-finite vector state is a fatal
// numerical error, never silently clamped beyond the ring buffer's own
// extinction threshold.
func (p *Population) checkNumerical() error {
	for i, vp := range p.species {
		for _, x := range []float64{vp.Nv(), vp.Ov(), vp.Sv()} {
			if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
				return NewNumericalError(fmt.Errorf("species %d vector state went non-finite or negative (%f) on day %d", i, x, p.day))
			}
		}
	}
	return nil
}

// ageGroupOf buckets an age in years into the 5-year-wide survey age
// groups used throughout spec.md §6.3's monitoring output.
func ageGroupOf(ageYears float64) int {
	if ageYears < 0 {
		ageYears = 0
	}
	return int(ageYears / 5)
}
