package openmalaria

// InterventionKind identifies one of the six intervention component
// types a host can carry (spec.md §4.K).
type InterventionKind int

const (
	InterventionITN InterventionKind = iota
	InterventionIRS
	InterventionGVI
	InterventionVaccinePEV
	InterventionVaccineBSV
	InterventionVaccineTBV
)

// DeploymentTrigger distinguishes calendar-timed mass deployment from
// continuous age-based deployment (spec.md §4.K).
type DeploymentTrigger int

const (
	DeployTimed DeploymentTrigger = iota
	DeployContinuousAge
)

// DeploymentSchedule describes one configured intervention rollout.
type DeploymentSchedule struct {
	Kind          InterventionKind
	Trigger       DeploymentTrigger
	Coverage      float64 // fraction of eligible hosts/sub-population
	TimedDays     []int   // SimTime days, used when Trigger == DeployTimed
	MinAgeYears   float64 // used when Trigger == DeployContinuousAge
	MaxAgeYears   float64
	Decay         *DecayFunc
	HeterogeneityCV float64 // 0 disables per-host heterogeneity sampling
	Effect        InterventionEffect
	SubPop        string // empty means whole population

	// ITN hole/rip degradation (spec.md §4.K.1): log-normal mean/CV for the
	// per-day new-hole and existing-hole-enlargement (rip) Poisson rates.
	// A non-positive HoleRateMean disables the degradation model entirely.
	HoleRateMean     float64
	HoleRateCV       float64
	RipRateMean      float64
	RipRateCV        float64
	RipFactor        float64 // hole-index increment contributed per rip
	DisposalMeanDays float64 // mean of the log-normal net-disposal time; <=0 means never discarded

	// Vaccine dosing (spec.md §4.K.2): a schedule of up to VaccineDoses
	// doses spaced DoseIntervalDays apart, each dose's initial efficacy an
	// independent beta(DoseEfficacyBetaAlpha, DoseEfficacyBetaBeta) draw.
	// A non-positive alpha/beta falls back to Effect.InitialEfficacy for
	// every dose.
	VaccineDoses          int
	DoseIntervalDays      int
	DoseEfficacyBetaAlpha float64
	DoseEfficacyBetaBeta  float64

	// InsecticideContentCV is the coefficient of variation of the
	// per-deployment IRS insecticide-content multiplier (spec.md §4.K.3); a
	// non-positive value disables the multiplier (content fixed at 1).
	InsecticideContentCV float64
}

// InterventionEffect carries the efficacy parameters of a deployed
// component, resolved once at load (spec.md §4.K): a closed set rather
// than an interface hierarchy, mirroring decay.go's DecayFunc and the
// teacher's axis-as-struct-field idiom.
type InterventionEffect struct {
	// ITN / IRS / GVI: multiplicative reductions applied to the vectorial
	// availability/biting/resting computation (host_vector_params.go).
	DeterrencyReduction     float64
	PreprandialKillingProb  float64
	PostprandialKillingProb float64

	// Vaccines: PEV blocks inoculation, BSV reduces blood-stage survival,
	// TBV reduces transmission-to-mosquito probability.
	InitialEfficacy float64
}

// HostIntervention is one active deployment instance on a host: the
// deployment day, the per-host heterogeneity-sampled decay factor, and
// (when the kind calls for it) the stateful ITN/vaccine/IRS dynamics that
// modulate the decay-function efficacy (spec.md §4.K).
type HostIntervention struct {
	Kind      InterventionKind
	DeployDay int
	Decay     *DecayFunc
	Het       DecayHeterogeneity
	Effect    InterventionEffect
	Sched     DeploymentSchedule

	ITN     *ITNState
	Vaccine *VaccineState
	IRS     *IRSState
}

// itnNeverDisposed is the sentinel DisposalDay for an ITN with no
// disposal-time model configured.
const itnNeverDisposed = 1 << 30

// itnHoleAttritionRate converts accumulated hole index into a multiplicative
// efficacy penalty: survivalFactor = 1/(1+HoleIndex*itnHoleAttritionRate).
const itnHoleAttritionRate = 0.01

// ITNState tracks one deployed bednet's physical hole/rip degradation
// (spec.md §4.K.1), independent of the insecticide half-life Decay: holes
// accumulate via a Poisson process and enlarge (rip) via a second Poisson
// process scaled by the existing hole count.
type ITNState struct {
	HoleRate    float64
	RipRate     float64
	RipFactor   float64
	HoleIndex   float64
	NHoles      int
	DisposalDay int
}

func newITNState(s *Sampler, sched DeploymentSchedule, now int) *ITNState {
	st := &ITNState{RipFactor: sched.RipFactor, DisposalDay: now + itnNeverDisposed}
	if sched.HoleRateMean > 0 {
		st.HoleRate = NewLognormalSamplerCV(sched.HoleRateMean, sched.HoleRateCV).Sample(s)
	}
	if sched.RipRateMean > 0 {
		st.RipRate = NewLognormalSamplerCV(sched.RipRateMean, sched.RipRateCV).Sample(s)
	}
	if sched.DisposalMeanDays > 0 {
		disposal := NewLognormalSamplerCV(sched.DisposalMeanDays, 0.3).Sample(s)
		st.DisposalDay = now + int(disposal)
	}
	return st
}

// advance draws today's new holes and rips and updates the hole index.
func (st *ITNState) advance(s *Sampler) {
	newHoles := s.Poisson(st.HoleRate)
	newRips := s.Poisson(st.RipRate * float64(st.NHoles))
	st.HoleIndex += st.RipFactor*float64(newRips) + float64(newHoles)
	st.NHoles += newHoles
}

// survivalFactor is the multiplicative efficacy penalty from accumulated
// physical damage (1 = pristine net).
func (st *ITNState) survivalFactor() float64 {
	return 1 / (1 + st.HoleIndex*itnHoleAttritionRate)
}

// VaccineState tracks per-host dose history for a deployed vaccine
// component (spec.md §4.K.2): each dose's initial efficacy is sampled
// independently, and doses combine as independent protective events.
type VaccineState struct {
	Doses          int
	LastDoseDay    int
	DoseEfficacies []float64
}

func newVaccineState(s *Sampler, sched DeploymentSchedule, now int) *VaccineState {
	return &VaccineState{
		Doses:          1,
		LastDoseDay:    now,
		DoseEfficacies: []float64{sampleDoseEfficacy(s, sched)},
	}
}

func sampleDoseEfficacy(s *Sampler, sched DeploymentSchedule) float64 {
	if sched.DoseEfficacyBetaAlpha <= 0 || sched.DoseEfficacyBetaBeta <= 0 {
		return sched.Effect.InitialEfficacy
	}
	return s.Beta(sched.DoseEfficacyBetaAlpha, sched.DoseEfficacyBetaBeta)
}

// advance administers the next scheduled dose once DoseIntervalDays have
// elapsed since the last one, up to Sched.VaccineDoses total.
func (st *VaccineState) advance(s *Sampler, now int, sched DeploymentSchedule) {
	if sched.DoseIntervalDays <= 0 || sched.VaccineDoses <= 0 {
		return
	}
	if st.Doses >= sched.VaccineDoses {
		return
	}
	if now-st.LastDoseDay < sched.DoseIntervalDays {
		return
	}
	st.DoseEfficacies = append(st.DoseEfficacies, sampleDoseEfficacy(s, sched))
	st.Doses++
	st.LastDoseDay = now
}

// combinedEfficacy returns the probability of protection from at least one
// dose, treating each dose's effect as an independent event.
func (st *VaccineState) combinedEfficacy() float64 {
	survive := 1.0
	for _, e := range st.DoseEfficacies {
		survive *= 1 - e
	}
	return 1 - survive
}

// IRSState tracks the per-deployment insecticide-content variability of a
// sprayed residual (spec.md §4.K.3), multiplying the decay-function
// efficacy independently of the half-life decay itself.
type IRSState struct {
	InsecticideContent float64
}

func newIRSState(s *Sampler, sched DeploymentSchedule) *IRSState {
	content := 1.0
	if sched.InsecticideContentCV > 0 {
		content = NewLognormalSamplerCV(1, sched.InsecticideContentCV).Sample(s)
	}
	return &IRSState{InsecticideContent: content}
}

// CurrentEfficacy returns the decayed efficacy factor at day now: the
// configured (or dose-combined) initial value times the decay function
// evaluated at the elapsed time, times any ITN/IRS physical-state
// multiplier, clamped to [0,1] (spec.md §4.K).
func (h *HostIntervention) CurrentEfficacy(now int) float64 {
	elapsedDays := float64(now - h.DeployDay)
	if elapsedDays < 0 {
		return 0
	}
	initial := h.Effect.InitialEfficacy
	if h.Vaccine != nil {
		initial = h.Vaccine.combinedEfficacy()
	}
	eff := initial * h.Decay.Eval(elapsedDays, h.Het)
	if h.ITN != nil {
		eff *= h.ITN.survivalFactor()
	}
	if h.IRS != nil {
		eff *= h.IRS.InsecticideContent
	}
	return clamp01(eff)
}

// InterventionSet is the collection of interventions active on a single
// host, keyed by kind (at most one active deployment per kind at a time,
// a fresh deployment replacing any prior one, spec.md §4.K).
type InterventionSet struct {
	active map[InterventionKind]*HostIntervention
}

// NewInterventionSet returns an empty intervention set.
func NewInterventionSet() *InterventionSet {
	return &InterventionSet{active: make(map[InterventionKind]*HostIntervention)}
}

// Deploy installs or replaces the intervention of kind k on this host,
// sampling a fresh per-host heterogeneity factor for the new deployment and,
// for kinds that carry one, the stateful ITN/vaccine/IRS dynamics.
func (is *InterventionSet) Deploy(s *Sampler, now int, sched DeploymentSchedule) {
	het := SampleHeterogeneity(s, sched.HeterogeneityCV)
	hi := &HostIntervention{
		Kind: sched.Kind, DeployDay: now, Decay: sched.Decay, Het: het, Effect: sched.Effect, Sched: sched,
	}
	switch sched.Kind {
	case InterventionITN:
		hi.ITN = newITNState(s, sched, now)
	case InterventionVaccinePEV, InterventionVaccineBSV, InterventionVaccineTBV:
		hi.Vaccine = newVaccineState(s, sched, now)
	case InterventionIRS:
		hi.IRS = newIRSState(s, sched)
	}
	is.active[sched.Kind] = hi
}

// AdvanceDaily steps every active intervention's stateful physical/dose
// dynamics by one day: ITN hole/rip accumulation (discarding and removing
// nets past their disposal day) and vaccine dose scheduling (spec.md
// §4.K.1-2).
func (is *InterventionSet) AdvanceDaily(s *Sampler, now int) {
	for kind, hi := range is.active {
		if hi.ITN != nil {
			hi.ITN.advance(s)
			if now >= hi.ITN.DisposalDay {
				delete(is.active, kind)
				continue
			}
		}
		if hi.Vaccine != nil {
			hi.Vaccine.advance(s, now, hi.Sched)
		}
	}
}

// Get returns the active intervention of kind k, if any.
func (is *InterventionSet) Get(k InterventionKind) (*HostIntervention, bool) {
	hi, ok := is.active[k]
	return hi, ok
}

// VectorialReduction aggregates the ITN/IRS/GVI triple of multiplicative
// factors active on this host at day now, combined multiplicatively
// across components per spec.md §4.K/§4.J.
func (is *InterventionSet) VectorialReduction(now int) (deterrency, preprandial, postprandial float64) {
	deterrency, preprandial, postprandial = 1, 1, 1
	for _, kind := range []InterventionKind{InterventionITN, InterventionIRS, InterventionGVI} {
		hi, ok := is.active[kind]
		if !ok {
			continue
		}
		eff := hi.CurrentEfficacy(now)
		deterrency *= 1 - eff*hi.Effect.DeterrencyReduction
		preprandial *= 1 - eff*hi.Effect.PreprandialKillingProb
		postprandial *= 1 - eff*hi.Effect.PostprandialKillingProb
	}
	return
}

// VaccineSurvival returns the PEV inoculation-survival factor and the BSV
// blood-stage survival factor active on this host at day now.
func (is *InterventionSet) VaccineSurvival(now int) (pevSurvival, bsvSurvival float64) {
	pevSurvival, bsvSurvival = 1, 1
	if hi, ok := is.active[InterventionVaccinePEV]; ok {
		pevSurvival = 1 - hi.CurrentEfficacy(now)
	}
	if hi, ok := is.active[InterventionVaccineBSV]; ok {
		bsvSurvival = 1 - hi.CurrentEfficacy(now)
	}
	return
}

// TBVFactor returns the transmission-blocking multiplier active on this
// host at day now (1 = no effect).
func (is *InterventionSet) TBVFactor(now int) float64 {
	if hi, ok := is.active[InterventionVaccineTBV]; ok {
		return 1 - hi.CurrentEfficacy(now)
	}
	return 1
}
