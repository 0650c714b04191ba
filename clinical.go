package openmalaria

import "math"

// Regimen identifies a case-management treatment regimen (spec.md §4.G).
type Regimen int

const (
	RegimenUC Regimen = iota
	RegimenUC2
	RegimenSevere
)

// EpisodeRecord is a host's last clinical episode (spec.md §3): state,
// survey period, and age group at onset, flushed to monitoring once a
// grace period has elapsed since the last event.
type EpisodeRecord struct {
	State        ClinicalState
	SurveyPeriod int
	AgeGroup     int
	OnsetDay     int
	Flushed      bool
}

// ClinicalModel is the common contract for the two interchangeable case
// management models (spec.md §4.G). Grounded on the teacher's per-status
// process dispatch in epidemic.go, generalised from epidemiological
// compartment to clinical decision state.
type ClinicalModel interface {
	// HandleEpisode processes a newly-determined clinical state for a host
	// on day `now`, deciding treatment seeking, clearance, case-fatality,
	// and sequelae. Returns whether the host should be marked for delayed
	// death (indirect or severe mortality) and the delay in days.
	HandleEpisode(s *Sampler, now int, state ClinicalState, indirectMortality bool, ageYears float64, w *WithinHost, sink MonitoringSink, surveyPeriod, ageGroup int) (doomed bool, deathDelay int)
}

// ImmediateOutcomesParams configure the 5-day immediate-outcomes model
// (spec.md §4.G).
type ImmediateOutcomesParams struct {
	ProbGetsTreatment   map[Regimen]float64
	ProbParasitesCleared map[Regimen]float64
	TreatmentSeekingFactor float64
	HospitalCFRByAge    func(ageYears float64) float64
	LogOddsRatioCommunityCFR float64
	SequelaeProbByAge   func(ageYears float64) float64
	IndirectDeathDelayDays int
	LiverTreatExpiryDays, BloodTreatExpiryDays int
	RefractoryWindowDays int
}

// ImmediateOutcomes is the 5-day case management model.
type ImmediateOutcomes struct {
	params ImmediateOutcomesParams
}

// NewImmediateOutcomes constructs the immediate-outcomes clinical model.
func NewImmediateOutcomes(params ImmediateOutcomesParams) *ImmediateOutcomes {
	return &ImmediateOutcomes{params: params}
}

// HandleEpisode implements spec.md §4.G's immediate-outcomes algorithm.
func (m *ImmediateOutcomes) HandleEpisode(s *Sampler, now int, state ClinicalState, indirectMortality bool, ageYears float64, w *WithinHost, sink MonitoringSink, surveyPeriod, ageGroup int) (bool, int) {
	switch state {
	case StateNone:
		return false, 0
	case StateSick:
		sink.Increment(MeasureNonMalariaFevers, surveyPeriod, ageGroup, -1, 1)
		return false, 0
	case StateMalaria, StateCoinfection:
		sink.Increment(MeasureUncomplicatedEpisodes, surveyPeriod, ageGroup, -1, 1)
		regimen := RegimenUC
		if s.Bernoulli(m.params.ProbGetsTreatment[regimen] * m.params.TreatmentSeekingFactor) {
			if s.Bernoulli(m.params.ProbParasitesCleared[regimen]) {
				w.Treatment(now, false, true, m.params.LiverTreatExpiryDays, m.params.BloodTreatExpiryDays)
			}
		}
		if indirectMortality {
			return true, m.params.IndirectDeathDelayDays
		}
		return false, 0
	case StateSevere:
		sink.Increment(MeasureSevereEpisodes, surveyPeriod, ageGroup, -1, 1)
		cfrHospital := m.params.HospitalCFRByAge(ageYears)
		// Community (un-hospitalized) CFR derived via a log-odds-ratio
		// transform of the hospital CFR (spec.md §4.G).
		oddsHospital := cfrHospital / (1 - cfrHospital)
		oddsCommunity := oddsHospital * math.Exp(m.params.LogOddsRatioCommunityCFR)
		cfrCommunity := oddsCommunity / (1 + oddsCommunity)

		regimen := RegimenSevere
		hospitalized := s.Bernoulli(m.params.ProbGetsTreatment[regimen] * m.params.TreatmentSeekingFactor)
		var dies bool
		if hospitalized {
			dies = s.Bernoulli(cfrHospital)
			if !dies {
				sink.Increment(MeasureHospitalRecoveries, surveyPeriod, ageGroup, -1, 1)
				w.Treatment(now, true, true, m.params.LiverTreatExpiryDays, m.params.BloodTreatExpiryDays)
			} else {
				sink.Increment(MeasureHospitalDeaths, surveyPeriod, ageGroup, -1, 1)
			}
		} else {
			dies = s.Bernoulli(cfrCommunity)
			if dies {
				sink.Increment(MeasureCommunityDeaths, surveyPeriod, ageGroup, -1, 1)
			}
		}
		if !dies && m.params.SequelaeProbByAge != nil && s.Bernoulli(m.params.SequelaeProbByAge(ageYears)) {
			// Sequelae applied; no separate state machine needed at this
			// level of fidelity, recorded via the episode record only.
		}
		if dies || indirectMortality {
			return true, m.params.IndirectDeathDelayDays
		}
		return false, 0
	}
	return false, 0
}

// DecisionAction is a leaf of the event-scheduler decision tree (spec.md
// §4.G): {no treatment, treat, refer, diagnose+branch}.
type DecisionAction int

const (
	ActionNoTreatment DecisionAction = iota
	ActionTreat
	ActionRefer
	ActionDiagnoseBranch
)

// DecisionNode mirrors the XML health-system decision tree: either a leaf
// action or a diagnostic branch with a positive/negative child.
type DecisionNode struct {
	Action              DecisionAction
	ScheduleID, DosageID int
	Positive, Negative  *DecisionNode // non-nil only when Action == ActionDiagnoseBranch
	DiagnosticSpecificity, DiagnosticSensitivity float64
}

// EventSchedulerParams configure the 1-day event-scheduler clinical model.
type EventSchedulerParams struct {
	Root                *DecisionNode
	CFRNegLogAlpha      float64
	HSMemoryDays        int
	NMFBeta0, NMFBeta1, NMFBeta2, NMFBeta3, NMFBeta4 float64
	AntibioticEfficacy  float64
	ComplicatedBoutRecoveryDays int
	Drugs               DrugModel
}

// hostSchedulerState is the per-host event-scheduler state (spec.md §4.G).
type hostSchedulerState struct {
	inComplicatedBout bool
	caseStartDay      int
	timeOfRecovery    int
	timeLastTreatment int
	previousDensity   float64
}

// EventScheduler is the 1-day case management model.
type EventScheduler struct {
	params EventSchedulerParams
	state  map[*WithinHost]*hostSchedulerState
}

// NewEventScheduler constructs the event-scheduler clinical model.
func NewEventScheduler(params EventSchedulerParams) *EventScheduler {
	return &EventScheduler{params: params, state: make(map[*WithinHost]*hostSchedulerState)}
}

func (m *EventScheduler) stateFor(w *WithinHost) *hostSchedulerState {
	st, ok := m.state[w]
	if !ok {
		st = &hostSchedulerState{}
		m.state[w] = st
	}
	return st
}

// HandleEpisode implements spec.md §4.G's event-scheduler algorithm.
func (m *EventScheduler) HandleEpisode(s *Sampler, now int, state ClinicalState, indirectMortality bool, ageYears float64, w *WithinHost, sink MonitoringSink, surveyPeriod, ageGroup int) (bool, int) {
	st := m.stateFor(w)

	if st.inComplicatedBout {
		density := w.TotalDensity()
		hazard := math.Exp(-m.params.CFRNegLogAlpha) * density / (density + 1)
		if s.Bernoulli(hazard) {
			return true, 0
		}
		if now >= st.timeOfRecovery {
			st.inComplicatedBout = false
			sink.Increment(MeasureHospitalRecoveries, surveyPeriod, ageGroup, -1, 1)
		}
		st.previousDensity = density
		return false, 0
	}

	switch state {
	case StateNone:
		return false, 0
	case StateSevere:
		st.inComplicatedBout = true
		st.caseStartDay = now
		st.timeOfRecovery = now + m.params.ComplicatedBoutRecoveryDays
		sink.Increment(MeasureSevereEpisodes, surveyPeriod, ageGroup, -1, 1)
		m.walkDecisionTree(s, now, m.params.Root, ageYears, w, st)
		return false, 0
	case StateMalaria, StateCoinfection:
		sink.Increment(MeasureUncomplicatedEpisodes, surveyPeriod, ageGroup, -1, 1)
		m.walkDecisionTree(s, now, m.params.Root, ageYears, w, st)
		return indirectMortality, 0
	case StateSick:
		sink.Increment(MeasureNonMalariaFevers, surveyPeriod, ageGroup, -1, 1)
		m.applyNMFLogic(s, now, ageYears, w, st)
		return false, 0
	}
	return false, 0
}

// walkDecisionTree follows the configured decision tree to its leaf
// action, calling into the external drug model for Treat/Refer leaves.
func (m *EventScheduler) walkDecisionTree(s *Sampler, now int, node *DecisionNode, ageYears float64, w *WithinHost, st *hostSchedulerState) {
	if node == nil {
		return
	}
	for node.Action == ActionDiagnoseBranch {
		positive := s.Bernoulli(node.DiagnosticSensitivity)
		if positive {
			node = node.Positive
		} else {
			node = node.Negative
		}
		if node == nil {
			return
		}
	}
	switch node.Action {
	case ActionNoTreatment:
		return
	case ActionTreat, ActionRefer:
		if m.params.Drugs != nil {
			m.params.Drugs.TreatPkPd(node.ScheduleID, node.DosageID, ageYears, 0)
		}
		st.timeLastTreatment = now
		w.Treatment(now, true, true, 0, 0)
	}
}

// applyNMFLogic implements spec.md §4.G's antibiotic-prescription logistic
// model for non-malarial fevers.
func (m *EventScheduler) applyNMFLogic(s *Sampler, now int, ageYears float64, w *WithinHost, st *hostSchedulerState) {
	negTest, posTest, needsAb, informal := 0.0, 0.0, 0.0, 0.0
	logit := m.params.NMFBeta0 + m.params.NMFBeta1*negTest + m.params.NMFBeta2*posTest +
		m.params.NMFBeta3*needsAb + m.params.NMFBeta4*informal
	pAntibiotic := 1 / (1 + math.Exp(-logit))
	if s.Bernoulli(pAntibiotic) {
		st.timeLastTreatment = now
	}
}
