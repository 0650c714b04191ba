package openmalaria

// SurveyMeasure is the stable integer code family identifying a monitoring
// counter (spec.md §6.3). Codes are never renumbered once released,
// matching the teacher's status-code constants in simulator.go.
type SurveyMeasure int

const (
	MeasureTotalInfections SurveyMeasure = iota + 1
	MeasureInfectedDensity
	MeasurePatentHosts
	MeasureUncomplicatedEpisodes
	MeasureSevereEpisodes
	MeasureIndirectDeaths
	MeasureNonMalariaFevers
	MeasureHospitalRecoveries
	MeasureHospitalDeaths
	MeasureCommunityDeaths
	MeasureEIR
	MeasureNv
	MeasureOv
	MeasureSv
	MeasureNv0
)

// MonitoringSink is the external collaborator from spec.md §4.M / §6.3:
// the core emits counter increments keyed by (measure, survey period, age
// group or cohort, genotype) and reals for expectations. It never reads
// back. Grounded on the teacher's DataLogger interface shape.
type MonitoringSink interface {
	// Increment adds delta to the integer counter for
	// (measure, surveyPeriod, ageGroup, genotype). genotype = -1 means "not
	// genotype-specific".
	Increment(measure SurveyMeasure, surveyPeriod, ageGroup, genotype int, delta int)
	// IncrementReal accumulates an expectation (a real-valued quantity, e.g.
	// expected infected) for (measure, surveyPeriod, ageGroup, genotype).
	IncrementReal(measure SurveyMeasure, surveyPeriod, ageGroup, genotype int, delta float64)
}

// NullMonitoringSink discards every counter. Useful for warm-up phases
// (spec.md §4.L pre-init/init) where no survey is recorded, and for tests.
type NullMonitoringSink struct{}

// Increment is a no-op.
func (NullMonitoringSink) Increment(SurveyMeasure, int, int, int, int) {}

// IncrementReal is a no-op.
func (NullMonitoringSink) IncrementReal(SurveyMeasure, int, int, int, float64) {}
