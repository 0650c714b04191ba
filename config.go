package openmalaria

import "github.com/pkg/errors"

// ScenarioConfig is the top-level TOML scenario document (spec.md §6.1):
// demography, the chosen within-host/pathogenesis/clinical models,
// vector species, interventions, and monitoring setup. Grounded on the
// teacher's evoepi_config.go top-level Config struct shape almost
// verbatim, field groups renamed from epidemic/sequence concerns to
// demographic/epidemiological ones.
type ScenarioConfig struct {
	Name       string             `toml:"name"`
	MasterSeed uint32             `toml:"master_seed"`

	Population  PopulationConfig  `toml:"population"`
	WithinHost  WithinHostConfig  `toml:"within_host"`
	Pathogenesis PathogenesisConfig `toml:"pathogenesis"`
	Clinical    ClinicalConfig    `toml:"clinical"`
	Genotypes   []GenotypeConfig  `toml:"genotype"`
	Vectors     []VectorConfig    `toml:"vector"`
	Interventions []InterventionConfig `toml:"intervention"`
	Monitoring  MonitoringConfig  `toml:"monitoring"`
}

// PopulationConfig configures demography and phase lengths (spec.md §4.L).
type PopulationConfig struct {
	Size         int     `toml:"size"`
	MaxAgeYears  float64 `toml:"max_age_years"`
	PreInitYears int     `toml:"pre_init_years"`
	InitYears    int     `toml:"init_years"`
	MainYears    int     `toml:"main_years"`

	AvailabilityCV     float64 `toml:"availability_cv"`
	ComorbidityCV      float64 `toml:"comorbidity_cv"`
	TreatmentSeekingCV float64 `toml:"treatment_seeking_cv"`
	InnateImmunityCV   float64 `toml:"innate_immunity_cv"`
	MeanBodyMassKg     float64 `toml:"mean_body_mass_kg"`

	// ImportRatePer1000PerYear is the rate at which hosts acquire
	// infections from outside the simulated population, independent of
	// local EIR (spec.md §4.L).
	ImportRatePer1000PerYear float64 `toml:"import_rate_per_1000_per_year"`
}

// WithinHostConfig selects and parameterizes the infection model
// (spec.md §4.D) and the immunity decay terms (spec.md §4.E).
type WithinHostConfig struct {
	Model string `toml:"model"` // "descriptive" | "empirical" | "molineaux"

	HStar          float64 `toml:"h_star"`
	YStar          float64 `toml:"y_star"`
	AlphaM         float64 `toml:"alpha_m"`
	DecayM         float64 `toml:"decay_m"`
	StepLengthDays int     `toml:"step_length_days"`
}

// PathogenesisConfig selects and parameterizes the morbidity model
// (spec.md §4.F).
type PathogenesisConfig struct {
	Model string `toml:"model"` // "pyrogenic" | "mueller" | "predetermined"

	YStar0             float64 `toml:"y_star_0"`
	Alpha              float64 `toml:"alpha"`
	YStar1             float64 `toml:"y_star_1"`
	YStar2             float64 `toml:"y_star_2"`
	YStarHalfLife      float64 `toml:"y_star_half_life"`
	SevereMalThreshold float64 `toml:"severe_threshold"`
	ComorbIntercept    float64 `toml:"comorb_intercept"`
	CriticalAge        float64 `toml:"critical_age"`
	ComorbidityFactor  float64 `toml:"comorbidity_factor"`
	IndirRiskCoFactor  float64 `toml:"indirect_risk_cofactor"`

	RateMultiplier  float64 `toml:"rate_multiplier"`
	DensityExponent float64 `toml:"density_exponent"`

	TriggerDensity float64 `toml:"trigger_density"`
}

// ClinicalConfig selects the case management model (spec.md §4.G).
type ClinicalConfig struct {
	Model string `toml:"model"` // "immediate_outcomes" | "event_scheduler"
}

// GenotypeConfig is one row of the static genotype table (spec.md §4.C).
type GenotypeConfig struct {
	ID            int     `toml:"id"`
	InitialFreq   float64 `toml:"initial_freq"`
	HRP2Deficient bool    `toml:"hrp2_deficient"`
}

// VectorConfig configures one anopheline species (spec.md §4.H/§4.I).
type VectorConfig struct {
	Name                     string  `toml:"name"`
	EmergenceModel           string  `toml:"emergence_model"` // "forced" | "simple_mpd"
	EIPDays                  int     `toml:"eip_days"`
	FeedingCycleDurationDays int     `toml:"feeding_cycle_days"`
	HumanBloodIndex          float64 `toml:"human_blood_index"`
	ProbFeedingSurvival      float64 `toml:"prob_feeding_survival"`
	MinInfectedThreshold     float64 `toml:"min_infected_threshold"`

	FourierA0     float64   `toml:"fourier_a0"`
	FourierACoeff []float64 `toml:"fourier_a_coeff"`
	FourierBCoeff []float64 `toml:"fourier_b_coeff"`

	MPDDevelopmentDays       int     `toml:"mpd_development_days"`
	MPDEggSurvival           float64 `toml:"mpd_egg_survival"`
	MPDFemaleEggsPerOviposit float64 `toml:"mpd_female_eggs_per_oviposit"`
	TargetAnnualEIR          float64 `toml:"target_annual_eir"`

	ProbMosqBitingMean       float64 `toml:"prob_mosq_biting_mean"`
	ProbMosqBitingCV         float64 `toml:"prob_mosq_biting_cv"`
	ProbMosqFindsRestMean    float64 `toml:"prob_mosq_finds_rest_mean"`
	ProbMosqFindsRestCV      float64 `toml:"prob_mosq_finds_rest_cv"`
	ProbMosqRestSurvivalMean float64 `toml:"prob_mosq_rest_survival_mean"`
	ProbMosqRestSurvivalCV   float64 `toml:"prob_mosq_rest_survival_cv"`
}

// InterventionConfig configures one deployment schedule (spec.md §4.K).
type InterventionConfig struct {
	Kind        string  `toml:"kind"` // "itn" | "irs" | "gvi" | "pev" | "bsv" | "tbv"
	Trigger     string  `toml:"trigger"` // "timed" | "continuous_age"
	Coverage    float64 `toml:"coverage"`
	TimedDays   []int   `toml:"timed_days"`
	MinAgeYears float64 `toml:"min_age_years"`
	MaxAgeYears float64 `toml:"max_age_years"`
	SubPop      string  `toml:"sub_population"`

	DecayShape      string  `toml:"decay_shape"`
	DecayL          float64 `toml:"decay_l"`
	DecayK          float64 `toml:"decay_k"`
	HeterogeneityCV float64 `toml:"heterogeneity_cv"`

	DeterrencyReduction     float64 `toml:"deterrency_reduction"`
	PreprandialKillingProb  float64 `toml:"preprandial_killing_prob"`
	PostprandialKillingProb float64 `toml:"postprandial_killing_prob"`
	InitialEfficacy         float64 `toml:"initial_efficacy"`

	// ITN hole/rip degradation (spec.md §4.K.1).
	HoleRateMean     float64 `toml:"hole_rate_mean"`
	HoleRateCV       float64 `toml:"hole_rate_cv"`
	RipRateMean      float64 `toml:"rip_rate_mean"`
	RipRateCV        float64 `toml:"rip_rate_cv"`
	RipFactor        float64 `toml:"rip_factor"`
	DisposalMeanDays float64 `toml:"disposal_mean_days"`

	// Vaccine dosing (spec.md §4.K.2).
	VaccineDoses          int     `toml:"vaccine_doses"`
	DoseIntervalDays      int     `toml:"dose_interval_days"`
	DoseEfficacyBetaAlpha float64 `toml:"dose_efficacy_beta_alpha"`
	DoseEfficacyBetaBeta  float64 `toml:"dose_efficacy_beta_beta"`

	// IRS insecticide content variability (spec.md §4.K.3).
	InsecticideContentCV float64 `toml:"insecticide_content_cv"`
}

// MonitoringConfig selects the output sink and survey cadence
// (spec.md §4.M/§6.3).
type MonitoringConfig struct {
	Sink             string `toml:"sink"` // "csv" | "sqlite" | "none"
	OutputBasePath   string `toml:"output_base_path"`
	SurveyPeriodDays int    `toml:"survey_period_days"`
	DiagnosticThreshold float64 `toml:"diagnostic_threshold"`
}

// Validate checks the scenario document for internal consistency,
// wrapping every failure with errors.Wrapf so the failing sub-config is
// identifiable in the error chain (spec.md §6.2). Grounded on the
// teacher's Config.Validate chaining through sub-config Validate calls.
func (c *ScenarioConfig) Validate() error {
	if err := c.Population.Validate(); err != nil {
		return errors.Wrapf(err, "population")
	}
	if err := c.WithinHost.Validate(); err != nil {
		return errors.Wrapf(err, "within_host")
	}
	if err := c.Pathogenesis.Validate(); err != nil {
		return errors.Wrapf(err, "pathogenesis")
	}
	if len(c.Genotypes) == 0 {
		return errors.New("scenario must define at least one genotype")
	}
	var freqSum float64
	for i, g := range c.Genotypes {
		if err := g.Validate(); err != nil {
			return errors.Wrapf(err, "genotype[%d]", i)
		}
		freqSum += g.InitialFreq
	}
	if freqSum < 0.999 || freqSum > 1.001 {
		return errors.Errorf("genotype initial frequencies sum to %f, expected 1.0", freqSum)
	}
	if len(c.Vectors) == 0 {
		return errors.New("scenario must define at least one vector species")
	}
	for i, v := range c.Vectors {
		if err := v.Validate(); err != nil {
			return errors.Wrapf(err, "vector[%d]", i)
		}
	}
	for i, iv := range c.Interventions {
		if err := iv.Validate(); err != nil {
			return errors.Wrapf(err, "intervention[%d]", i)
		}
	}
	return nil
}

// Validate checks PopulationConfig.
func (c *PopulationConfig) Validate() error {
	if c.Size <= 0 {
		return errors.Errorf(InvalidIntParameterError, "size", c.Size, "must be positive")
	}
	if c.MaxAgeYears <= 0 {
		return errors.Errorf(InvalidFloatParameterError, "max_age_years", c.MaxAgeYears, "must be positive")
	}
	if c.PreInitYears < 0 || c.InitYears < 0 || c.MainYears <= 0 {
		return errors.New("pre_init_years/init_years must be non-negative and main_years must be positive")
	}
	return nil
}

// Validate checks WithinHostConfig.
func (c *WithinHostConfig) Validate() error {
	switch c.Model {
	case "descriptive", "empirical", "molineaux":
	default:
		return errors.Errorf(InvalidStringParameterError, "within_host.model", c.Model, "must be one of descriptive|empirical|molineaux")
	}
	if c.HStar <= 0 || c.YStar <= 0 {
		return errors.New("within_host.h_star and y_star must be positive")
	}
	if c.StepLengthDays <= 0 {
		return errors.Errorf(InvalidIntParameterError, "within_host.step_length_days", c.StepLengthDays, "must be positive")
	}
	return nil
}

// Validate checks PathogenesisConfig.
func (c *PathogenesisConfig) Validate() error {
	switch c.Model {
	case "pyrogenic", "mueller", "predetermined":
	default:
		return errors.Errorf(InvalidStringParameterError, "pathogenesis.model", c.Model, "must be one of pyrogenic|mueller|predetermined")
	}
	return nil
}

// Validate checks GenotypeConfig.
func (c *GenotypeConfig) Validate() error {
	if c.InitialFreq < 0 || c.InitialFreq > 1 {
		return errors.Errorf(InvalidFloatParameterError, "genotype.initial_freq", c.InitialFreq, "must be in [0,1]")
	}
	return nil
}

// Validate checks VectorConfig.
func (c *VectorConfig) Validate() error {
	switch c.EmergenceModel {
	case "forced", "simple_mpd":
	default:
		return errors.Errorf(InvalidStringParameterError, "vector.emergence_model", c.EmergenceModel, "must be one of forced|simple_mpd")
	}
	if c.EIPDays <= 0 || c.FeedingCycleDurationDays <= 0 {
		return errors.New("vector.eip_days and feeding_cycle_days must be positive")
	}
	if c.EmergenceModel == "simple_mpd" && c.TargetAnnualEIR <= 0 {
		return errors.New("vector.target_annual_eir must be positive when emergence_model = simple_mpd")
	}
	return nil
}

// Validate checks InterventionConfig.
func (c *InterventionConfig) Validate() error {
	switch c.Kind {
	case "itn", "irs", "gvi", "pev", "bsv", "tbv":
	default:
		return errors.Errorf(InvalidStringParameterError, "intervention.kind", c.Kind, "must be one of itn|irs|gvi|pev|bsv|tbv")
	}
	switch c.Trigger {
	case "timed", "continuous_age":
	default:
		return errors.Errorf(InvalidStringParameterError, "intervention.trigger", c.Trigger, "must be one of timed|continuous_age")
	}
	if c.Coverage < 0 || c.Coverage > 1 {
		return errors.Errorf(InvalidFloatParameterError, "intervention.coverage", c.Coverage, "must be in [0,1]")
	}
	if c.Trigger == "timed" && len(c.TimedDays) == 0 {
		return errors.New("intervention.timed_days must be non-empty when trigger = timed")
	}
	return nil
}
