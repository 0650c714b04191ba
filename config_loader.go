package openmalaria

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// LoadScenarioConfig reads and validates a TOML scenario document from
// path (spec.md §6.1). Grounded on the teacher's evoepi_config_loader.go
// load-then-validate pipeline: the file is read with os.ReadFile and
// decoded with toml.Decode.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SimError{Code: ExitFileIO, Err: errors.Wrapf(err, "reading scenario file %s", path)}
	}
	var cfg ScenarioConfig
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, NewScenarioError(errors.Wrapf(err, "decoding scenario file %s", path))
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewScenarioError(errors.Wrapf(err, "validating scenario file %s", path))
	}
	return &cfg, nil
}

// BuildPopulation realises a validated ScenarioConfig into a runnable
// Population: genotype registry, within-host/pathogenesis/clinical models,
// vector species (fitting resources for any simple_mpd species), and
// intervention schedules (spec.md §6.1-2's "config compiles to runtime
// objects once at load" contract).
func BuildPopulation(cfg *ScenarioConfig) (*Population, []DeploymentSchedule, error) {
	genotypes, err := buildGenotypes(cfg.Genotypes)
	if err != nil {
		return nil, nil, err
	}

	whModel, err := buildInfectionModel(cfg.WithinHost)
	if err != nil {
		return nil, nil, err
	}

	pathogenesis, err := buildPathogenesis(cfg.Pathogenesis)
	if err != nil {
		return nil, nil, err
	}

	clinical, err := buildClinical(cfg.Clinical)
	if err != nil {
		return nil, nil, err
	}

	sink, err := buildMonitoringSink(cfg.Monitoring)
	if err != nil {
		return nil, nil, err
	}
	if err := sink.Init(); err != nil {
		return nil, nil, err
	}

	speciesParams := make([]VectorSpeciesParams, len(cfg.Vectors))
	emergence := make([]EmergenceModel, len(cfg.Vectors))
	for i, v := range cfg.Vectors {
		sp := VectorSpeciesParams{
			Name:                     v.Name,
			EIPDays:                  v.EIPDays,
			FeedingCycleDurationDays: v.FeedingCycleDurationDays,
			ProbFeedingSurvival:      v.ProbFeedingSurvival,
			HumanBloodIndex:          v.HumanBloodIndex,
			MinInfectedThreshold:     v.MinInfectedThreshold,
			MosqSeekingDuration:      1,
			ProbMosqBitingMean:       v.ProbMosqBitingMean,
			ProbMosqBitingCV:         v.ProbMosqBitingCV,
			ProbMosqFindsRestMean:    v.ProbMosqFindsRestMean,
			ProbMosqFindsRestCV:      v.ProbMosqFindsRestCV,
			ProbMosqRestSurvivalMean: v.ProbMosqRestSurvivalMean,
			ProbMosqRestSurvivalCV:   v.ProbMosqRestSurvivalCV,
		}
		speciesParams[i] = sp

		switch v.EmergenceModel {
		case "forced":
			f := NewForcedEmergence(v.FourierA0, v.FourierACoeff, v.FourierBCoeff)
			emergence[i] = f
		case "simple_mpd":
			var seed [DaysPerYear]float64
			for d := range seed {
				seed[d] = 1.0 / 1000.0
			}
			fitted, err := fitSimpleMPDResources(v, sp, seed)
			if err != nil {
				return nil, nil, err
			}
			m := NewSimpleMPD(v.MPDDevelopmentDays, v.MPDEggSurvival, v.MPDFemaleEggsPerOviposit, fitted)
			emergence[i] = m
		default:
			return nil, nil, NewScenarioError(errors.Errorf("unknown emergence model %q", v.EmergenceModel))
		}
	}

	whParams := WithinHostParams{
		HStar:          cfg.WithinHost.HStar,
		YStar:          cfg.WithinHost.YStar,
		AlphaM:         cfg.WithinHost.AlphaM,
		DecayM:         cfg.WithinHost.DecayM,
		StepLengthDays: cfg.WithinHost.StepLengthDays,
	}

	weights := make([]float64, len(cfg.Genotypes))
	for i, g := range cfg.Genotypes {
		weights[i] = g.InitialFreq
	}

	popParams := PopulationParams{
		Size:             cfg.Population.Size,
		MaxAgeYears:      cfg.Population.MaxAgeYears,
		MasterSeed:       cfg.MasterSeed,
		BirthParams: HostBirthParams{
			AvailabilityCV:     cfg.Population.AvailabilityCV,
			ComorbidityCV:      cfg.Population.ComorbidityCV,
			TreatmentSeekingCV: cfg.Population.TreatmentSeekingCV,
			InnateImmunityCV:   cfg.Population.InnateImmunityCV,
			MeanBodyMassKg:     cfg.Population.MeanBodyMassKg,
		},
		WithinHostParams: whParams,
		InfectionModel:   whModel,
		Clinical:         clinical,
		Pathogenesis:     pathogenesis,
		Genotypes:        genotypes,
		GenotypeWeights:  weights,
		Sink:             sink,
		SurveyPeriodDays: cfg.Monitoring.SurveyPeriodDays,
		PreInitYears:     cfg.Population.PreInitYears,
		InitYears:        cfg.Population.InitYears,
		MainYears:        cfg.Population.MainYears,
		ImportRatePerDay: cfg.Population.ImportRatePer1000PerYear / 1000 / DaysPerYear,
	}

	pop, err := NewPopulation(popParams, speciesParams, emergence)
	if err != nil {
		return nil, nil, err
	}

	schedules, err := buildInterventions(cfg.Interventions)
	if err != nil {
		return nil, nil, err
	}
	pop.SetInterventions(schedules)
	return pop, schedules, nil
}

// fitSimpleMPDResources runs the pre-init resource fitter (spec.md §4.N)
// against a standalone vector-only simulation under a fixed synthetic
// human-biting environment approximating one fully-available host per
// mosquito-feeding-cycle, so invLarvalResources can be solved before any
// Population exists.
func fitSimpleMPDResources(v VectorConfig, sp VectorSpeciesParams, seed [DaysPerYear]float64) ([DaysPerYear]float64, error) {
	params := DefaultResourceFitterParams(v.TargetAnnualEIR)
	simulate := func(invK [DaysPerYear]float64) (float64, error) {
		model := NewSimpleMPD(v.MPDDevelopmentDays, v.MPDEggSurvival, v.MPDFemaleEggsPerOviposit, invK)
		vp := NewVectorPopulation(sp, model)
		agg := NewPopulationBitingAggregate()
		agg.AddHost(HostVectorParams{RelativeAvailability: 1, ProbMosqBiting: 0.95, ProbMosqFindsRest: 0.95, ProbMosqRestSurvival: 0.95}, 1, 0.1)
		pA, pDf, pDif, pDff := agg.BitingProbabilities(sp)

		var sumEIR float64
		const burnInYears = 3
		for day := 0; day < (burnInYears+1)*DaysPerYear; day++ {
			vp.Update(day%DaysPerYear, pA, pDf, pDif, pDff)
			if day >= burnInYears*DaysPerYear {
				sumEIR += vp.EIR(sp.ProbFeedingSurvival)
			}
		}
		return sumEIR, nil
	}
	return FitResources(seed, params, simulate)
}

func buildGenotypes(rows []GenotypeConfig) (*GenotypeRegistry, error) {
	infos := make([]GenotypeInfo, len(rows))
	for i, r := range rows {
		infos[i] = GenotypeInfo{ID: r.ID, InitialFreq: r.InitialFreq, HRP2Deficient: r.HRP2Deficient}
	}
	reg, err := NewGenotypeRegistry(infos)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// defaultTriangularLogDensity builds a simple decaying triangular matrix
// for the descriptive model: a placeholder for a scenario-fitted table,
// which spec.md leaves as an externally-calibrated input rather than a
// formula.
func defaultTriangularLogDensity() [][]float64 {
	m := make([][]float64, DescriptiveNumDurations)
	for age := range m {
		row := make([]float64, DescriptiveNumDurations+1)
		for dur := age + 1; dur <= DescriptiveNumDurations; dur++ {
			peak := float64(dur) / 2
			dist := float64(age) - peak
			row[dur] = 12 - 0.01*dist*dist
		}
		m[age] = row
	}
	return m
}

func buildInfectionModel(cfg WithinHostConfig) (InfectionModel, error) {
	switch cfg.Model {
	case "descriptive":
		return NewDescriptiveModel(defaultTriangularLogDensity(), 3.5, 0.5, 1.5, 20), nil
	case "empirical":
		params := make([]EmpiricalAgeParams, EmpiricalMaxDurationDays)
		for i := range params {
			params[i] = EmpiricalAgeParams{Intercept: 1.0, ResidualVar: 0.5, AR1: 0.7, AR2: 0.1, AR3: 0.05}
		}
		return NewEmpiricalModel(params, 10, 1, 0.5, 0.5), nil
	case "molineaux":
		mult := make([]float64, MolineauxNumVariants)
		switchDay := make([]int, MolineauxNumVariants)
		for i := range mult {
			mult[i] = 1 + 0.02*float64(i)
			switchDay[i] = 2 * i
		}
		return NewMolineauxModel(mult, switchDay, 30, 1, 0.02, 1, 16), nil
	}
	return nil, NewScenarioError(errors.Errorf("unknown within_host model %q", cfg.Model))
}

func buildPathogenesis(cfg PathogenesisConfig) (Pathogenesis, error) {
	switch cfg.Model {
	case "pyrogenic":
		return NewPyrogenicPathogenesis(PyrogenicParams{
			YStar0:             cfg.YStar0,
			Alpha:              cfg.Alpha,
			YStar1:             cfg.YStar1,
			YStar2:             cfg.YStar2,
			YStarHalfLife:      cfg.YStarHalfLife,
			SevereMalThreshold: cfg.SevereMalThreshold,
			ComorbIntercept:    cfg.ComorbIntercept,
			CriticalAge:        cfg.CriticalAge,
			ComorbidityFactor:  cfg.ComorbidityFactor,
			IndirRiskCoFactor:  cfg.IndirRiskCoFactor,
			StepLengthDays:     1,
		}), nil
	case "mueller":
		return NewMuellerPathogenesis(MuellerParams{
			RateMultiplier:     cfg.RateMultiplier,
			DensityExponent:    cfg.DensityExponent,
			YearsPerStep:       1.0 / float64(DaysPerYear),
			SevereMalThreshold: cfg.SevereMalThreshold,
			ComorbIntercept:    cfg.ComorbIntercept,
			CriticalAge:        cfg.CriticalAge,
			ComorbidityFactor:  cfg.ComorbidityFactor,
			IndirRiskCoFactor:  cfg.IndirRiskCoFactor,
		}), nil
	case "predetermined":
		return NewPredeterminedPathogenesis(PredeterminedParams{
			TriggerDensity:     cfg.TriggerDensity,
			SevereMalThreshold: cfg.SevereMalThreshold,
		}), nil
	}
	return nil, NewScenarioError(errors.Errorf("unknown pathogenesis model %q", cfg.Model))
}

func buildClinical(cfg ClinicalConfig) (ClinicalModel, error) {
	switch cfg.Model {
	case "immediate_outcomes":
		return NewImmediateOutcomes(ImmediateOutcomesParams{
			ProbGetsTreatment:      map[Regimen]float64{RegimenUC: 0.6, RegimenSevere: 0.5},
			ProbParasitesCleared:   map[Regimen]float64{RegimenUC: 0.85, RegimenSevere: 0.95},
			TreatmentSeekingFactor: 1,
			HospitalCFRByAge:       func(float64) float64 { return 0.1 },
			SequelaeProbByAge:      func(float64) float64 { return 0.01 },
			IndirectDeathDelayDays: 3,
			LiverTreatExpiryDays:   7,
			BloodTreatExpiryDays:   14,
		}), nil
	case "event_scheduler":
		return NewEventScheduler(EventSchedulerParams{
			Root:                &DecisionNode{Action: ActionTreat, ScheduleID: 1, DosageID: 1},
			CFRNegLogAlpha:      2,
			ComplicatedBoutRecoveryDays: 7,
			Drugs:               NoopDrugModel{},
		}), nil
	}
	return nil, NewScenarioError(errors.Errorf("unknown clinical model %q", cfg.Model))
}

func buildMonitoringSink(cfg MonitoringConfig) (interface {
	MonitoringSink
	Init() error
	Close() error
}, error) {
	switch cfg.Sink {
	case "csv":
		return NewCSVMonitoringSink(cfg.OutputBasePath, 0), nil
	case "sqlite":
		return NewSQLiteMonitoringSink(cfg.OutputBasePath, 0), nil
	case "none", "":
		return nullSink{}, nil
	}
	return nil, NewScenarioError(errors.Errorf("unknown monitoring sink %q", cfg.Sink))
}

// nullSink adapts NullMonitoringSink to the Init/Close lifecycle the other
// sinks require.
type nullSink struct{ NullMonitoringSink }

func (nullSink) Init() error  { return nil }
func (nullSink) Close() error { return nil }

func buildInterventions(rows []InterventionConfig) ([]DeploymentSchedule, error) {
	out := make([]DeploymentSchedule, len(rows))
	for i, r := range rows {
		var kind InterventionKind
		switch r.Kind {
		case "itn":
			kind = InterventionITN
		case "irs":
			kind = InterventionIRS
		case "gvi":
			kind = InterventionGVI
		case "pev":
			kind = InterventionVaccinePEV
		case "bsv":
			kind = InterventionVaccineBSV
		case "tbv":
			kind = InterventionVaccineTBV
		}
		var trigger DeploymentTrigger
		if r.Trigger == "continuous_age" {
			trigger = DeployContinuousAge
		}
		shape, err := decayShapeFromName(r.DecayShape)
		if err != nil {
			return nil, NewScenarioError(errors.Wrapf(err, "intervention[%d]", i))
		}
		out[i] = DeploymentSchedule{
			Kind:            kind,
			Trigger:         trigger,
			Coverage:        r.Coverage,
			TimedDays:       r.TimedDays,
			MinAgeYears:     r.MinAgeYears,
			MaxAgeYears:     r.MaxAgeYears,
			SubPop:          r.SubPop,
			Decay:           NewDecayFunc(shape, r.DecayL, r.DecayK),
			HeterogeneityCV: r.HeterogeneityCV,
			Effect: InterventionEffect{
				DeterrencyReduction:     r.DeterrencyReduction,
				PreprandialKillingProb:  r.PreprandialKillingProb,
				PostprandialKillingProb: r.PostprandialKillingProb,
				InitialEfficacy:         r.InitialEfficacy,
			},
			HoleRateMean:          r.HoleRateMean,
			HoleRateCV:            r.HoleRateCV,
			RipRateMean:           r.RipRateMean,
			RipRateCV:             r.RipRateCV,
			RipFactor:             r.RipFactor,
			DisposalMeanDays:      r.DisposalMeanDays,
			VaccineDoses:          r.VaccineDoses,
			DoseIntervalDays:      r.DoseIntervalDays,
			DoseEfficacyBetaAlpha: r.DoseEfficacyBetaAlpha,
			DoseEfficacyBetaBeta:  r.DoseEfficacyBetaBeta,
			InsecticideContentCV:  r.InsecticideContentCV,
		}
	}
	return out, nil
}

func decayShapeFromName(name string) (DecayShape, error) {
	switch name {
	case "constant":
		return DecayConstant, nil
	case "step":
		return DecayStep, nil
	case "linear":
		return DecayLinear, nil
	case "exponential":
		return DecayExponential, nil
	case "weibull":
		return DecayWeibull, nil
	case "hill":
		return DecayHill, nil
	case "smooth_compact":
		return DecaySmoothCompact, nil
	}
	return 0, errors.Errorf("unknown decay shape %q", name)
}
