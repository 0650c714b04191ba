package openmalaria

import "testing"

func TestInterventionSet_DeployAndDecay(t *testing.T) {
	is := NewInterventionSet()
	s := NewSampler(1, 0)
	sched := DeploymentSchedule{
		Kind:  InterventionITN,
		Decay: NewDecayFunc(DecayStep, 100, 0),
		Effect: InterventionEffect{
			DeterrencyReduction:    0.5,
			PreprandialKillingProb: 0.3,
			InitialEfficacy:        0.9,
		},
	}
	is.Deploy(s, 10, sched)

	deterrency, preprandial, _ := is.VectorialReduction(10)
	if deterrency >= 1 {
		t.Fatalf(InvalidFloatParameterError, "deterrency right after deployment", deterrency, "must be reduced below 1")
	}
	if preprandial >= 1 {
		t.Fatalf(InvalidFloatParameterError, "preprandial survival right after deployment", preprandial, "must be reduced below 1")
	}

	// Past the step decay's threshold, efficacy should be zero and the
	// reduction factors should return to 1 (no effect).
	deterrencyLate, preprandialLate, _ := is.VectorialReduction(10 + 200)
	if deterrencyLate != 1 {
		t.Fatalf(UnequalFloatParameterError, "deterrency after decay expiry", 1, deterrencyLate)
	}
	if preprandialLate != 1 {
		t.Fatalf(UnequalFloatParameterError, "preprandial survival after decay expiry", 1, preprandialLate)
	}
}

func TestInterventionSet_VaccineSurvivalDefaultsToOne(t *testing.T) {
	is := NewInterventionSet()
	pev, bsv := is.VaccineSurvival(0)
	if pev != 1 || bsv != 1 {
		t.Fatalf(UnequalFloatParameterError, "vaccine survival with no deployments", 1, pev)
	}
}

func TestInterventionSet_TBVFactorAfterDeployment(t *testing.T) {
	is := NewInterventionSet()
	s := NewSampler(2, 0)
	is.Deploy(s, 0, DeploymentSchedule{
		Kind:  InterventionVaccineTBV,
		Decay: NewDecayFunc(DecayConstant, 1, 0),
		Effect: InterventionEffect{
			InitialEfficacy: 0.8,
		},
	})
	factor := is.TBVFactor(0)
	if factor >= 1 {
		t.Fatalf(InvalidFloatParameterError, "TBV transmission factor right after deployment", factor, "must be reduced below 1")
	}
}

func TestInterventionSet_ReplacesPriorDeploymentOfSameKind(t *testing.T) {
	is := NewInterventionSet()
	s := NewSampler(3, 0)
	first := DeploymentSchedule{Kind: InterventionITN, Decay: NewDecayFunc(DecayConstant, 1, 0), Effect: InterventionEffect{InitialEfficacy: 0.1}}
	second := DeploymentSchedule{Kind: InterventionITN, Decay: NewDecayFunc(DecayConstant, 1, 0), Effect: InterventionEffect{InitialEfficacy: 0.9}}
	is.Deploy(s, 0, first)
	is.Deploy(s, 5, second)
	if len(is.active) != 1 {
		t.Fatalf(UnequalIntParameterError, "active intervention count after redeployment", 1, len(is.active))
	}
	hi, _ := is.Get(InterventionITN)
	if hi.DeployDay != 5 {
		t.Fatalf(UnequalIntParameterError, "deploy day after redeployment", 5, hi.DeployDay)
	}
}

func TestInterventionSet_ZeroHoleRateNeverDegradesITN(t *testing.T) {
	is := NewInterventionSet()
	s := NewSampler(4, 0)
	sched := DeploymentSchedule{
		Kind:   InterventionITN,
		Decay:  NewDecayFunc(DecayConstant, 1000, 0),
		Effect: InterventionEffect{DeterrencyReduction: 0.5, InitialEfficacy: 0.9},
	}
	is.Deploy(s, 0, sched)
	for day := 1; day <= 30; day++ {
		is.AdvanceDaily(s, day)
	}
	hi, ok := is.Get(InterventionITN)
	if !ok {
		t.Fatalf("expected the ITN to remain active with no disposal time configured")
	}
	if hi.ITN.HoleIndex != 0 {
		t.Fatalf(UnequalFloatParameterError, "hole index with zero configured hole rate", 0, hi.ITN.HoleIndex)
	}
	if hi.CurrentEfficacy(30) != hi.Effect.InitialEfficacy {
		t.Fatalf(UnequalFloatParameterError, "ITN efficacy with no physical degradation", hi.Effect.InitialEfficacy, hi.CurrentEfficacy(30))
	}
}

func TestInterventionSet_ITNHolesAccumulateAndReduceEfficacy(t *testing.T) {
	is := NewInterventionSet()
	s := NewSampler(5, 0)
	sched := DeploymentSchedule{
		Kind:         InterventionITN,
		Decay:        NewDecayFunc(DecayConstant, 1000, 0),
		Effect:       InterventionEffect{InitialEfficacy: 1.0},
		HoleRateMean: 2, HoleRateCV: 0.1,
		RipRateMean: 1, RipRateCV: 0.1,
		RipFactor: 1,
	}
	is.Deploy(s, 0, sched)
	for day := 1; day <= 60; day++ {
		is.AdvanceDaily(s, day)
	}
	hi, _ := is.Get(InterventionITN)
	if hi.ITN.HoleIndex <= 0 {
		t.Fatalf(InvalidFloatParameterError, "hole index after 60 days of hole accumulation", hi.ITN.HoleIndex, "must be positive")
	}
	if eff := hi.CurrentEfficacy(60); eff >= 1 {
		t.Fatalf(InvalidFloatParameterError, "ITN efficacy after physical degradation", eff, "must be reduced below 1")
	}
}

func TestInterventionSet_ITNDisposedPastDisposalDayIsRemoved(t *testing.T) {
	is := NewInterventionSet()
	s := NewSampler(6, 0)
	sched := DeploymentSchedule{
		Kind:             InterventionITN,
		Decay:            NewDecayFunc(DecayConstant, 1000, 0),
		Effect:           InterventionEffect{InitialEfficacy: 1.0},
		DisposalMeanDays: 10,
	}
	is.Deploy(s, 0, sched)
	for day := 1; day <= 60; day++ {
		is.AdvanceDaily(s, day)
	}
	if _, ok := is.Get(InterventionITN); ok {
		t.Fatalf("expected the ITN to have been discarded by day 60 with a disposal mean of 10 days")
	}
}

func TestInterventionSet_VaccineDosesCombineProtection(t *testing.T) {
	is := NewInterventionSet()
	s := NewSampler(7, 0)
	sched := DeploymentSchedule{
		Kind:                  InterventionVaccinePEV,
		Decay:                 NewDecayFunc(DecayConstant, 1000, 0),
		Effect:                InterventionEffect{InitialEfficacy: 0.5},
		VaccineDoses:          3,
		DoseIntervalDays:      30,
		DoseEfficacyBetaAlpha: 0,
		DoseEfficacyBetaBeta:  0,
	}
	is.Deploy(s, 0, sched)
	hi, _ := is.Get(InterventionVaccinePEV)
	singleDose := hi.CurrentEfficacy(1)

	for day := 1; day <= 90; day++ {
		is.AdvanceDaily(s, day)
	}
	if hi.Vaccine.Doses != 3 {
		t.Fatalf(UnequalIntParameterError, "administered dose count after 90 days at a 30-day interval", 3, hi.Vaccine.Doses)
	}
	combined := hi.CurrentEfficacy(90)
	if combined <= singleDose {
		t.Fatalf(InvalidFloatParameterError, "combined efficacy after three doses", combined, "must exceed a single dose's efficacy")
	}
}

func TestInterventionSet_IRSInsecticideContentMultipliesEfficacy(t *testing.T) {
	is := NewInterventionSet()
	s := NewSampler(8, 0)
	sched := DeploymentSchedule{
		Kind:                 InterventionIRS,
		Decay:                NewDecayFunc(DecayConstant, 1000, 0),
		Effect:               InterventionEffect{InitialEfficacy: 1.0},
		InsecticideContentCV: 0,
	}
	is.Deploy(s, 0, sched)
	hi, _ := is.Get(InterventionIRS)
	if hi.IRS.InsecticideContent != 1 {
		t.Fatalf(UnequalFloatParameterError, "IRS insecticide content with CV disabled", 1, hi.IRS.InsecticideContent)
	}
	if eff := hi.CurrentEfficacy(0); eff != 1 {
		t.Fatalf(UnequalFloatParameterError, "IRS efficacy with insecticide content fixed at 1", 1, eff)
	}
}
