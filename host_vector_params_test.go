package openmalaria

import "testing"

func TestSampleHostVectorParams_DefaultsToPoint95WhenMeanUnconfigured(t *testing.T) {
	s := NewSampler(1, 0)
	sp := VectorSpeciesParams{}
	hv := SampleHostVectorParams(s, sp, 1)
	if hv.ProbMosqBiting != 0.95 || hv.ProbMosqFindsRest != 0.95 || hv.ProbMosqRestSurvival != 0.95 {
		t.Fatalf(UnequalFloatParameterError, "default biting/resting probabilities with no mean configured", 0.95, hv.ProbMosqBiting)
	}
}

func TestSampleHostVectorParams_SamplesVaryWithConfiguredCV(t *testing.T) {
	sp := VectorSpeciesParams{
		ProbMosqBitingMean: 0.5, ProbMosqBitingCV: 0.3,
		ProbMosqFindsRestMean: 0.5, ProbMosqFindsRestCV: 0.3,
		ProbMosqRestSurvivalMean: 0.5, ProbMosqRestSurvivalCV: 0.3,
	}
	a := SampleHostVectorParams(NewSampler(1, 0), sp, 1)
	b := SampleHostVectorParams(NewSampler(1, 1), sp, 1)
	if a.ProbMosqBiting == b.ProbMosqBiting && a.ProbMosqFindsRest == b.ProbMosqFindsRest && a.ProbMosqRestSurvival == b.ProbMosqRestSurvival {
		t.Fatalf("expected independently seeded hosts to draw different biting/resting probabilities")
	}
	for _, v := range []float64{a.ProbMosqBiting, a.ProbMosqFindsRest, a.ProbMosqRestSurvival, b.ProbMosqBiting, b.ProbMosqFindsRest, b.ProbMosqRestSurvival} {
		if v < 0 || v > 1 {
			t.Fatalf(InvalidFloatParameterError, "sampled biting/resting probability", v, "must stay in [0,1]")
		}
	}
}

func TestAddHost_WeightsAvailabilityByFeedingProbabilities(t *testing.T) {
	agg := NewPopulationBitingAggregate()
	full := HostVectorParams{RelativeAvailability: 1, ProbMosqBiting: 1, ProbMosqFindsRest: 1, ProbMosqRestSurvival: 1}
	agg.AddHost(full, 1, 0)

	aggZero := NewPopulationBitingAggregate()
	zero := HostVectorParams{RelativeAvailability: 1}
	aggZero.AddHost(zero, 1, 0)

	if agg.totalAvailability <= aggZero.totalAvailability {
		t.Fatalf(InvalidFloatParameterError, "availability with full biting/resting weight", agg.totalAvailability, "must exceed a host with zero biting/resting weight")
	}
	if aggZero.totalAvailability != 0 {
		t.Fatalf(UnequalFloatParameterError, "availability with zero biting/resting weight", 0, aggZero.totalAvailability)
	}
}
