package openmalaria

import "math"

// HostVectorParams are the per-host, per-species availability/biting/
// resting parameters that feed the vector transmission ring buffers
// (spec.md §4.J). One instance exists per (host, species) pair.
type HostVectorParams struct {
	RelativeAvailability float64 // alpha_i: intrinsic per-host availability
	ProbMosqBiting       float64 // P_B,i: probability a host-seeking mosquito bites if it reaches this host
	ProbMosqFindsRest    float64 // P_C,i: probability the mosquito survives and finds a resting spot
	ProbMosqRestSurvival float64 // P_D,i: probability it survives resting and returns to seek
}

// PopulationBitingAggregate accumulates the population-level inputs the
// delay-difference recursion needs for one species on one day (spec.md
// §4.I/§4.J): total human availability, and infectiousness-weighted
// availability for the N_v->O_v and O_v->S_v terms.
type PopulationBitingAggregate struct {
	totalAvailability     float64
	infectiousAvailability float64
	nHosts                int
}

// NewPopulationBitingAggregate returns a zeroed aggregate.
func NewPopulationBitingAggregate() *PopulationBitingAggregate {
	return &PopulationBitingAggregate{}
}

// SampleHostVectorParams draws one host's per-species P_B/P_C/P_D biting/
// resting-survival probabilities as independent beta draws from the
// species' configured mean/CV (spec.md §4.J), falling back to a mean of
// 0.95 when a species leaves a mean unconfigured.
func SampleHostVectorParams(s *Sampler, sp VectorSpeciesParams, availability float64) HostVectorParams {
	return HostVectorParams{
		RelativeAvailability: availability,
		ProbMosqBiting:       sampleProbMeanCV(s, sp.ProbMosqBitingMean, sp.ProbMosqBitingCV),
		ProbMosqFindsRest:    sampleProbMeanCV(s, sp.ProbMosqFindsRestMean, sp.ProbMosqFindsRestCV),
		ProbMosqRestSurvival: sampleProbMeanCV(s, sp.ProbMosqRestSurvivalMean, sp.ProbMosqRestSurvivalCV),
	}
}

func sampleProbMeanCV(s *Sampler, mean, cv float64) float64 {
	if mean <= 0 {
		mean = 0.95
	}
	return NewBetaSamplerCV(mean, cv).Sample(s)
}

// AddHost folds one host's contribution into the aggregate: its relative
// availability (scaled by active ITN/IRS/GVI deterrency and by P_B + P_C*P_D,
// the host's own biting/resting-survival weight, spec.md §4.J), and, if the
// host is currently infectious to mosquitoes, that availability weighted by
// its transmission probability.
func (agg *PopulationBitingAggregate) AddHost(hv HostVectorParams, deterrency float64, probTransmit float64) {
	feedingWeight := hv.ProbMosqBiting + hv.ProbMosqFindsRest*hv.ProbMosqRestSurvival
	avail := hv.RelativeAvailability * deterrency * feedingWeight
	agg.totalAvailability += avail
	agg.infectiousAvailability += avail * probTransmit
	agg.nHosts++
}

// BitingProbabilities derives the population-level P_A/P_df/P_dif/P_dff
// inputs to VectorPopulation.Update from the folded aggregate and the
// species' non-human-feeding and survival parameters (spec.md §4.I):
//
//	P_A   = prob a mosquito fails to find a host and survives searching
//	P_df  = prob it feeds on a human and survives the full feeding cycle
//	P_dif = P_df weighted by the probability the fed-upon human infects it
//	P_dff = returned equal to P_dif; VectorPopulation.Update records it but
//	        none of its recursions read it
func (agg *PopulationBitingAggregate) BitingProbabilities(sp VectorSpeciesParams) (pA, pDf, pDif, pDff float64) {
	if agg.nHosts == 0 {
		pA = sp.ProbFeedingSurvival
		return
	}
	meanAvail := agg.totalAvailability / float64(agg.nHosts)
	probFeedsHuman := 1 - math.Exp(-meanAvail*sp.MosqSeekingDuration)
	survivesCycle := sp.ProbFeedingSurvival

	pDf = probFeedsHuman * survivesCycle * sp.HumanBloodIndex
	pA = (1 - probFeedsHuman) * survivesCycle

	var probInfectsGivenFeed float64
	if agg.totalAvailability > 0 {
		probInfectsGivenFeed = agg.infectiousAvailability / agg.totalAvailability
	}
	pDif = pDf * probInfectsGivenFeed
	pDff = pDif
	return
}
