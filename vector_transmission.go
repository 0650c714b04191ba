package openmalaria

// VectorSpeciesParams configure one anopheline species' delay-difference
// transmission model (spec.md §4.I).
type VectorSpeciesParams struct {
	Name                     string
	EIPDays                  int     // n: extrinsic incubation period
	FeedingCycleDurationDays int     // tau
	ProbFeedingSurvival      float64 // P_A-complement components pre-multiplied by caller
	HumanBloodIndex          float64
	MosqSeekingDeathRate     float64
	MosqSeekingDuration      float64
	MinInfectedThreshold     float64 // below this, S_v/O_v/N_v clamp to 0 (extinction)

	// Mean/CV of the per-host×species P_B/P_C/P_D beta draws (spec.md
	// §4.J). A non-positive mean falls back to 0.95.
	ProbMosqBitingMean       float64
	ProbMosqBitingCV         float64
	ProbMosqFindsRestMean    float64
	ProbMosqFindsRestCV      float64
	ProbMosqRestSurvivalMean float64
	ProbMosqRestSurvivalCV   float64
}

// VectorPopulation tracks one species' delay-difference state: N_v
// (total), O_v (infected, not yet infectious), S_v (infectious), each a
// ring buffer one slot longer than the longest lag read,
// max(tau, n+(maxEIPFeedingCycles-1)*tau) days, per spec.md §4.I.
// Grounded on the teacher's ring-buffer idiom in host.go's event-history
// deque, generalised to float-valued per-day state.
type VectorPopulation struct {
	params VectorSpeciesParams

	bufLen int
	pos    int
	nv     []float64 // total host-seeking mosquitoes, ring buffer
	ov     []float64 // infected but not infectious
	sv     []float64 // infectious

	// P_A, P_df, P_dif, P_dff history needed for the n-day and tau-day
	// lagged recursions.
	pA   []float64
	pDf  []float64
	pDif []float64
	pDff []float64

	emergence EmergenceModel
	day       int
}

// NewVectorPopulation allocates ring buffers one slot longer than the
// longest lag the recursions read, theta_s = n + (maxEIPFeedingCycles-1)*tau,
// so that lag never maps onto today's index.
func NewVectorPopulation(params VectorSpeciesParams, emergence EmergenceModel) *VectorPopulation {
	horizon := params.EIPDays + (maxEIPFeedingCycles-1)*params.FeedingCycleDurationDays
	if params.FeedingCycleDurationDays > horizon {
		horizon = params.FeedingCycleDurationDays
	}
	horizon++
	if horizon < 1 {
		horizon = 1
	}
	return &VectorPopulation{
		params:    params,
		bufLen:    horizon,
		nv:        make([]float64, horizon),
		ov:        make([]float64, horizon),
		sv:        make([]float64, horizon),
		pA:        make([]float64, horizon),
		pDf:       make([]float64, horizon),
		pDif:      make([]float64, horizon),
		pDff:      make([]float64, horizon),
		emergence: emergence,
	}
}

func (v *VectorPopulation) idx(offset int) int {
	i := (v.pos + offset) % v.bufLen
	if i < 0 {
		i += v.bufLen
	}
	return i
}

// Nv, Ov, Sv read today's (just-updated) ring-buffer values.
func (v *VectorPopulation) Nv() float64 { return v.nv[v.idx(0)] }
func (v *VectorPopulation) Ov() float64 { return v.ov[v.idx(0)] }
func (v *VectorPopulation) Sv() float64 { return v.sv[v.idx(0)] }

// maxEIPFeedingCycles bounds k in the S_v sporozoite-rate sum's
// theta_s = n + k*tau lags: the number of extra feeding cycles a mosquito
// infected theta_s days ago may have survived while completing a
// multi-cycle EIP (spec.md §4.I).
const maxEIPFeedingCycles = 4

// Update advances the delay-difference system by one day given today's
// aggregated population-level biting probabilities pA/pDf/pDif/pDff
// (spec.md §4.I):
//
//	N_v(d) = N_v0(d) + P_A(d-1)*N_v(d-1) + P_df(d-tau)*N_v(d-tau)
//	O_v(d) = P_A(d-1)*O_v(d-1) + P_df(d-tau)*O_v(d-tau) + P_dif(d-n)*N_v(d-n)
//	S_v(d) = sum_k f_k*P_dif(d-theta_s)*N_v(d-theta_s)
//	         + P_A(d-1)*S_v(d-1) + P_df(d-tau)*S_v(d-tau)
//
// where theta_s = n + k*tau and f_k is the probability of surviving the k
// extra feeding cycles needed to complete incubation, approximated as the
// k-th power of the most recent per-cycle survival probability P_A+P_df.
//
// Below MinInfectedThreshold is clamped to zero to prevent numerical
// extinction from going negative, the I-VEC-NONNEG invariant.
func (v *VectorPopulation) Update(dayOfYear int, pA, pDf, pDif, pDff float64) {
	tau := v.params.FeedingCycleDurationDays
	n := v.params.EIPDays

	v.pos = (v.pos + 1) % v.bufLen
	cur := v.idx(0)
	oneAgo := v.idx(-1)
	tauAgo := v.idx(-tau)
	nAgo := v.idx(-n)

	v.pA[cur] = pA
	v.pDf[cur] = pDf
	v.pDif[cur] = pDif
	v.pDff[cur] = pDff

	pAOneAgo := v.pA[oneAgo]
	pDfTauAgo := v.pDf[tauAgo]
	survivalOneAgo := pAOneAgo + pDfTauAgo

	nvOneAgo := v.nv[oneAgo]
	nvTauAgo := v.nv[tauAgo]
	ovOneAgo := v.ov[oneAgo]
	ovTauAgo := v.ov[tauAgo]
	svOneAgo := v.sv[oneAgo]
	svTauAgo := v.sv[tauAgo]

	emergeToday := v.emergence.Emergence(dayOfYear, nvTauAgo*pDfTauAgo)

	v.nv[cur] = emergeToday + pAOneAgo*nvOneAgo + pDfTauAgo*nvTauAgo

	pDifNAgo := v.pDif[nAgo]
	nvNAgo := v.nv[nAgo]
	v.ov[cur] = pAOneAgo*ovOneAgo + pDfTauAgo*ovTauAgo + pDifNAgo*nvNAgo

	var sporozoiteInput float64
	fk := 1.0
	for k := 0; k < maxEIPFeedingCycles; k++ {
		thetaS := n + k*tau
		if thetaS >= v.bufLen {
			break
		}
		thetaAgo := v.idx(-thetaS)
		sporozoiteInput += fk * v.pDif[thetaAgo] * v.nv[thetaAgo]
		fk *= survivalOneAgo
	}
	v.sv[cur] = sporozoiteInput + pAOneAgo*svOneAgo + pDfTauAgo*svTauAgo

	if v.nv[cur] < v.params.MinInfectedThreshold {
		v.nv[cur] = 0
	}
	if v.ov[cur] < v.params.MinInfectedThreshold || v.ov[cur] > v.nv[cur] {
		if v.ov[cur] < v.params.MinInfectedThreshold {
			v.ov[cur] = 0
		}
	}
	if v.sv[cur] < v.params.MinInfectedThreshold {
		v.sv[cur] = 0
	}
	if v.sv[cur] > v.ov[cur] {
		v.sv[cur] = v.ov[cur]
	}
	if v.ov[cur] > v.nv[cur] {
		v.ov[cur] = v.nv[cur]
	}

	v.day++
}

// EIR returns today's entomological inoculation rate contribution from
// this species: S_v * feeding rate on humans.
func (v *VectorPopulation) EIR(bitesPerMosquitoOnHumans float64) float64 {
	return v.Sv() * bitesPerMosquitoOnHumans
}
