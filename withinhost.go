package openmalaria

import "math"

// LagBufferDays is the length of the infectiousness lag buffer (spec.md
// §3, L = ceil(20 days / step)).
const LagBufferDays = 20

// WithinHostParams collects the immunity-model parameters from spec.md
// §4.E step 2: exp(-(cumH/Hstar + cumY/Ystar + alpha_m*exp(-age/decayM))).
type WithinHostParams struct {
	HStar, YStar   float64
	AlphaM, DecayM float64
	StepLengthDays int
}

// WithinHost owns a host's infections and immunity accumulators (spec.md
// §3, §4.E). Grounded on the teacher's SequenceHost ownership pattern
// (host exclusively owns its pathogens) and epidemic.go's InfectedProcess
// per-step pipeline shape (replicate -> mutate -> recompute aggregate
// state), replaced here with inoculate -> update -> aggregate.
type WithinHost struct {
	params     WithinHostParams
	model      InfectionModel
	infections []Infection

	totalDensity float64
	hrp2Density  float64
	cumH         int
	cumY         float64

	// lagBuffer[day mod LagBufferDays][genotype] holds per-genotype
	// totalDensity snapshots, split indigenous vs imported by storing
	// separate buffers.
	lagIndigenous map[int][]float64
	lagImported   map[int][]float64
	lagDay        int

	treatExpiryLiver int // SimTime day; 0 means no active liver-stage treatment
	treatExpiryBlood int

	bodyMass float64
}

// NewWithinHost constructs an empty within-host state for a host with the
// given body mass (kg), immunity parameters, and infection model.
func NewWithinHost(params WithinHostParams, model InfectionModel, bodyMass float64) *WithinHost {
	return &WithinHost{
		params:        params,
		model:         model,
		lagIndigenous: make(map[int][]float64),
		lagImported:   make(map[int][]float64),
		bodyMass:      bodyMass,
	}
}

// TotalDensity returns the sum of current densities across infections.
func (w *WithinHost) TotalDensity() float64 { return w.totalDensity }

// HRP2Density returns total density excluding HRP2-deficient infections.
func (w *WithinHost) HRP2Density() float64 { return w.hrp2Density }

// CumulativeH returns the cumulative count of infections since birth.
func (w *WithinHost) CumulativeH() int { return w.cumH }

// CumulativeY returns the cumulative parasite-days since birth.
func (w *WithinHost) CumulativeY() float64 { return w.cumY }

// Infections returns the host's current infection set (read-only view).
func (w *WithinHost) Infections() []Infection { return w.infections }

// Update performs one simulation step per spec.md §4.E:
//  1. Add new infections up to MaxInfections.
//  2. Compute immunity survival factor per infection.
//  3. Update each infection; remove extinct or treated-away ones.
//  4. Recompute totalDensity/hrp2Density.
//  5. Append to the lag buffer.
//  6. Increment cumH/cumY.
func (w *WithinHost) Update(s *Sampler, now int, nNewIndigenous, nNewImported int, genotypes *GenotypeRegistry, genotypeWeights []float64, ageYears float64, pevSurvival, bsvFactor, innateFactor float64) {
	w.inoculate(s, nNewIndigenous, OriginIndigenous, genotypes, genotypeWeights, pevSurvival)
	w.inoculate(s, nNewImported, OriginImported, genotypes, genotypeWeights, pevSurvival)

	survivalAgeTerm := w.params.AlphaM * math.Exp(-ageYears/w.params.DecayM)

	kept := w.infections[:0]
	for _, inf := range w.infections {
		if w.treatedAway(inf, now) {
			continue
		}
		survival := math.Exp(-(float64(w.cumH)/w.params.HStar + w.cumY/w.params.YStar + survivalAgeTerm))
		extinct := inf.Update(s, survival, innateFactor, bsvFactor, w.bodyMass, w.cumH)
		if extinct || inf.Expired() {
			continue
		}
		kept = append(kept, inf)
	}
	w.infections = kept

	w.recomputeDensity()
	w.appendLag(genotypes)

	step := w.params.StepLengthDays
	if step <= 0 {
		step = 1
	}
	w.cumY += w.totalDensity * float64(step)
}

func (w *WithinHost) inoculate(s *Sampler, n int, origin InfectionOrigin, genotypes *GenotypeRegistry, weights []float64, pevSurvival float64) {
	if n > MaxInfections {
		n = MaxInfections // silently clamped, spec.md §4.E failure modes
	}
	for i := 0; i < n; i++ {
		if len(w.infections) >= MaxInfections {
			break
		}
		if pevSurvival < 1 && !s.Bernoulli(pevSurvival) {
			continue // PEV vaccine blocked this inoculation
		}
		gid := genotypes.Sample(s, weights)
		info, err := genotypes.Get(gid)
		hrp2 := false
		if err == nil {
			hrp2 = info.HRP2Deficient
		}
		inf := w.model.Create(s, gid, origin, hrp2)
		w.infections = append(w.infections, inf)
		w.cumH++
	}
}

func (w *WithinHost) treatedAway(inf Infection, now int) bool {
	if !inf.BloodStage() && w.treatExpiryLiver > now {
		return true
	}
	if inf.BloodStage() && w.treatExpiryBlood > now {
		return true
	}
	return false
}

func (w *WithinHost) recomputeDensity() {
	var total, hrp2 float64
	for _, inf := range w.infections {
		total += inf.Density()
		if !inf.IsHRP2Deficient() {
			hrp2 += inf.Density()
		}
	}
	w.totalDensity = total
	w.hrp2Density = hrp2
}

func (w *WithinHost) appendLag(genotypes *GenotypeRegistry) {
	day := w.lagDay % LagBufferDays
	for _, id := range genotypes.IDs() {
		if w.lagIndigenous[id] == nil {
			w.lagIndigenous[id] = make([]float64, LagBufferDays)
			w.lagImported[id] = make([]float64, LagBufferDays)
		}
		w.lagIndigenous[id][day] = 0
		w.lagImported[id][day] = 0
	}
	for _, inf := range w.infections {
		id := inf.Genotype()
		if w.lagIndigenous[id] == nil {
			w.lagIndigenous[id] = make([]float64, LagBufferDays)
			w.lagImported[id] = make([]float64, LagBufferDays)
		}
		switch inf.Origin() {
		case OriginImported, OriginIntroduced:
			w.lagImported[id][day] += inf.Density()
		default:
			w.lagIndigenous[id][day] += inf.Density()
		}
	}
	w.lagDay++
}

// lagValue returns the total (indigenous+imported) density recorded
// daysAgo days before now, for the given genotype. "Now" is the update about
// to run, so daysAgo ranges over 1..LagBufferDays.
func (w *WithinHost) lagValue(genotype, daysAgo int) float64 {
	idx := ((w.lagDay - daysAgo) % LagBufferDays + LagBufferDays) % LagBufferDays
	var v float64
	if arr, ok := w.lagIndigenous[genotype]; ok {
		v += arr[idx]
	}
	if arr, ok := w.lagImported[genotype]; ok {
		v += arr[idx]
	}
	return v
}

// ProbTransmissionToMosquito computes the per-host probability of
// infecting a biting mosquito using lagged densities from 10, 15, and 20
// days ago through a saturating function, weighted by per-genotype
// proportions in the same lag window, and scaled by TBV vaccine efficacy
// (spec.md §4.E).
func (w *WithinHost) ProbTransmissionToMosquito(genotypeIDs []int, tbvFactor float64) (float64, map[int]float64) {
	var sumX float64
	perGenotype := make(map[int]float64, len(genotypeIDs))
	for _, gid := range genotypeIDs {
		x := w.lagValue(gid, 10) + w.lagValue(gid, 15) + w.lagValue(gid, 20)
		perGenotype[gid] = x
		sumX += x
	}
	if sumX <= 0 {
		return 0, perGenotype
	}
	p := (sumX / (sumX + 1)) * tbvFactor // saturating function, k=1 scale fixed by convention
	for gid := range perGenotype {
		perGenotype[gid] /= sumX
	}
	return clamp01(p), perGenotype
}

// Treatment clears liver-stage only, blood-stage only, or both immediately,
// and/or arms treatExpiryLiver/treatExpiryBlood for a drug's prophylactic
// window (spec.md §4.E).
func (w *WithinHost) Treatment(now int, clearLiver, clearBlood bool, liverExpiry, bloodExpiry int) {
	if clearLiver || clearBlood {
		kept := w.infections[:0]
		for _, inf := range w.infections {
			if clearLiver && !inf.BloodStage() {
				continue
			}
			if clearBlood && inf.BloodStage() {
				continue
			}
			kept = append(kept, inf)
		}
		w.infections = kept
		w.recomputeDensity()
	}
	if liverExpiry > 0 && now+liverExpiry > w.treatExpiryLiver {
		w.treatExpiryLiver = now + liverExpiry
	}
	if bloodExpiry > 0 && now+bloodExpiry > w.treatExpiryBlood {
		w.treatExpiryBlood = now + bloodExpiry
	}
}

// Summarize reports patent/by-genotype statistics to the monitoring sink
// and returns whether the host is patent under diagnosticThreshold.
func (w *WithinHost) Summarize(sink MonitoringSink, hostID, surveyPeriod, ageGroup int, diagnosticThreshold float64) bool {
	byOrigin := map[InfectionOrigin]int{}
	for _, inf := range w.infections {
		byOrigin[inf.Origin()]++
		sink.IncrementReal(MeasureInfectedDensity, surveyPeriod, ageGroup, inf.Genotype(), inf.Density())
	}
	sink.Increment(MeasureTotalInfections, surveyPeriod, ageGroup, -1, len(w.infections))
	patent := w.hrp2Density >= diagnosticThreshold
	if patent {
		sink.Increment(MeasurePatentHosts, surveyPeriod, ageGroup, -1, 1)
	}
	return patent
}

// ClearImmunity zeros cumH, cumY, and the infectiousness lag buffers
// (spec.md §4.E). Each infection's own CumulativeExposureJ is left
// unchanged.
func (w *WithinHost) ClearImmunity() {
	w.cumH = 0
	w.cumY = 0
	for id := range w.lagIndigenous {
		for i := range w.lagIndigenous[id] {
			w.lagIndigenous[id][i] = 0
			w.lagImported[id][i] = 0
		}
	}
}

// DetermineMorbidity delegates to the configured pathogenesis model using
// totalDensity and the time-step max density (spec.md §4.E).
func (w *WithinHost) DetermineMorbidity(s *Sampler, p Pathogenesis, ageYears float64) (ClinicalState, bool) {
	stepMax := 0.0
	for _, inf := range w.infections {
		if inf.StepMaxDensity() > stepMax {
			stepMax = inf.StepMaxDensity()
		}
	}
	return p.Determine(s, w.totalDensity, stepMax, ageYears)
}
