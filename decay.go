package openmalaria

import "math"

// DecayShape selects one of the closed set of decay curves from spec.md
// §4.B. Matching the teacher's preference for a tagged sum type
// (mutator.go's matrix-vs-uniform Mutator construction) over open
// inheritance, DecayFunc below is a single concrete type parameterised by
// shape rather than a family of interface implementations.
type DecayShape int

const (
	DecayConstant DecayShape = iota
	DecayStep
	DecayLinear
	DecayExponential
	DecayWeibull
	DecayHill
	DecaySmoothCompact
)

// DecayFunc maps age-in-days to a survival factor in [0,1], parameterised
// by a half-life-equivalent L and, where the shape needs it, a shape k.
// Per-host heterogeneity is modeled by a separate DecayHeterogeneity
// multiplying the effective age before evaluation.
type DecayFunc struct {
	shape     DecayShape
	l         float64
	k         float64
	increasing bool

	// op holds a combinator (plus/minus/multiplies/divides) over two child
	// decay functions. When op != opNone, shape/l/k are unused.
	op       decayOp
	lhs, rhs *DecayFunc
}

type decayOp int

const (
	opNone decayOp = iota
	opPlus
	opMinus
	opMultiplies
	opDivides
)

// NewDecayFunc builds a leaf decay function of the given shape.
func NewDecayFunc(shape DecayShape, l, k float64) *DecayFunc {
	return &DecayFunc{shape: shape, l: l, k: k}
}

// Increasing returns a copy of d whose output is inverted (1 - f).
func (d *DecayFunc) Increasing() *DecayFunc {
	cp := *d
	cp.increasing = !cp.increasing
	return &cp
}

func combine(op decayOp, lhs, rhs *DecayFunc) *DecayFunc {
	return &DecayFunc{op: op, lhs: lhs, rhs: rhs}
}

// Plus combines two decay functions pointwise: clamp(lhs+rhs, 0, 1).
func Plus(lhs, rhs *DecayFunc) *DecayFunc { return combine(opPlus, lhs, rhs) }

// Minus combines two decay functions pointwise: clamp(lhs-rhs, 0, 1).
func Minus(lhs, rhs *DecayFunc) *DecayFunc { return combine(opMinus, lhs, rhs) }

// Multiplies combines two decay functions pointwise: clamp(lhs*rhs, 0, 1).
func Multiplies(lhs, rhs *DecayFunc) *DecayFunc { return combine(opMultiplies, lhs, rhs) }

// Divides combines two decay functions pointwise: clamp(lhs/rhs, 0, 1).
func Divides(lhs, rhs *DecayFunc) *DecayFunc { return combine(opDivides, lhs, rhs) }

// DecayHeterogeneity is the per-host, per-deployment multiplicative
// time-scale factor sampled once at first deployment and reused for every
// subsequent evaluation against that deployment. +Inf is the convention for
// "never deployed" and must always evaluate to 0.
type DecayHeterogeneity struct {
	factor float64
	set    bool
}

// UnsetHeterogeneity represents "never deployed": DecayFunc.Eval always
// returns 0 for it.
func UnsetHeterogeneity() DecayHeterogeneity {
	return DecayHeterogeneity{factor: math.Inf(1), set: true}
}

// SampleHeterogeneity draws the per-host time-scale factor, typically
// log-normal with a configured CV, at first deployment.
func SampleHeterogeneity(s *Sampler, cv float64) DecayHeterogeneity {
	if cv <= 0 {
		return DecayHeterogeneity{factor: 1, set: true}
	}
	sampler := NewLognormalSamplerCV(1, cv)
	return DecayHeterogeneity{factor: sampler.Sample(s), set: true}
}

// Eval evaluates the decay function at the given age-in-days, scaled by the
// per-host heterogeneity factor (which rescales the effective age).
func (d *DecayFunc) Eval(ageDays float64, het DecayHeterogeneity) float64 {
	if !het.set {
		het.factor = 1
	}
	if math.IsInf(het.factor, 1) {
		return 0
	}
	v := d.eval(ageDays*het.factor, het)
	if d.increasing {
		v = 1 - v
	}
	return clamp01(v)
}

func (d *DecayFunc) eval(age float64, het DecayHeterogeneity) float64 {
	if d.op != opNone {
		// age is already scaled by het.factor; children must not scale it again.
		unit := DecayHeterogeneity{factor: 1, set: true}
		lv := d.lhs.Eval(age, unit)
		rv := d.rhs.Eval(age, unit)
		switch d.op {
		case opPlus:
			return clamp01(lv + rv)
		case opMinus:
			return clamp01(lv - rv)
		case opMultiplies:
			return clamp01(lv * rv)
		case opDivides:
			if rv == 0 {
				return 0
			}
			return clamp01(lv / rv)
		}
	}
	switch d.shape {
	case DecayConstant:
		return 1
	case DecayStep:
		if age < d.l {
			return 1
		}
		return 0
	case DecayLinear:
		return math.Max(0, 1-age/d.l)
	case DecayExponential:
		return math.Exp(-age * math.Ln2 / d.l)
	case DecayWeibull:
		return math.Exp(-math.Pow(age*math.Pow(math.Ln2, 1/d.k)/d.l, d.k))
	case DecayHill:
		return 1 / (1 + math.Pow(age/d.l, d.k))
	case DecaySmoothCompact:
		if age >= d.l {
			return 0
		}
		ratio := age / d.l
		return math.Exp(d.k - d.k/(1-ratio*ratio))
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
