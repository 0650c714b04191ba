package openmalaria

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// GenotypeInfo is a static row in the genotype registry: an id, its initial
// population frequency, an HRP2-deficiency flag affecting diagnostic
// sensitivity, and indices into drug-response phenotype tables.
type GenotypeInfo struct {
	ID             int
	InitialFreq    float64
	HRP2Deficient  bool
	PhenotypeIndex int
}

// GenotypeRegistry is the process-wide, read-only-after-load catalogue of
// parasite genotypes (spec.md §3, §4.C). Grounded on the teacher's
// GenotypeSet pattern, trimmed of the mutation/lineage-tree machinery since
// this registry is a static table, not an evolving sequence population.
type GenotypeRegistry struct {
	byID  map[int]*GenotypeInfo
	order []int
}

// NewGenotypeRegistry builds a registry from the given rows. Returns an
// error if ids repeat or frequencies do not sum to ~1.
func NewGenotypeRegistry(rows []GenotypeInfo) (*GenotypeRegistry, error) {
	reg := &GenotypeRegistry{byID: make(map[int]*GenotypeInfo, len(rows))}
	var total float64
	for i := range rows {
		row := rows[i]
		if _, exists := reg.byID[row.ID]; exists {
			return nil, NewScenarioError(fmt.Errorf("duplicate genotype id %d", row.ID))
		}
		reg.byID[row.ID] = &row
		reg.order = append(reg.order, row.ID)
		total += row.InitialFreq
	}
	if len(rows) > 0 && (total < 0.999 || total > 1.001) {
		return nil, NewScenarioError(fmt.Errorf("genotype initial frequencies sum to %f, expected 1.0", total))
	}
	return reg, nil
}

// Get returns the GenotypeInfo for id, or an error if unknown.
func (r *GenotypeRegistry) Get(id int) (*GenotypeInfo, error) {
	info, ok := r.byID[id]
	if !ok {
		return nil, NewScenarioError(fmt.Errorf(GenotypeNotFoundError, id))
	}
	return info, nil
}

// IDs returns the registry's genotype ids in registration order.
func (r *GenotypeRegistry) IDs() []int {
	return r.order
}

// Sample draws a genotype id using the supplied weights, keyed by the same
// order as IDs(). A zero-length weight vector means "sample from the
// registry's initial frequencies" (spec.md §4.C).
func (r *GenotypeRegistry) Sample(s *Sampler, weights []float64) int {
	if len(weights) == 0 {
		weights = make([]float64, len(r.order))
		for i, id := range r.order {
			weights[i] = r.byID[id].InitialFreq
		}
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return r.order[0]
	}
	u := s.Uniform01() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if u < cum {
			return r.order[i]
		}
	}
	return r.order[len(r.order)-1]
}

// originTag pairs a ksuid-stable identifier with an infection origin
// (imported, introduced, or indigenous) without needing a full lineage tree
// (the teacher's ksuid use in genotype.go, repurposed for origin tagging
// rather than node identity). No Infection stores an originTag: infections
// record only their InfectionOrigin.
type originTag struct {
	id     ksuid.KSUID
	origin InfectionOrigin
}

func newOriginTag(origin InfectionOrigin) originTag {
	return originTag{id: ksuid.New(), origin: origin}
}

// InfectionOrigin classifies how an infection entered a host.
type InfectionOrigin int

const (
	OriginIndigenous InfectionOrigin = iota
	OriginImported
	OriginIntroduced
)
