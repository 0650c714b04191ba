package openmalaria

import (
	"encoding/binary"
	"io"
	"math"
	"sort"
)

// checkpointMagic is the fixed 4-byte header identifying a checkpoint
// stream, matching spec.md §6.4's literal wire contract.
var checkpointMagic = [4]byte{'O', 'M', 'C', 'P'}

// checkpointCanaryFloat is written immediately after the header so a
// reader can detect endianness/float-format mismatches before trusting the
// rest of the stream (spec.md §6.4: header, then `true`, then `0xA5`, then
// `-0.0`, then NaN, then the ordered field writes). Go constant arithmetic
// collapses -0.0 to 0.0, so the negative zero must be produced at runtime.
func checkpointCanaryFloat() float64 { return math.Copysign(0, -1) }

// WriteCheckpoint serialises the population's resumable state to w in the
// exact field order spec.md §6.4 requires, using big-endian
// encoding/binary writes throughout. Grounded on the teacher's
// SQLiteLogger explicit-column-order writes (sqlite_logger.go), translated
// from SQL columns to binary fields.
func WriteCheckpoint(w io.Writer, p *Population) error {
	if err := writeHeader(w); err != nil {
		return NewCheckpointError(err)
	}
	if err := binary.Write(w, binary.BigEndian, int64(p.day)); err != nil {
		return NewCheckpointError(err)
	}
	if err := binary.Write(w, binary.BigEndian, int32(p.phase)); err != nil {
		return NewCheckpointError(err)
	}
	if err := binary.Write(w, binary.BigEndian, int32(len(p.hosts))); err != nil {
		return NewCheckpointError(err)
	}
	for _, h := range p.hosts {
		if err := writeHostCheckpoint(w, h); err != nil {
			return NewCheckpointError(err)
		}
	}
	if err := binary.Write(w, binary.BigEndian, int32(len(p.species))); err != nil {
		return NewCheckpointError(err)
	}
	for _, vp := range p.species {
		if err := writeVectorCheckpoint(w, vp); err != nil {
			return NewCheckpointError(err)
		}
	}
	return nil
}

func writeHeader(w io.Writer) error {
	if _, err := w.Write(checkpointMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, true); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, byte(0xA5)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, checkpointCanaryFloat()); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, math.NaN())
}

// writeHostCheckpoint writes one host in the field order spec.md §9
// requires: host id, then within-host state, then per-infection state in
// insertion order, then intervention records.
func writeHostCheckpoint(w io.Writer, h *Host) error {
	fields := []interface{}{
		int32(h.ID),
		int64(h.DOBDay),
		h.AvailabilityFactor,
		h.ComorbidityFactor,
		h.TreatmentSeekingFactor,
		h.InnateImmunityFactor,
		h.BodyMassKg,
		h.alive,
		int64(h.cumulativeInfections),
		int64(h.cumulativeEpisodes),
		h.WithinHost.TotalDensity(),
		int32(h.WithinHost.CumulativeH()),
		h.WithinHost.CumulativeY(),
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.BigEndian, f); err != nil {
			return err
		}
	}

	infections := h.WithinHost.Infections()
	if err := binary.Write(w, binary.BigEndian, int32(len(infections))); err != nil {
		return err
	}
	for _, inf := range infections {
		infFields := []interface{}{
			int32(inf.Genotype()),
			int32(inf.Origin()),
			inf.IsHRP2Deficient(),
			int32(inf.AgeDays()),
			inf.Density(),
			inf.CumulativeExposureJ(),
		}
		for _, f := range infFields {
			if err := binary.Write(w, binary.BigEndian, f); err != nil {
				return err
			}
		}
	}

	return writeInterventionCheckpoint(w, h.Interventions)
}

// writeInterventionCheckpoint writes a host's active intervention records,
// one per kind present, sorted by kind for determinism.
func writeInterventionCheckpoint(w io.Writer, is *InterventionSet) error {
	kinds := make([]int, 0, len(is.active))
	for k := range is.active {
		kinds = append(kinds, int(k))
	}
	sort.Ints(kinds)

	if err := binary.Write(w, binary.BigEndian, int32(len(kinds))); err != nil {
		return err
	}
	for _, k := range kinds {
		hi := is.active[InterventionKind(k)]
		fields := []interface{}{
			int32(hi.Kind),
			int64(hi.DeployDay),
			hi.Het.factor,
			hi.Effect.InitialEfficacy,
		}
		for _, f := range fields {
			if err := binary.Write(w, binary.BigEndian, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeVectorCheckpoint(w io.Writer, vp *VectorPopulation) error {
	fields := []interface{}{
		vp.Nv(),
		vp.Ov(),
		vp.Sv(),
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.BigEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// ReadCheckpointHeader validates the fixed header and canary values at the
// start of a checkpoint stream, returning an error if the stream was not
// produced by this implementation's WriteCheckpoint (spec.md §6.4's
// "--stream-validator" contract).
func ReadCheckpointHeader(r io.Reader) error {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return NewCheckpointError(err)
	}
	if magic != checkpointMagic {
		return NewCheckpointError(errCheckpointMagic(magic))
	}
	var boolCanary bool
	if err := binary.Read(r, binary.BigEndian, &boolCanary); err != nil {
		return NewCheckpointError(err)
	}
	if !boolCanary {
		return NewCheckpointError(errCheckpointCanary("bool"))
	}
	var byteCanary byte
	if err := binary.Read(r, binary.BigEndian, &byteCanary); err != nil {
		return NewCheckpointError(err)
	}
	if byteCanary != 0xA5 {
		return NewCheckpointError(errCheckpointCanary("byte"))
	}
	var floatCanary float64
	if err := binary.Read(r, binary.BigEndian, &floatCanary); err != nil {
		return NewCheckpointError(err)
	}
	if !math.Signbit(floatCanary) || floatCanary != 0 {
		return NewCheckpointError(errCheckpointCanary("-0.0"))
	}
	var nanCanary float64
	if err := binary.Read(r, binary.BigEndian, &nanCanary); err != nil {
		return NewCheckpointError(err)
	}
	if !math.IsNaN(nanCanary) {
		return NewCheckpointError(errCheckpointCanary("NaN"))
	}
	return nil
}

type checkpointMagicError struct{ got [4]byte }

func errCheckpointMagic(got [4]byte) error { return &checkpointMagicError{got: got} }

func (e *checkpointMagicError) Error() string {
	return "checkpoint stream missing OMCP header, got " + string(e.got[:])
}

type checkpointCanaryError struct{ field string }

func errCheckpointCanary(field string) error { return &checkpointCanaryError{field: field} }

func (e *checkpointCanaryError) Error() string {
	return "checkpoint stream canary mismatch at field " + e.field
}
