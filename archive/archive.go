// Package archive stores phase estimation results as a stream of framed
// protocol buffers.
//
// Each frame is: payload-length (uint32, little endian) | payload | crc32 of
// payload (IEEE, little endian). The payload is a google.protobuf.Struct.
package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jorconnor/qphase/phase"
	"github.com/jorconnor/qphase/sim"
)

// MaxFrameSize bounds the payload of a single frame.
const MaxFrameSize = 16 << 20

// minFrequency drops numerical noise from exact distributions.
const minFrequency = 1e-12

// ErrCorrupt is returned when a frame fails its checksum.
var ErrCorrupt = errors.New("archive: corrupt frame")

// Record is the archived form of a phase estimation result.
type Record struct {
	NumEvaluationQubits int
	Backend             string
	Mode                string // "statevector" or "sampling"
	Shots               int    // zero for statevector results
	MostLikelyPhase     float64
	Phases              []phase.Phase
}

// NewRecord captures every phase with a frequency above numerical noise.
func NewRecord(r *phase.Result) Record {
	rec := Record{
		NumEvaluationQubits: r.NumEvaluationQubits(),
		MostLikelyPhase:     r.MostLikelyPhase(),
		Phases:              r.FilterPhases(minFrequency),
		Mode:                "statevector",
	}
	switch res := r.CircuitResult().(type) {
	case *sim.Samples:
		rec.Mode = "sampling"
		rec.Shots = res.Shots
		rec.Backend = res.Backend()
	case *sim.Amplitudes:
		rec.Backend = res.Backend()
	}
	return rec
}

// Struct converts the record to its wire form.
func (r Record) Struct() (*structpb.Struct, error) {
	phases := make([]any, len(r.Phases))
	for i, p := range r.Phases {
		phases[i] = map[string]any{
			"bits":      p.Bits,
			"phase":     p.Value,
			"frequency": p.Frequency,
		}
	}
	return structpb.NewStruct(map[string]any{
		"evaluation_qubits": r.NumEvaluationQubits,
		"backend":           r.Backend,
		"mode":              r.Mode,
		"shots":             r.Shots,
		"most_likely_phase": r.MostLikelyPhase,
		"phases":            phases,
	})
}

func recordFromStruct(s *structpb.Struct) (Record, error) {
	f := s.GetFields()
	r := Record{
		NumEvaluationQubits: int(f["evaluation_qubits"].GetNumberValue()),
		Backend:             f["backend"].GetStringValue(),
		Mode:                f["mode"].GetStringValue(),
		Shots:               int(f["shots"].GetNumberValue()),
		MostLikelyPhase:     f["most_likely_phase"].GetNumberValue(),
	}
	for i, v := range f["phases"].GetListValue().GetValues() {
		p := v.GetStructValue()
		if p == nil {
			return Record{}, fmt.Errorf("archive: phase %d is not an object", i)
		}
		pf := p.GetFields()
		r.Phases = append(r.Phases, phase.Phase{
			Bits:      pf["bits"].GetStringValue(),
			Value:     pf["phase"].GetNumberValue(),
			Frequency: pf["frequency"].GetNumberValue(),
		})
	}
	return r, nil
}

// JSON renders a record as indented JSON.
func JSON(r Record) ([]byte, error) {
	s, err := r.Struct()
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
}

// A Writer appends records to an io.Writer.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write appends one frame. The frame is assembled in memory and written with
// a single call.
func (w *Writer) Write(r Record) error {
	s, err := r.Struct()
	if err != nil {
		return err
	}
	payload, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return err
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("archive: record of %d bytes exceeds frame limit", len(payload))
	}

	var frame bytes.Buffer
	if err := binary.Write(&frame, binary.LittleEndian, uint32(len(payload))); err != nil {
		return err
	}
	frame.Write(payload)
	if err := binary.Write(&frame, binary.LittleEndian, crc32.ChecksumIEEE(payload)); err != nil {
		return err
	}
	_, err = w.w.Write(frame.Bytes())
	return err
}

// A Reader reads records written by a Writer.
type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next record. It returns io.EOF at a clean end of stream and
// io.ErrUnexpectedEOF for a truncated frame.
func (r *Reader) Next() (Record, error) {
	var n uint32
	if err := binary.Read(r.r, binary.LittleEndian, &n); err != nil {
		return Record{}, err
	}
	if n > MaxFrameSize {
		return Record{}, fmt.Errorf("%w: frame length %d exceeds limit", ErrCorrupt, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return Record{}, unexpected(err)
	}
	var sum uint32
	if err := binary.Read(r.r, binary.LittleEndian, &sum); err != nil {
		return Record{}, unexpected(err)
	}
	if got := crc32.ChecksumIEEE(payload); got != sum {
		return Record{}, fmt.Errorf("%w: checksum %08x, expected %08x", ErrCorrupt, got, sum)
	}

	s := &structpb.Struct{}
	if err := proto.Unmarshal(payload, s); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return recordFromStruct(s)
}

// ReadAll reads records until the end of the stream.
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
