package party

import (
	"encoding/binary"
	"io"
	"sort"
	"strconv"

	"github.com/cronokirby/saferith"

	"github.com/frostrelay/frostrelay/pkg/math/curve"
)

// ByteSize is the number of bytes required to store an ID.
const ByteSize = 2

// MaxID bounds the integer value an ID can take.
const MaxID = (1 << (ByteSize * 8)) - 1

// ID is the identifier of a protocol participant: a 1-based index,
// unique within a session.
//
// The integer is the authoritative identifier everywhere. Its scalar
// embedding, used inside cryptographic payloads, is derived from the integer
// and never decoded back.
type ID uint16

// Size is an alias for ID, used when a value counts parties rather than
// naming one.
type Size = ID

// Scalar returns the scalar embedding of the index in the given group.
//
// Since IDs are 1-based, the result is never zero, and evaluating a secret
// polynomial at it cannot leak the constant term.
func (id ID) Scalar(group curve.Curve) curve.Scalar {
	return group.NewScalar().SetNat(new(saferith.Nat).SetUint64(uint64(id)))
}

// String returns the base 10 representation of the ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// FromString parses a base 10 string as an ID.
func FromString(str string) (ID, error) {
	p, err := strconv.ParseUint(str, 10, 16)
	if err != nil {
		return 0, err
	}
	return ID(p), nil
}

// WriteTo implements io.WriterTo.
func (id ID) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, ByteSize)
	binary.BigEndian.PutUint16(buf, uint16(id))
	n, err := w.Write(buf)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (ID) Domain() string {
	return "party.ID"
}

// IDSlice is a sorted slice of IDs.
type IDSlice []ID

// NewIDSlice returns a sorted copy of the given IDs.
func NewIDSlice(ids []ID) IDSlice {
	out := make(IDSlice, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Sequence returns the IDSlice {1, …, n}.
func Sequence(n Size) IDSlice {
	out := make(IDSlice, n)
	for i := Size(0); i < n; i++ {
		out[i] = i + 1
	}
	return out
}

// Contains returns true if all given IDs are present in the slice.
func (ids IDSlice) Contains(wanted ...ID) bool {
	for _, w := range wanted {
		i := sort.Search(len(ids), func(i int) bool { return ids[i] >= w })
		if i >= len(ids) || ids[i] != w {
			return false
		}
	}
	return true
}

// Valid returns true if the slice is sorted, free of duplicates, and free
// of the invalid index 0.
func (ids IDSlice) Valid() bool {
	for i := range ids {
		if ids[i] == 0 {
			return false
		}
		if i > 0 && ids[i-1] >= ids[i] {
			return false
		}
	}
	return true
}

// WriteTo implements io.WriterTo.
func (ids IDSlice) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, ByteSize*len(ids))
	for i, id := range ids {
		binary.BigEndian.PutUint16(buf[i*ByteSize:], uint16(id))
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (IDSlice) Domain() string {
	return "party.IDSlice"
}
