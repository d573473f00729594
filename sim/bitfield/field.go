// Package bitfield encodes and decodes packed 64-bit cell identifiers.
//
// A Layout partitions the bits of an identifier into named fields. Each field
// occupies the span [Offset, Offset+Width) counted from the least significant
// bit; signed fields hold two's-complement values whose sign bit is the top bit
// of the span. All operations are pure: they take an identifier by value and
// return a new one, so a Layout can be shared freely between goroutines.
package bitfield

import "fmt"

// CellID is a packed detector cell identifier.
type CellID = uint64

// Field describes one named span of a CellID.
type Field struct {
	Name   string
	Offset uint
	Width  uint
	Signed bool
}

// Mask returns the field's span as a bit mask positioned at Offset.
func (f Field) Mask() uint64 {
	return lowBits(f.Width) << f.Offset
}

// Value extracts the field from id. Signed fields are sign-extended.
// An unsigned 64-bit field has no int64 decoding and NewLayout rejects it;
// use Raw for such a standalone Field.
func (f Field) Value(id CellID) int64 {
	raw := (id >> f.Offset) & lowBits(f.Width)
	if f.Signed && f.Width < 64 && raw&(uint64(1)<<(f.Width-1)) != 0 {
		raw |= ^lowBits(f.Width)
	}
	return int64(raw)
}

// Raw returns the unsigned bit pattern of the field without sign extension.
func (f Field) Raw(id CellID) uint64 {
	return (id >> f.Offset) & lowBits(f.Width)
}

// Encode returns id with the field's span replaced by value masked to Width bits.
// Negative values are written in two's complement. Values outside [Min, Max]
// wrap; callers that must not wrap check Contains first.
func (f Field) Encode(id CellID, value int64) CellID {
	return f.Clear(id) | (uint64(value)&lowBits(f.Width))<<f.Offset
}

// Contains reports whether value fits the field without wrapping.
func (f Field) Contains(value int64) bool {
	return value >= f.Min() && value <= f.Max()
}

// Clear returns id with every bit of the field's span zeroed.
func (f Field) Clear(id CellID) CellID {
	return id &^ f.Mask()
}

// Min returns the smallest value the field can hold.
func (f Field) Min() int64 {
	if !f.Signed {
		return 0
	}
	if f.Width >= 64 {
		return -1 << 63
	}
	return -(int64(1) << (f.Width - 1))
}

// Max returns the largest value the field can hold. For a standalone unsigned
// 64-bit field the true maximum does not fit in int64 and math.MaxInt64 is returned.
func (f Field) Max() int64 {
	switch {
	case f.Signed && f.Width >= 64:
		return 1<<63 - 1
	case f.Signed:
		return int64(1)<<(f.Width-1) - 1
	case f.Width >= 63:
		return 1<<63 - 1
	default:
		return int64(1)<<f.Width - 1
	}
}

// String formats the field as name:offset:width with a negative width for signed fields.
func (f Field) String() string {
	w := int(f.Width)
	if f.Signed {
		w = -w
	}
	return fmt.Sprintf("%s:%d:%d", f.Name, f.Offset, w)
}

func lowBits(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<width - 1
}
