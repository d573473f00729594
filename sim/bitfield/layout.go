package bitfield

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownField is returned when a field name is not part of a Layout.
var ErrUnknownField = errors.New("unknown bitfield field")

// Layout is an ordered, name-unique set of non-overlapping fields.
// A Layout is immutable after construction.
type Layout struct {
	fields []Field
	index  map[string]int
}

// NewLayout validates fields and builds a Layout preserving their order.
// Returns an error listing every problem found.
func NewLayout(fields ...Field) (*Layout, error) {
	var problems []string
	index := make(map[string]int, len(fields))
	var used uint64
	for i, f := range fields {
		switch {
		case f.Name == "":
			problems = append(problems, fmt.Sprintf("field[%d] has an empty name", i))
			continue
		case f.Width == 0:
			problems = append(problems, fmt.Sprintf("field %q has zero width", f.Name))
			continue
		case f.Width > 64 || f.Offset+f.Width > 64:
			problems = append(problems, fmt.Sprintf("field %q (offset %d, width %d) exceeds 64 bits", f.Name, f.Offset, f.Width))
			continue
		case f.Width == 64 && !f.Signed:
			problems = append(problems, fmt.Sprintf("field %q: unsigned 64-bit values do not fit int64, declare it signed", f.Name))
			continue
		}
		if _, dup := index[f.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate field %q", f.Name))
			continue
		}
		if used&f.Mask() != 0 {
			problems = append(problems, fmt.Sprintf("field %q overlaps a previous field", f.Name))
		}
		used |= f.Mask()
		index[f.Name] = i
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid bitfield layout: %s", strings.Join(problems, "; "))
	}
	return &Layout{fields: append([]Field(nil), fields...), index: index}, nil
}

// ParseLayout parses a description such as "system:4,layer:8,x:24:-16,y:-16".
// Each element is name:width or name:offset:width; a negative width marks a
// signed field and a missing offset places the field right after the previous one.
func ParseLayout(desc string) (*Layout, error) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return nil, fmt.Errorf("parsing bitfield description: empty description")
	}
	var fields []Field
	var next uint
	for _, elem := range strings.Split(desc, ",") {
		parts := strings.Split(strings.TrimSpace(elem), ":")
		var name, offStr, widthStr string
		switch len(parts) {
		case 2:
			name, widthStr = parts[0], parts[1]
		case 3:
			name, offStr, widthStr = parts[0], parts[1], parts[2]
		default:
			return nil, fmt.Errorf("parsing bitfield description: malformed element %q", elem)
		}
		width, err := strconv.Atoi(strings.TrimSpace(widthStr))
		if err != nil {
			return nil, fmt.Errorf("parsing bitfield description: width of %q: %w", name, err)
		}
		offset := next
		if offStr != "" {
			o, err := strconv.ParseUint(strings.TrimSpace(offStr), 10, 8)
			if err != nil {
				return nil, fmt.Errorf("parsing bitfield description: offset of %q: %w", name, err)
			}
			offset = uint(o)
		}
		f := Field{Name: strings.TrimSpace(name), Offset: offset, Width: uint(abs(width)), Signed: width < 0}
		fields = append(fields, f)
		next = f.Offset + f.Width
	}
	return NewLayout(fields...)
}

// Description formats the layout so that ParseLayout reproduces it.
func (l *Layout) Description() string {
	parts := make([]string, len(l.fields))
	for i, f := range l.fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

// Fields returns a copy of the fields in declaration order.
func (l *Layout) Fields() []Field {
	return append([]Field(nil), l.fields...)
}

// FieldNames returns the field names in declaration order.
func (l *Layout) FieldNames() []string {
	names := make([]string, len(l.fields))
	for i, f := range l.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of fields.
func (l *Layout) Len() int { return len(l.fields) }

// Has reports whether the layout defines name.
func (l *Layout) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// Field looks up a field by name.
func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

// Get decodes the named field from id.
func (l *Layout) Get(id CellID, name string) (int64, error) {
	f, ok := l.Field(name)
	if !ok {
		return 0, fmt.Errorf("get %q: %w", name, ErrUnknownField)
	}
	return f.Value(id), nil
}

// Set returns id with the named field replaced by value.
func (l *Layout) Set(id CellID, name string, value int64) (CellID, error) {
	f, ok := l.Field(name)
	if !ok {
		return id, fmt.Errorf("set %q: %w", name, ErrUnknownField)
	}
	return f.Encode(id, value), nil
}

// ValueString renders every field of id, e.g. "system:5,layer:3,x:-2".
func (l *Layout) ValueString(id CellID) string {
	var b strings.Builder
	for i, f := range l.fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(f.Value(id), 10))
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
