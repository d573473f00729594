package sim

import "gonum.org/v1/gonum/spatial/r3"

// CellIDEncodingKey is the metadata key under which a collection records the
// bitfield description of its cell identifiers.
const CellIDEncodingKey = "CellIDEncoding"

// Hit is a calorimeter energy deposit identified by a packed cell id.
// Positions are global coordinates in millimetres.
type Hit struct {
	CellID      uint64
	Energy      float64
	EnergyError float64
	Time        float64
	Position    r3.Vec
	Type        int32
}

// WithCellID returns a copy of h carrying a different cell id.
// Every other attribute is preserved verbatim.
func (h Hit) WithCellID(id uint64) Hit {
	h.CellID = id
	return h
}

// Collection is an ordered hit sequence plus string metadata for downstream readers.
type Collection struct {
	Name     string
	Hits     []Hit
	Metadata map[string]string
}

// NewCollection creates an empty collection with capacity for n hits.
func NewCollection(name string, n int) *Collection {
	return &Collection{
		Name:     name,
		Hits:     make([]Hit, 0, n),
		Metadata: make(map[string]string),
	}
}

// Append adds hit to the end of the collection.
func (c *Collection) Append(hit Hit) {
	c.Hits = append(c.Hits, hit)
}

// Len returns the number of hits.
func (c *Collection) Len() int { return len(c.Hits) }

// SetMetadata records a key/value annotation on the collection.
func (c *Collection) SetMetadata(key, value string) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[key] = value
}

// CellIDEncoding returns the recorded bitfield description, if any.
func (c *Collection) CellIDEncoding() (string, bool) {
	v, ok := c.Metadata[CellIDEncodingKey]
	return v, ok
}
