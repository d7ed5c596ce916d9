package catalog

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Scalar is a loosely-typed document field that upstream scraped data stores
// as either a number or free text ("$2.99", "36 min", "(3k+)"). It keeps the
// original representation so display code can show what was scraped while
// pricing code normalizes through the ordering parsers.
//
// The zero value means "absent".
type Scalar struct {
	// Number holds the numeric value when IsNumber is true.
	Number float64
	// Raw holds the original text when IsNumber is false.
	Raw string
	// IsNumber reports whether the stored value was numeric.
	IsNumber bool
	// Present reports whether the field existed at all.
	Present bool
}

// NumberScalar builds a numeric Scalar. Mostly used by tests and fixtures.
func NumberScalar(n float64) Scalar {
	return Scalar{Number: n, IsNumber: true, Present: true}
}

// RawScalar builds a text Scalar.
func RawScalar(s string) Scalar {
	return Scalar{Raw: s, Present: true}
}

// UnmarshalBSONValue decodes a double, int, string, or null into the Scalar.
func (s *Scalar) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}

	switch t {
	case bson.TypeNull:
		*s = Scalar{}
	case bson.TypeDouble:
		*s = NumberScalar(rv.Double())
	case bson.TypeInt32:
		*s = NumberScalar(float64(rv.Int32()))
	case bson.TypeInt64:
		*s = NumberScalar(float64(rv.Int64()))
	case bson.TypeString:
		*s = RawScalar(rv.StringValue())
	default:
		return fmt.Errorf("scalar: unsupported BSON type %s", t)
	}
	return nil
}

// MarshalBSONValue encodes the Scalar back as a double, string, or null.
func (s Scalar) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !s.Present {
		t, data, err := bson.MarshalValue(nil)
		return t, data, err
	}
	if s.IsNumber {
		return bson.MarshalValue(s.Number)
	}
	return bson.MarshalValue(s.Raw)
}

// MarshalJSON preserves the original representation in API responses.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if !s.Present {
		return []byte("null"), nil
	}
	if s.IsNumber {
		return json.Marshal(s.Number)
	}
	return json.Marshal(s.Raw)
}

// UnmarshalJSON accepts a number, a string, or null.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Scalar{}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = NumberScalar(n)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("scalar: expected number or string: %w", err)
	}
	*s = RawScalar(str)
	return nil
}
