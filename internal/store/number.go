package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Number is a nullable decimal candle field. The history fetcher writes
// prices as strings to preserve exchange precision; plain JSON numbers and
// null are accepted too.
type Number struct {
	Value float64
	Valid bool
}

// NewNumber returns a valid Number for a finite f, otherwise an absent one.
func NewNumber(f float64) Number {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}
	}
	return Number{Value: f, Valid: true}
}

// Float returns the value and whether it is present and finite.
func (n Number) Float() (float64, bool) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return 0, false
	}
	return n.Value, true
}

// UnmarshalJSON never fails on an unparseable value: the field is simply
// marked absent so one bad cell does not reject the whole document.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var text string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("number string: %w", err)
		}
	} else {
		text = string(data)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil
	}
	f, _ := d.Float64()
	*n = NewNumber(f)
	return nil
}

// MarshalJSON writes null for an absent value.
func (n Number) MarshalJSON() ([]byte, error) {
	f, ok := n.Float()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(decimal.NewFromFloat(f).String())
}
