package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
)

// FlexFloat decodes a JSON number, numeric string or null. Empty strings,
// "N/A" and "None" decode as null. Any other non-numeric string is recorded
// as malformed rather than failing the whole payload.
type FlexFloat struct {
	Value     null.Float
	Malformed bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.Value = null.FloatFrom(num)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cannot unmarshal %s into number", string(data))
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "n/a", "none", "null", "-":
		return nil
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.Malformed = true
		return nil
	}
	f.Value = null.FloatFrom(num)
	return nil
}

// Int returns the value truncated to an int, or 0 when null.
func (f FlexFloat) Int() int {
	if !f.Value.Valid {
		return 0
	}
	return int(f.Value.Float64)
}
