package sqlbridge

import (
	"encoding/json"
	"strconv"
	"time"
)

// Row is one record returned by the table store. Column values keep whatever
// Go types the store produced; the accessors below normalize the common ones.
type Row map[string]any

func (r Row) Has(col string) bool {
	v, ok := r[col]
	return ok && v != nil
}

func (r Row) Int(col string) int {
	switch v := r[col].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func (r Row) Bool(col string) bool {
	b, _ := r[col].(bool)
	return b
}

func (r Row) Time(col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string:
		t, _ := time.Parse(time.RFC3339, v)
		return t
	}
	return time.Time{}
}

// NullableInt returns a pointer so callers can distinguish 0 from NULL.
func (r Row) NullableInt(col string) *int {
	if !r.Has(col) {
		return nil
	}
	n := r.Int(col)
	return &n
}

func (r Row) NullableFloat(col string) *float64 {
	if !r.Has(col) {
		return nil
	}
	f := r.Float(col)
	return &f
}

func (r Row) NullableTime(col string) *time.Time {
	if !r.Has(col) {
		return nil
	}
	t := r.Time(col)
	if t.IsZero() {
		return nil
	}
	return &t
}

// JSON marshals the row, used when audit entries capture old/new values.
func (r Row) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(b)
}
