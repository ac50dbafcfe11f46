package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// alias is one source key for a canonical field. Values read through an
// alias with a divisor are divided by it, e.g. annual income by 12.
type alias struct {
	key     string
	divisor int64
}

func keys(names ...string) []alias {
	out := make([]alias, len(names))
	for i, n := range names {
		out[i] = alias{key: n}
	}
	return out
}

// lookupState describes how a canonical field was resolved.
type lookupState int

const (
	lookupAbsent lookupState = iota
	lookupFound
	lookupZero
	lookupInvalid
)

var errNotNumeric = errors.New("value is not numeric")

// resolveDecimal walks aliases in priority order and returns the first
// non-zero value. A field that is present but zero everywhere resolves to
// zero; one that is present but unparseable everywhere reports lookupInvalid.
func resolveDecimal(fields map[string]any, aliases []alias) (decimal.Decimal, string, lookupState) {
	state := lookupAbsent
	zeroKey := ""
	for _, a := range aliases {
		raw, ok := fields[a.key]
		if !ok || raw == nil {
			continue
		}
		d, err := toDecimal(raw)
		if err != nil {
			if state == lookupAbsent {
				state = lookupInvalid
			}
			continue
		}
		if d.IsZero() {
			state = lookupZero
			zeroKey = a.key
			continue
		}
		if a.divisor > 0 {
			d = d.Div(decimal.NewFromInt(a.divisor)).Round(2)
		}
		return d, a.key, lookupFound
	}
	if state == lookupZero {
		return decimal.Zero, zeroKey, lookupZero
	}
	return decimal.Zero, "", state
}

// resolveString returns the first non-blank string among aliases.
func resolveString(fields map[string]any, aliases []alias) (string, string, bool) {
	for _, a := range aliases {
		raw, ok := fields[a.key]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			if st, isStringer := raw.(fmt.Stringer); isStringer {
				s = st.String()
			} else {
				continue
			}
		}
		if s = strings.TrimSpace(s); s != "" {
			return s, a.key, true
		}
	}
	return "", "", false
}

// collectStrings returns every non-blank string found under aliases, in
// alias order.
func collectStrings(fields map[string]any, aliases []alias) []string {
	var out []string
	for _, a := range aliases {
		if s, ok := fields[a.key].(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// resolveStringList accepts []string, []any of strings or a comma separated
// string under the first alias that is present.
func resolveStringList(fields map[string]any, aliases []alias) ([]string, bool) {
	for _, a := range aliases {
		switch v := fields[a.key].(type) {
		case []string:
			return v, true
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out, true
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			return strings.Split(v, ","), true
		}
	}
	return nil, false
}

// strictNumber is used where a present-but-garbled value must surface as an
// error instead of being skipped.
func strictNumber(fields map[string]any, aliases []alias) (float64, bool, error) {
	found := false
	for _, a := range aliases {
		raw, ok := fields[a.key]
		if !ok || raw == nil {
			continue
		}
		d, err := toDecimal(raw)
		if err != nil {
			return 0, false, fmt.Errorf("field %q: %w", a.key, err)
		}
		found = true
		if d.IsZero() {
			continue
		}
		if a.divisor > 0 {
			d = d.Div(decimal.NewFromInt(a.divisor))
		}
		return d.InexactFloat64(), true, nil
	}
	return 0, found, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, errNotNumeric
		}
		return *n, nil
	case float64:
		return floatDecimal(n)
	case float32:
		return floatDecimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int8:
		return decimal.NewFromInt(int64(n)), nil
	case int16:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(n)), 0), nil
	case uint32:
		return decimal.NewFromInt(int64(n)), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0), nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(n))
		if s == "" {
			return decimal.Zero, errNotNumeric
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, errNotNumeric
	}
}

func floatDecimal(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, errNotNumeric
	}
	return decimal.NewFromFloat(f), nil
}
