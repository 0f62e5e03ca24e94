package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one upstream row or JSON object, keyed by source field name.
type Record map[string]any

// lookup returns the first present, non-empty value among keys.
func (r Record) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		if b, isBytes := v.([]byte); isBytes && len(b) == 0 {
			continue
		}
		return v, true
	}
	return nil, false
}

func (r Record) str(keys ...string) string {
	v, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// money parses a currency amount rounded to two decimals.
func (r Record) money(keys ...string) (float64, bool) {
	v, ok := r.lookup(keys...)
	if !ok {
		return 0, false
	}
	d, err := parseDecimal(v)
	if err != nil {
		return 0, false
	}
	return d.Round(2).InexactFloat64(), true
}

// integer parses a whole number, truncating any fraction.
func (r Record) integer(keys ...string) (int, bool) {
	v, ok := r.lookup(keys...)
	if !ok {
		return 0, false
	}
	d, err := parseDecimal(v)
	if err != nil {
		return 0, false
	}
	return int(d.IntPart()), true
}

func (r Record) timestamp(keys ...string) (time.Time, bool) {
	v, ok := r.lookup(keys...)
	if !ok {
		return time.Time{}, false
	}
	t, err := parseTime(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// currencyNoise is stripped from numeric strings before parsing.
var currencyNoise = strings.NewReplacer(
	",", "",
	"₹", "",
	"Rs.", "",
	"Rs", "",
	"INR", "",
	"$", "",
	" ", "",
)

func parseDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case float32:
		return decimal.NewFromFloat32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int32:
		return decimal.NewFromInt32(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case json.Number:
		return decimal.NewFromString(t.String())
	case []byte:
		return parseDecimal(string(t))
	case string:
		s := currencyNoise.Replace(strings.TrimSpace(t))
		if s == "" {
			return decimal.Zero, errors.New("empty number")
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, fmt.Errorf("unsupported number type %T", v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02",
}

// unixMillisCutoff separates Unix seconds from milliseconds. Second-based
// values only pass it after the year 33658.
const unixMillisCutoff = 1e12

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case []byte:
		return parseTime(string(t))
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromUnix(n), nil
		}
		return time.Time{}, fmt.Errorf("unrecognized time %q", s)
	default:
		d, err := parseDecimal(v)
		if err != nil {
			return time.Time{}, err
		}
		return fromUnix(d.IntPart()), nil
	}
}

func fromUnix(n int64) time.Time {
	if n >= unixMillisCutoff {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func roundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
