package forecast

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultPeriods is the horizon used when a request omits periods.
const DefaultPeriods = 1

// Request is a validated prediction request.
type Request struct {
	History []float64
	Periods int
}

// ParseRequest decodes an untyped JSON body into a Request.
//
// historical must be a non-empty array whose elements are numbers, numeric
// strings or booleans. periods defaults to DefaultPeriods; numbers are
// truncated toward zero and numeric strings must be integers. A negative
// periods is rejected, and so is any value above maxPeriods when maxPeriods
// is positive.
//
// A key repeated at the top level takes its last value.
//
// Every failure is an *InputError.
func ParseRequest(body []byte, maxPeriods int) (Request, error) {
	if !gjson.ValidBytes(body) {
		return Request{}, inputErrorf("", "invalid JSON body")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Request{}, inputErrorf("", "request body must be a JSON object")
	}

	historical := lastField(root, "historical")
	if !historical.IsArray() || len(historical.Array()) == 0 {
		return Request{}, inputErrorf("historical", "provide `historical` as list of numbers")
	}

	items := historical.Array()
	history := make([]float64, len(items))
	for i, item := range items {
		v, err := toFloat(item)
		if err != nil {
			return Request{}, &InputError{Field: "historical[" + strconv.Itoa(i) + "]", Msg: err.Error()}
		}
		history[i] = v
	}

	periods := DefaultPeriods
	if p := lastField(root, "periods"); p.Exists() {
		n, err := toInt(p)
		if err != nil {
			return Request{}, &InputError{Field: "periods", Msg: err.Error()}
		}
		periods = n
	}

	if periods < 0 {
		return Request{}, inputErrorf("periods", "`periods` must be >= 0, got %d", periods)
	}
	if maxPeriods > 0 && periods > maxPeriods {
		return Request{}, inputErrorf("periods", "`periods` must be <= %d, got %d", maxPeriods, periods)
	}

	return Request{History: history, Periods: periods}, nil
}

// lastField returns the last top-level member named name.
func lastField(root gjson.Result, name string) gjson.Result {
	var out gjson.Result
	root.ForEach(func(k, v gjson.Result) bool {
		if k.Str == name {
			out = v
		}
		return true
	})
	return out
}

type conversionError string

func (e conversionError) Error() string { return string(e) }

func toFloat(r gjson.Result) (float64, error) {
	var v float64

	switch r.Type {
	case gjson.Number:
		f, err := strconv.ParseFloat(r.Raw, 64)
		if err != nil {
			return 0, conversionError("could not convert number to float: " + r.Raw)
		}
		v = f
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, conversionError("could not convert string to float: " + strconv.Quote(r.Str))
		}
		v = f
	case gjson.True:
		v = 1
	case gjson.False:
		v = 0
	default:
		return 0, conversionError("float() argument must be a string or a number, not " + typeName(r))
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, conversionError("value must be finite, got " + r.Raw)
	}
	return v, nil
}

func toInt(r gjson.Result) (int, error) {
	switch r.Type {
	case gjson.Number:
		f, err := strconv.ParseFloat(r.Raw, 64)
		if err != nil || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
			return 0, conversionError("cannot convert " + r.Raw + " to integer")
		}
		return int(math.Trunc(f)), nil
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(r.Str))
		if err != nil {
			return 0, conversionError("invalid literal for int(): " + strconv.Quote(r.Str))
		}
		return n, nil
	case gjson.True:
		return 1, nil
	case gjson.False:
		return 0, nil
	default:
		return 0, conversionError("int() argument must be a string or a number, not " + typeName(r))
	}
}

func typeName(r gjson.Result) string {
	switch {
	case r.Type == gjson.Null:
		return "null"
	case r.IsArray():
		return "array"
	case r.IsObject():
		return "object"
	default:
		return r.Type.String()
	}
}
