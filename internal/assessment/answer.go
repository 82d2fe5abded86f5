package assessment

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number coerces a raw answer to a float. Anything that is not a finite number or a
// numeric string is 0.
func Number(v any) float64 {
	n, ok := toFloat(v)
	if !ok {
		return 0
	}
	return n
}

func toFloat(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int8:
		n = float64(x)
	case int16:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint:
		n = float64(x)
	case uint8:
		n = float64(x)
	case uint16:
		n = float64(x)
	case uint32:
		n = float64(x)
	case uint64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// coerceAnswer resolves one question's answer to the value that is summed. Answers
// outside [0, max] are summed as given and flagged; normalize bounds the final score.
// The returned code is empty when the answer was usable as given.
func coerceAnswer(resp Response, id string, max float64) (float64, string) {
	raw, ok := resp[id]
	if !ok || raw == nil {
		return 0, CodeMissingAnswer
	}
	n, ok := toFloat(raw)
	if !ok {
		return 0, CodeInvalidAnswer
	}
	if n < 0 || n > max {
		return n, CodeOutOfRange
	}
	return n, ""
}
