package gpsd

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// Record is one decoded gpsd JSON object.
type Record = map[string]any

// parseRecord decodes a single line into a Record.
func parseRecord(line []byte) (Record, error) {
	line = bytes.TrimSpace(line)
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, &DecodeError{Field: "line", Reason: err.Error()}
	}
	if rec == nil {
		return nil, &DecodeError{Field: "line", Reason: "not a JSON object"}
	}
	return rec, nil
}

// classOf returns the class of a record, or "" when absent.
func classOf(rec Record) string {
	class, _ := rec["class"].(string)
	return class
}

func floatField(rec Record, key string) (float64, bool, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false, wrongType(key, "number", v)
	}
	return f, true, nil
}

func requiredFloat(rec Record, key string) (float64, error) {
	f, ok, err := floatField(rec, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, missingField(key)
	}
	return f, nil
}

// optionalFloat returns 0 when the key is absent.
func optionalFloat(rec Record, key string) (float64, error) {
	f, _, err := floatField(rec, key)
	return f, err
}

func intField(rec Record, key string) (int, bool, error) {
	f, ok, err := floatField(rec, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false, wrongType(key, "integer", f)
	}
	return int(f), true, nil
}

func optionalInt(rec Record, key string) (int, error) {
	i, _, err := intField(rec, key)
	return i, err
}

func requiredBool(rec Record, key string) (bool, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return false, missingField(key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, wrongType(key, "boolean", v)
	}
	return b, nil
}

func optionalString(rec Record, key string) (string, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", wrongType(key, "string", v)
	}
	return s, nil
}

// requiredTime parses an RFC 3339 timestamp and normalises it to UTC.
func requiredTime(rec Record, key string) (time.Time, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return time.Time{}, missingField(key)
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, wrongType(key, "string", v)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, &DecodeError{Field: key, Reason: err.Error()}
	}
	return t.UTC(), nil
}

// objectList returns the key as a list of objects. A missing key is an error
// only when required is set.
func objectList(rec Record, key string, required bool) ([]Record, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		if required {
			return nil, missingField(key)
		}
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, wrongType(key, "array", v)
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, wrongType(key, "array of objects", item)
		}
		out = append(out, obj)
	}
	return out, nil
}

// truthy accepts gpsd's "active" flag, which is a boolean in some releases and
// a count of active devices in others.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return false
	}
}
