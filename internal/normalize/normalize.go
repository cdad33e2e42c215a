// Package normalize defensively parses the raw persisted settings and
// item JSON carried by a reminder snapshot into strict domain types.
//
// Snapshots written by older application versions may double-encode the
// JSON (a string containing JSON), use numeric strings where numbers are
// expected, or be outright malformed. Parsing never fails: anything
// unusable collapses to safe defaults so one bad record cannot take down
// a batch run.
package normalize

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// Settings parses a raw settings value into a strict domain.Settings.
// Any parse failure yields DefaultSettings (enabled=false), which fails
// safe: the snapshot is skipped rather than misinterpreted.
func Settings(raw json.RawMessage) domain.Settings {
	obj, ok := decodeObject(raw)
	if !ok {
		return domain.DefaultSettings()
	}

	s := domain.DefaultSettings()
	s.Enabled = asBool(obj["enabled"])
	s.LeadDays = asFloatSlice(obj["leadDays"])
	s.Channels = asStringSlice(obj["channels"])

	if tod, ok := asString(obj["timeOfDay"]); ok && validTimeOfDay(tod) {
		s.TimeOfDay = tod
	}
	if zone, ok := asString(obj["zone"]); ok {
		s.Zone = zone
	}
	return s
}

// Items parses a raw items value into reminder items. Malformed input
// yields an empty list; malformed elements are dropped individually.
func Items(raw json.RawMessage) []domain.ReminderItem {
	arr, ok := decodeArray(raw)
	if !ok {
		return nil
	}

	items := make([]domain.ReminderItem, 0, len(arr))
	for _, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		item := domain.ReminderItem{
			ID:   coerceString(obj["id"]),
			Name: coerceString(obj["name"]),
		}
		if d, ok := asString(obj["nextBillingDate"]); ok {
			item.NextBillingDate = d
		}
		if at, ok := asString(obj["nextBillingAt"]); ok {
			if t, err := time.Parse(time.RFC3339, at); err == nil {
				item.NextBillingAt = &t
			}
		}
		items = append(items, item)
	}
	return items
}

// decodeObject unwraps raw into a JSON object, following one level of
// string indirection for double-encoded legacy records.
func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	v, ok := decodeValue(raw)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func decodeArray(raw json.RawMessage) ([]any, bool) {
	v, ok := decodeValue(raw)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	return arr, ok
}

func decodeValue(raw json.RawMessage) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	// Legacy rows store the value as a JSON string containing JSON.
	if s, ok := v.(string); ok {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return nil, false
		}
		v = inner
	}
	return v, true
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}

// asString returns v only if it is a non-empty string.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// coerceString renders scalar values as strings, matching how legacy
// records stored numeric IDs.
func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

func asFloatSlice(v any) []float64 {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(arr))
	for _, el := range arr {
		switch n := el.(type) {
		case float64:
			out = append(out, n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				out = append(out, f)
			}
		}
	}
	return out
}

func asStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		if s, ok := el.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// validTimeOfDay accepts only the strict "HH:MM" wall-clock form.
func validTimeOfDay(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}
