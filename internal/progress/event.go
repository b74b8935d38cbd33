package progress

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the two payload shapes a worker emits.
type Kind int

const (
	// KindPositional carries ordered track values: type, id, percent, language.
	KindPositional Kind = iota
	// KindKeyed carries an optional-field mapping used by batch workers.
	KindKeyed
)

// Positional captures single-file progress reported as ordered values.
type Positional struct {
	TrackType string
	TrackID   int
	Percent   int
	Language  string
}

// Keyed captures progress reported as a keyword mapping. Has* flags record
// which optional fields were present on the wire.
type Keyed struct {
	Percent      int
	HasPercent   bool
	Current      int
	Total        int
	HasCounts    bool
	Description  string
	Status       string
	Success      bool
	Message      string
	FileIndex    int
	HasFileIndex bool
	FileName     string
	WorkerID     string
}

// Event is one decoded progress notification. Exactly one of Positional or
// Keyed is set, matching Kind.
type Event struct {
	OperationID string
	Kind        Kind
	Positional  *Positional
	Keyed       *Keyed
}

// Percent returns the event's percentage clamped to [0, 100]. Positional
// events carry it at index 2, keyed events under "percentage"; anything
// non-numeric decodes to 0.
func (e Event) Percent() int {
	switch e.Kind {
	case KindPositional:
		if e.Positional != nil {
			return e.Positional.Percent
		}
	case KindKeyed:
		if e.Keyed != nil && e.Keyed.HasPercent {
			return e.Keyed.Percent
		}
	}
	return 0
}

type rawPayload struct {
	OperationID string                     `json:"operationId"`
	Args        []any                      `json:"args"`
	Kwargs      map[string]json.RawMessage `json:"kwargs"`
}

// Decode parses one progress payload into an Event. The payload must be a
// JSON object; a positional shape wins when the percent slot (index 2) is
// populated, otherwise a non-empty keyword mapping wins, otherwise a bare
// args list is treated as positional with the percent taken from index 0.
func Decode(data []byte) (Event, error) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return Event{}, fmt.Errorf("progress payload is not an object")
	}

	var raw rawPayload
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Event{}, fmt.Errorf("parse progress payload: %w", err)
	}

	event := Event{OperationID: raw.OperationID}

	if len(raw.Args) > 2 && raw.Args[2] != nil {
		event.Kind = KindPositional
		event.Positional = decodePositional(raw.Args, 2)
		return event, nil
	}
	if len(raw.Kwargs) > 0 {
		event.Kind = KindKeyed
		event.Keyed = decodeKeyed(raw.Kwargs)
		return event, nil
	}
	if len(raw.Args) > 0 {
		event.Kind = KindPositional
		event.Positional = decodePositional(raw.Args, 0)
		return event, nil
	}

	event.Kind = KindKeyed
	event.Keyed = &Keyed{}
	return event, nil
}

func decodePositional(args []any, percentIndex int) *Positional {
	pos := &Positional{}
	if len(args) > 0 {
		pos.TrackType = stringValue(args[0])
	}
	if len(args) > 1 {
		if id, ok := intValue(args[1]); ok {
			pos.TrackID = id
		}
	}
	if percentIndex < len(args) {
		pos.Percent = CoercePercent(args[percentIndex])
	}
	if len(args) > 3 {
		pos.Language = stringValue(args[3])
	}
	return pos
}

func decodeKeyed(kwargs map[string]json.RawMessage) *Keyed {
	keyed := &Keyed{}
	if raw, ok := kwargs["percentage"]; ok {
		var value any
		if err := json.Unmarshal(raw, &value); err == nil && value != nil {
			keyed.Percent = CoercePercent(value)
			keyed.HasPercent = true
		}
	}
	current, hasCurrent := intField(kwargs, "current")
	total, hasTotal := intField(kwargs, "total")
	if hasCurrent && hasTotal {
		keyed.Current = current
		keyed.Total = total
		keyed.HasCounts = true
	}
	keyed.Description = stringField(kwargs, "description")
	keyed.Status = stringField(kwargs, "status")
	keyed.Message = stringField(kwargs, "message")
	keyed.FileName = stringField(kwargs, "fileName")
	keyed.WorkerID = stringField(kwargs, "workerId")
	if raw, ok := kwargs["success"]; ok {
		var value bool
		if err := json.Unmarshal(raw, &value); err == nil {
			keyed.Success = value
		}
	}
	if index, ok := intField(kwargs, "fileIndex"); ok {
		keyed.FileIndex = index
		keyed.HasFileIndex = true
	}
	return keyed
}

func stringField(kwargs map[string]json.RawMessage, key string) string {
	raw, ok := kwargs[key]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}

func intField(kwargs map[string]json.RawMessage, key string) (int, bool) {
	raw, ok := kwargs[key]
	if !ok {
		return 0, false
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}
	return intValue(value)
}

// CoercePercent converts an arbitrary wire value to an integer percentage
// clamped to [0, 100]. Numeric strings are accepted; anything else is 0.
func CoercePercent(value any) int {
	percent := 0
	switch v := value.(type) {
	case float64:
		percent = int(v)
	case int:
		percent = v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			percent = int(f)
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			percent = int(f)
		}
	}
	return ClampPercent(percent)
}

// ClampPercent bounds a percentage to [0, 100].
func ClampPercent(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

func stringValue(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func intValue(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return int(f), true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}
