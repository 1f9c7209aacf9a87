package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"scriptbook/internal/logging"
)

// Record is one decoded line of the JSON build log.
type Record struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	RunID     string
	EventType string
	Attrs     map[string]any
}

// ParseRecord decodes a JSON log line.
func ParseRecord(line string) (Record, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, fmt.Errorf("decode log record: %w", err)
	}
	rec := Record{Attrs: make(map[string]any, len(raw))}
	for key, value := range raw {
		str, _ := value.(string)
		switch key {
		case "ts":
			if ts, err := time.Parse(time.RFC3339, str); err == nil {
				rec.Time = ts
			}
		case "level":
			rec.Level = strings.ToLower(str)
		case "msg":
			rec.Message = str
		case logging.FieldComponent:
			rec.Component = str
		case logging.FieldRunID:
			rec.RunID = str
		case logging.FieldEventType:
			rec.EventType = str
		default:
			rec.Attrs[key] = value
		}
	}
	return rec, nil
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Filter selects records. Empty fields match everything.
type Filter struct {
	RunID     string
	Component string
	EventType string
	MinLevel  string
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec Record) bool {
	if f.RunID != "" && !strings.HasPrefix(rec.RunID, f.RunID) {
		return false
	}
	if f.Component != "" && !strings.EqualFold(rec.Component, f.Component) {
		return false
	}
	if f.EventType != "" && rec.EventType != f.EventType {
		return false
	}
	if floor, ok := levelRank[strings.ToLower(f.MinLevel)]; ok {
		if levelRank[rec.Level] < floor {
			return false
		}
	}
	return true
}

// Format renders rec as a single console line with sorted attributes.
func Format(rec Record) string {
	var b strings.Builder
	if !rec.Time.IsZero() {
		b.WriteString(rec.Time.Local().Format(time.DateTime))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(rec.Level))
	if rec.Component != "" {
		fmt.Fprintf(&b, " [%s]", rec.Component)
	}
	b.WriteByte(' ')
	b.WriteString(rec.Message)

	keys := make([]string, 0, len(rec.Attrs)+1)
	for key := range rec.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if rec.EventType != "" {
		fmt.Fprintf(&b, " %s=%s", logging.FieldEventType, rec.EventType)
	}
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, formatValue(rec.Attrs[key]))
	}
	return b.String()
}

func formatValue(v any) string {
	switch value := v.(type) {
	case string:
		if value == "" || strings.ContainsAny(value, " \t\"=") {
			return fmt.Sprintf("%q", value)
		}
		return value
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%g", value)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(data)
	}
}
