package log

import (
	"fmt"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultDatePattern is the time layout used for the "timestamp" field.
const DefaultDatePattern = "15:04:05"

// JSONFormatterConfig configures a JSONFormatter.
type JSONFormatterConfig struct {
	// KeyMapping renames standard keys. A dotted target nests the value,
	// e.g. "backtrace": "exception.bt" yields {"exception":{"bt":...}}.
	KeyMapping map[string]string `mapstructure:"key_mapping"`

	// Fields are static fields added to every record. String values are
	// expanded with ${VAR} environment references; ${hostname} resolves to
	// the host name.
	Fields map[string]any `mapstructure:"fields"`

	// DatePattern is a Go time layout for the "timestamp" field.
	DatePattern string `mapstructure:"date_pattern"`
}

// JSONFormatter produces one JSON object per record from a dictionary of
// fields: timestamp, logger, level, message, error details, caller, the
// event's own fields and the diagnostic contexts.
type JSONFormatter struct {
	keyMapping  map[string][]string
	fields      map[string]any
	datePattern string
}

// NewJSONFormatter builds a formatter from cfg.
func NewJSONFormatter(cfg JSONFormatterConfig) *JSONFormatter {
	f := &JSONFormatter{
		keyMapping:  make(map[string][]string, len(cfg.KeyMapping)),
		fields:      make(map[string]any, len(cfg.Fields)),
		datePattern: cfg.DatePattern,
	}
	if f.datePattern == "" {
		f.datePattern = DefaultDatePattern
	}
	for k, v := range cfg.KeyMapping {
		f.keyMapping[k] = strings.Split(v, ".")
	}
	for k, v := range cfg.Fields {
		if s, ok := v.(string); ok {
			f.fields[k] = os.Expand(s, expandField)
			continue
		}
		f.fields[k] = v
	}
	return f
}

func expandField(name string) string {
	if name == "hostname" {
		h, _ := os.Hostname()
		return h
	}
	return os.Getenv(name)
}

// Fields returns the dictionary that Format encodes.
func (f *JSONFormatter) Fields(rec *Record) map[string]any {
	data := maps.Clone(f.fields)
	if data == nil {
		data = map[string]any{}
	}

	t := rec.Time
	if t.IsZero() {
		t = time.Now()
	}
	f.assign(data, "timestamp", t.Format(f.datePattern))
	f.assign(data, "logger", rec.Logger)
	f.assign(data, "level", strings.ToLower(rec.Level.String()))

	if rec.Err != nil {
		msg := fmt.Sprintf("Caught %T", rec.Err)
		if m := rec.Err.Error(); m != "" {
			msg += ": " + m
		}
		if rec.Message != "" {
			msg = rec.Message + ": " + msg
		}
		f.assign(data, "message", msg)
		f.assign(data, "exception", fmt.Sprintf("%T", rec.Err))
		if rec.Stack != "" {
			f.assign(data, "backtrace", rec.Stack)
		}
	} else {
		f.assign(data, "message", rec.Message)
	}

	if rec.Caller != nil {
		f.assign(data, "file", rec.Caller.File)
		f.assign(data, "line", rec.Caller.Line)
		f.assign(data, "method", rec.Caller.Function)
	}

	for _, fld := range rec.Fields {
		f.assign(data, fld.Key, fld.Value)
	}

	f.assign(data, "gdc", rec.Global)
	if len(rec.Nested) > 0 {
		f.assign(data, "ndc", rec.Nested)
	}
	if len(rec.Mapped) > 0 {
		f.assign(data, "mdc", rec.Mapped)
	}
	return data
}

// Format encodes the record as a single JSON line.
func (f *JSONFormatter) Format(rec *Record) ([]byte, error) {
	b, err := json.Marshal(f.Fields(rec))
	if err != nil {
		return nil, fmt.Errorf("encode log record: %w", err)
	}
	return append(b, '\n'), nil
}

// assign stores value under key, honoring the key mapping. Nil and empty
// string values are dropped.
func (f *JSONFormatter) assign(data map[string]any, key string, value any) {
	if value == nil {
		return
	}
	if s, ok := value.(string); ok && s == "" {
		return
	}

	path, ok := f.keyMapping[key]
	if !ok {
		data[key] = value
		return
	}

	current := data
	for i, k := range path {
		if i == len(path)-1 {
			current[k] = value
			return
		}
		// Copy nested maps so static fields shared across records are never mutated.
		next := map[string]any{}
		if existing, ok := current[k].(map[string]any); ok {
			maps.Copy(next, existing)
		}
		current[k] = next
		current = next
	}
}
