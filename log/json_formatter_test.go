package log

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() *Record {
	return &Record{
		Time:    time.Date(2024, 3, 1, 13, 14, 15, 0, time.UTC),
		Logger:  "app::models::User",
		Level:   WarnLevel,
		Message: "slow query",
	}
}

func TestJSONFormatterDefaults(t *testing.T) {
	f := NewJSONFormatter(JSONFormatterConfig{})

	data := f.Fields(testRecord())

	assert.Equal(t, map[string]any{
		"timestamp": "13:14:15",
		"logger":    "app::models::User",
		"level":     "warn",
		"message":   "slow query",
	}, data)
}

func TestJSONFormatterKeyMapping(t *testing.T) {
	f := NewJSONFormatter(JSONFormatterConfig{
		KeyMapping: map[string]string{
			"level":     "severity",
			"backtrace": "exception.bt",
			"exception": "exception.class",
		},
	})
	rec := testRecord()
	rec.Err = errors.New("timeout")
	rec.Stack = "main.go:10\n\tdb.go:20"

	data := f.Fields(rec)

	assert.Equal(t, "warn", data["severity"])
	assert.NotContains(t, data, "level")
	assert.Equal(t, map[string]any{
		"bt":    "main.go:10\n\tdb.go:20",
		"class": "*errors.errorString",
	}, data["exception"])
	assert.Equal(t, "slow query: Caught *errors.errorString: timeout", data["message"])
}

func TestJSONFormatterStaticFields(t *testing.T) {
	t.Setenv("LUMBER_TEST_ENV", "staging")
	host, _ := os.Hostname()

	f := NewJSONFormatter(JSONFormatterConfig{
		Fields: map[string]any{
			"version": 1,
			"env":     "${LUMBER_TEST_ENV}",
			"host":    "${hostname}",
		},
		DatePattern: time.RFC3339,
	})

	data := f.Fields(testRecord())
	assert.Equal(t, 1, data["version"])
	assert.Equal(t, "staging", data["env"])
	assert.Equal(t, host, data["host"])
	assert.Equal(t, "2024-03-01T13:14:15Z", data["timestamp"])

	// static fields are copied per record
	data["env"] = "mutated"
	assert.Equal(t, "staging", f.Fields(testRecord())["env"])
}

func TestJSONFormatterNestedMappingDoesNotLeak(t *testing.T) {
	f := NewJSONFormatter(JSONFormatterConfig{
		KeyMapping: map[string]string{"logger": "meta.logger"},
		Fields:     map[string]any{"meta": map[string]any{"app": "shop"}},
	})

	first := f.Fields(testRecord())
	assert.Equal(t, map[string]any{"app": "shop", "logger": "app::models::User"}, first["meta"])

	rec := testRecord()
	rec.Logger = "other"
	second := f.Fields(rec)
	assert.Equal(t, map[string]any{"app": "shop", "logger": "other"}, second["meta"])
	assert.Equal(t, map[string]any{"app": "shop"}, f.fields["meta"])
}

func TestJSONFormatterCallerAndContexts(t *testing.T) {
	f := NewJSONFormatter(JSONFormatterConfig{})
	ctx := PushNested(context.Background(), "request")
	ctx = PushNested(ctx, "job")
	ctx = WithMapped(ctx, "user", "42")

	e := newEvent()
	e.rec = *testRecord()
	e.Context(ctx).Str("extra", "x").Str("empty", "")
	rec := e.Record()
	rec.Caller = newCaller("models/user.go", "Save", 12)
	rec.Global = "worker-1"

	data := f.Fields(rec)

	assert.Equal(t, "models/user.go", data["file"])
	assert.Equal(t, 12, data["line"])
	assert.Equal(t, "Save", data["method"])
	assert.Equal(t, []string{"request", "job"}, data["ndc"])
	assert.Equal(t, map[string]string{"user": "42"}, data["mdc"])
	assert.Equal(t, "worker-1", data["gdc"])
	assert.Equal(t, "x", data["extra"])
	assert.NotContains(t, data, "empty")
}

func TestJSONFormatterFormatIsOneLine(t *testing.T) {
	f := NewJSONFormatter(JSONFormatterConfig{})

	b, err := f.Format(testRecord())
	require.NoError(t, err)

	assert.Equal(t, byte('\n'), b[len(b)-1])
	assert.JSONEq(t, `{"timestamp":"13:14:15","logger":"app::models::User","level":"warn","message":"slow query"}`, string(b))
}

func TestNestedContextIsCopyOnWrite(t *testing.T) {
	base := PushNested(context.Background(), "a")
	left := PushNested(base, "b")
	right := PushNested(base, "c")

	assert.Equal(t, []string{"a"}, Nested(base))
	assert.Equal(t, []string{"a", "b"}, Nested(left))
	assert.Equal(t, []string{"a", "c"}, Nested(right))

	m1 := WithMapped(context.Background(), "k", "1")
	m2 := WithMapped(m1, "k", "2")
	assert.Equal(t, "1", Mapped(m1)["k"])
	assert.Equal(t, "2", Mapped(m2)["k"])
}
