package lumber

import (
	"context"
	"testing"
	"time"

	"github.com/linchenxuan/lumber/event"
	"github.com/linchenxuan/lumber/hierarchy"
	"github.com/linchenxuan/lumber/log"
	"github.com/linchenxuan/lumber/override"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLumber(t *testing.T, opts ...Option) *Lumber {
	t.Helper()
	opts = append([]Option{WithLogConfig(&log.Config{Level: log.InfoLevel})}, opts...)
	lb, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lb.Close() })
	return lb
}

// TestNew verifies that New assembles every component.
func TestNew(t *testing.T) {
	lb := newTestLumber(t, WithNamespace("shop"))

	assert.NotNil(t, lb.Registry())
	assert.NotNil(t, lb.Engine())
	assert.NotNil(t, lb.Publisher())
	assert.Equal(t, "shop", lb.Resolver().Namespace())
	assert.Equal(t, override.DefaultKey, lb.Engine().Key())

	_, err := New(WithLogConfig(&log.Config{Level: log.Level(9)}))
	assert.Error(t, err)
	_, err = New(WithNamespace("::"))
	assert.ErrorIs(t, err, log.ErrInvalidName)
}

func TestClassLoggers(t *testing.T) {
	lb := newTestLumber(t)
	require.NoError(t, lb.RegisterClass("Model", "app::models"))

	name, err := lb.LoggerNameFor("User", "Model")
	require.NoError(t, err)
	assert.Equal(t, "app::models::User", name)

	h, err := lb.LoggerFor("User", "Model")
	require.NoError(t, err)
	assert.Equal(t, "app::models::User", h.Name())
	assert.Equal(t, log.InfoLevel, h.Level())

	again, err := lb.LoggerFor("User")
	require.NoError(t, err)
	assert.Same(t, h, again)

	name, err = lb.LoggerNameFor("Job")
	require.NoError(t, err)
	assert.Equal(t, "app::Job", name)
}

func TestDefineClassAssignsLogger(t *testing.T) {
	pub := event.NewPublisher()
	lb := newTestLumber(t, WithPublisher(pub))
	require.NoError(t, lb.RegisterClass("Controller", "web"))

	require.NoError(t, lb.DefineClass("Home", "Controller"))
	lb.OnClassDefined(hierarchy.Class{ID: "Api"})

	h, ok := lb.Resolver().Memoized("Home")
	require.True(t, ok)
	assert.Equal(t, "web::Home", h.Name())
	_, ok = lb.Registry().Lookup("app::Api")
	assert.True(t, ok)
}

func TestOverrideLifecycle(t *testing.T) {
	lb := newTestLumber(t)
	ctx := context.Background()
	h, err := lb.LoggerFor("Pool", "DB")
	require.NoError(t, err)
	require.NoError(t, lb.RegisterClass("DB", "svc::db"))
	db, err := lb.LoggerFor("DB")
	require.NoError(t, err)

	require.NoError(t, lb.SetLevels(ctx, override.Mapping{"svc::db": "ERROR"}))
	got, err := lb.GetLevels(ctx)
	require.NoError(t, err)
	assert.Equal(t, override.Mapping{"svc::db": "ERROR"}, got)

	require.NoError(t, lb.Activate(ctx))
	assert.Equal(t, log.ErrorLevel, db.Level())
	assert.Equal(t, log.InfoLevel, h.Level(), "app::Pool is unrelated")

	require.NoError(t, lb.ClearLevels(ctx))
	require.NoError(t, lb.Activate(ctx))
	assert.Equal(t, log.InfoLevel, db.Level())
}

func TestMonitor(t *testing.T) {
	lb := newTestLumber(t)
	ctx := context.Background()
	h, err := lb.Registry().FindOrCreate("svc")
	require.NoError(t, err)

	require.NoError(t, lb.StartMonitor(10*time.Millisecond))
	assert.ErrorIs(t, lb.StartMonitor(time.Second), override.ErrPollerRunning)
	assert.True(t, lb.Monitoring())

	require.NoError(t, lb.SetLevels(ctx, override.Mapping{"svc": "WARN"}))
	require.Eventually(t, func() bool { return h.Level() == log.WarnLevel }, 2*time.Second, 5*time.Millisecond)

	lb.StopMonitor()
	lb.StopMonitor()
	assert.False(t, lb.Monitoring())

	require.NoError(t, lb.SetLevels(ctx, override.Mapping{"svc": "FATAL"}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, log.WarnLevel, h.Level())
}

func TestReset(t *testing.T) {
	lb := newTestLumber(t)
	ctx := context.Background()
	require.NoError(t, lb.RegisterClass("Model", "models"))
	h, err := lb.LoggerFor("Model")
	require.NoError(t, err)
	require.NoError(t, lb.SetLevels(ctx, override.Mapping{"models": "ERROR"}))
	require.NoError(t, lb.Activate(ctx))
	require.NoError(t, lb.StartMonitor(time.Hour))

	lb.Reset()

	assert.False(t, lb.Monitoring())
	assert.Empty(t, lb.Engine().Overridden())
	name, err := lb.LoggerNameFor("Model")
	require.NoError(t, err)
	assert.Equal(t, "app::Model", name)
	assert.Equal(t, log.ErrorLevel, h.Level())
}
