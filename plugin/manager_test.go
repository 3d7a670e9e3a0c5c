package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockConfig is a mock configuration struct for testing structured config.
type MockConfig struct {
	Dir string
	Tag string
}

// MockFactory is a mock implementation of the Factory interface for testing.
type MockFactory struct {
	PType Type
	PName string

	SetupCount   int
	DestroyCount int
	LastConfig   *MockConfig
}

func (m *MockFactory) Type() Type   { return m.PType }
func (m *MockFactory) Name() string { return m.PName }
func (m *MockFactory) ConfigType() any {
	return &MockConfig{}
}
func (m *MockFactory) Setup(config any) (Plugin, error) {
	m.SetupCount++
	m.LastConfig, _ = config.(*MockConfig)
	return &MockPlugin{FName: m.PName}, nil
}
func (m *MockFactory) Destroy(p Plugin) {
	m.DestroyCount++
}

// MockPlugin is a mock plugin instance for testing.
type MockPlugin struct {
	FName string
}

func (mp *MockPlugin) FactoryName() string {
	return mp.FName
}

func TestManager(t *testing.T) {
	factory := &MockFactory{PType: Store, PName: "memory"}

	t.Run("RegisterFactory", func(t *testing.T) {
		manager := NewManager()
		manager.RegisterFactory(factory)
		assert.NotNil(t, manager.factories[Store])
		assert.Equal(t, factory, manager.factories[Store]["memory"])
	})

	t.Run("SetupAndGetPlugins", func(t *testing.T) {
		manager := NewManager()
		badger := &MockFactory{PType: Store, PName: "badger"}
		manager.RegisterFactory(badger)
		manager.RegisterFactory(&MockFactory{PType: Store, PName: "memory"})

		pluginConf := map[string]any{
			"store": map[string]any{
				"badger": map[string]any{
					"dir": "/var/lib/lumber",
					"tag": "default",
				},
				"memory": map[string]any{},
			},
			"unknown": map[string]any{"x": map[string]any{}},
		}

		require.NoError(t, manager.SetupPlugins(pluginConf))
		require.NotNil(t, badger.LastConfig)
		assert.Equal(t, "/var/lib/lumber", badger.LastConfig.Dir)

		p, err := manager.GetPlugin(Store, "default")
		assert.NoError(t, err)
		assert.IsType(t, &MockPlugin{}, p)
		assert.Equal(t, "badger", p.(*MockPlugin).FactoryName())

		dp, err := manager.GetDefaultPlugin(Store)
		assert.NoError(t, err)
		assert.Equal(t, p, dp)

		np, err := manager.GetPlugin(Store, "memory")
		assert.NoError(t, err)
		assert.NotNil(t, np)

		assert.Equal(t, []string{"default", "memory"}, manager.Names(Store))

		_, err = manager.GetPlugin("unknown", "x")
		assert.ErrorIs(t, err, ErrPluginNotFound)
	})

	t.Run("ErrorOnDuplicateTag", func(t *testing.T) {
		manager := NewManager()

		manager.RegisterFactory(&MockFactory{PType: Store, PName: "store1"})
		manager.RegisterFactory(&MockFactory{PType: Store, PName: "store2"})

		pluginConf := map[string]any{
			"store": map[string]any{
				"store1": map[string]any{"tag": "default"},
				"store2": map[string]any{"tag": "default"},
			},
		}

		err := manager.SetupPlugins(pluginConf)
		assert.ErrorIs(t, err, ErrDuplicatePlugin)
	})

	t.Run("ErrorOnMissingFactory", func(t *testing.T) {
		manager := NewManager()
		manager.RegisterFactory(&MockFactory{PType: Store, PName: "memory"})

		pluginConf := map[string]any{
			"store": map[string]any{
				"nonexistent": map[string]any{},
			},
		}
		err := manager.SetupPlugins(pluginConf)
		assert.ErrorIs(t, err, ErrPluginNotFound)
	})

	t.Run("ConfigDecoding", func(t *testing.T) {
		mockConfigFactory := &MockFactory{PType: "test", PName: "mockconfigfactory"}

		t.Run("InvalidType", func(t *testing.T) {
			manager := NewManager()
			manager.RegisterFactory(mockConfigFactory)

			pluginConf := map[string]any{
				"test": map[string]any{
					"mockconfigfactory": map[string]any{"Dir": 123},
				},
			}
			err := manager.SetupPlugins(pluginConf)
			assert.ErrorIs(t, err, ErrConfigDecode)
		})

		t.Run("InvalidFormat", func(t *testing.T) {
			manager := NewManager()
			manager.RegisterFactory(mockConfigFactory)

			err := manager.SetupPlugins(map[string]any{"test": "not-a-map"})
			assert.ErrorIs(t, err, ErrInvalidConfigFormat)

			err = manager.SetupPlugins(map[string]any{
				"test": map[string]any{"mockconfigfactory": "not-a-map"},
			})
			assert.ErrorIs(t, err, ErrInvalidConfigFormat)
		})
	})

	t.Run("CloseDestroysInstances", func(t *testing.T) {
		manager := NewManager()
		f := &MockFactory{PType: Store, PName: "memory"}
		manager.RegisterFactory(f)

		require.NoError(t, manager.SetupPlugins(map[string]any{
			"store": map[string]any{"memory": map[string]any{}},
		}))
		manager.Close()

		assert.Equal(t, 1, f.SetupCount)
		assert.Equal(t, 1, f.DestroyCount)
		_, err := manager.GetPlugin(Store, "memory")
		assert.ErrorIs(t, err, ErrPluginNotFound)
	})
}
