package override

import (
	"fmt"

	"github.com/linchenxuan/lumber/log"
	"github.com/linchenxuan/lumber/plugin"
)

// Store plugin names.
const (
	MemoryStoreName = "memory"
	BadgerStoreName = "badger"
)

// MemoryConfig configures a MemoryStore plugin.
type MemoryConfig struct {
	Tag string `mapstructure:"tag"`
}

// MemoryStoreFactory builds MemoryStore plugins.
type MemoryStoreFactory struct{}

var _ plugin.Factory = (*MemoryStoreFactory)(nil)

// Type returns the plugin type.
func (f *MemoryStoreFactory) Type() plugin.Type {
	return plugin.Store
}

// Name returns the name of the plugin implementation.
func (f *MemoryStoreFactory) Name() string {
	return MemoryStoreName
}

// ConfigType returns an empty MemoryConfig.
func (f *MemoryStoreFactory) ConfigType() any {
	return &MemoryConfig{}
}

// Setup creates an empty MemoryStore.
func (f *MemoryStoreFactory) Setup(any) (plugin.Plugin, error) {
	return NewMemoryStore(), nil
}

// Destroy does nothing; memory stores hold no resources.
func (f *MemoryStoreFactory) Destroy(plugin.Plugin) {}

// BadgerStoreFactory builds BadgerStore plugins.
type BadgerStoreFactory struct{}

var _ plugin.Factory = (*BadgerStoreFactory)(nil)

// Type returns the plugin type.
func (f *BadgerStoreFactory) Type() plugin.Type {
	return plugin.Store
}

// Name returns the name of the plugin implementation.
func (f *BadgerStoreFactory) Name() string {
	return BadgerStoreName
}

// ConfigType returns an empty BadgerConfig.
func (f *BadgerStoreFactory) ConfigType() any {
	return &BadgerConfig{}
}

// Setup opens the configured badger database.
func (f *BadgerStoreFactory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*BadgerConfig)
	if !ok {
		return nil, fmt.Errorf("badger store: unexpected config %T", cfgAny)
	}
	return OpenBadgerStore(*cfg)
}

// Destroy closes the database.
func (f *BadgerStoreFactory) Destroy(p plugin.Plugin) {
	s, ok := p.(*BadgerStore)
	if !ok {
		log.Error().Str("type", fmt.Sprintf("%T", p)).Msg("badger store destroy failed")
		return
	}
	if err := s.Close(); err != nil {
		log.Error().Err(err).Msg("close badger store")
	}
}

// RegisterFactories registers every store factory with m.
func RegisterFactories(m *plugin.Manager) {
	m.RegisterFactory(&MemoryStoreFactory{})
	m.RegisterFactory(&BadgerStoreFactory{})
}

// StoreFrom returns the store plugin called name, or the default one when
// name is empty.
func StoreFrom(m *plugin.Manager, name string) (Store, error) {
	if name == "" {
		name = plugin.DefaultInsName
	}
	p, err := m.GetPlugin(plugin.Store, name)
	if err != nil {
		return nil, err
	}
	s, ok := p.(Store)
	if !ok {
		return nil, fmt.Errorf("plugin %s is %T, not a store", name, p)
	}
	return s, nil
}
