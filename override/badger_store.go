package override

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string `mapstructure:"dir"`
	// InMemory keeps the database in memory only.
	InMemory bool `mapstructure:"in_memory"`
	// Tag names the store instance in the plugin manager.
	Tag string `mapstructure:"tag"`
}

// BadgerStore is a Store on an embedded badger database. Mappings are
// encoded as protobuf Structs and expire through badger entry TTLs.
//
// A badger database is owned by one process; every engine of that process
// may share the store.
type BadgerStore struct {
	db    *badger.DB
	owned bool
}

var _ Store = (*BadgerStore)(nil)

// OpenBadgerStore opens the database described by cfg. The store closes it
// on Close.
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("badger store: dir is required unless in_memory is set")
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &BadgerStore{db: db, owned: true}, nil
}

// NewBadgerStore wraps a database owned by the caller.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Read decodes the mapping under key. Missing and expired keys read as an
// empty mapping.
func (s *BadgerStore) Read(ctx context.Context, key string) (Mapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Mapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return decodeMapping(raw)
}

// Write encodes m under key with ttl. An empty mapping deletes the key.
func (s *BadgerStore) Write(ctx context.Context, key string, m Mapping, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(m) == 0 {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		})
		if err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	}

	raw, err := encodeMapping(m)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), raw)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Close closes the database when the store opened it.
func (s *BadgerStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// FactoryName implements plugin.Plugin.
func (s *BadgerStore) FactoryName() string {
	return BadgerStoreName
}

func encodeMapping(m Mapping) ([]byte, error) {
	fields := make(map[string]any, len(m))
	for k, v := range m {
		fields[k] = v
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode mapping: %w", err)
	}
	return proto.Marshal(st)
}

func decodeMapping(raw []byte) (Mapping, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	m := make(Mapping, len(st.GetFields()))
	for k, v := range st.GetFields() {
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			m[k] = s.StringValue
			continue
		}
		m[k] = fmt.Sprint(v.AsInterface())
	}
	return m, nil
}
