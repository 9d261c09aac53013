package badgerfx

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// SeekEnd sorts after every key under a prefix, for reverse iteration.
const SeekEnd = byte(0xFF)

type EntityFactory[T Entity] func() T

type Repository[T Entity] struct {
	prefix  string
	zero    T
	factory EntityFactory[T]
}

func NewRepository[T Entity](prefix string, factory EntityFactory[T]) *Repository[T] {
	var zero T
	return &Repository[T]{
		prefix:  prefix,
		zero:    zero,
		factory: factory,
	}
}

// Key returns the primary key of the entity with the given id.
func (r *Repository[T]) Key(id string) []byte {
	return []byte(r.prefix + id)
}

func (r *Repository[T]) List(txn *badger.Txn, options badger.IteratorOptions) ([]T, error) {
	validPrefix := []byte(r.prefix)
	seekPrefix := []byte(r.prefix)
	if options.Reverse {
		seekPrefix = append(seekPrefix, SeekEnd)
	}

	it := txn.NewIterator(options)
	defer it.Close()

	var entities []T
	for it.Seek(seekPrefix); it.ValidForPrefix(validPrefix); it.Next() {
		item := it.Item()

		entity := r.factory()
		if err := item.Value(func(val []byte) error {
			return entity.UnmarshalStorage(val)
		}); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
		}

		entities = append(entities, entity)
	}

	return entities, nil
}

func (r *Repository[T]) Read(txn *badger.Txn, id string) (T, error) {
	return r.read(txn, r.Key(id))
}

func (r *Repository[T]) ReadByIndex(txn *badger.Txn, index string) (T, error) {
	item, err := txn.Get([]byte(index))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return r.zero, fmt.Errorf("%w: %s", ErrNotFound, index)
	}
	if err != nil {
		return r.zero, fmt.Errorf("failed to get entity: %w", err)
	}

	key, err := item.ValueCopy(nil)
	if err != nil {
		return r.zero, fmt.Errorf("failed to get entity key: %w", err)
	}

	return r.read(txn, key)
}

func (r *Repository[T]) read(txn *badger.Txn, key []byte) (T, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return r.zero, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return r.zero, fmt.Errorf("failed to get entity: %w", err)
	}

	entity := r.factory()
	if valErr := item.Value(func(val []byte) error {
		return entity.UnmarshalStorage(val)
	}); valErr != nil {
		return r.zero, fmt.Errorf("failed to unmarshal entity: %w", valErr)
	}

	return entity, nil
}

func (r *Repository[T]) Write(txn *badger.Txn, entity T) error {
	data, err := entity.MarshalStorage()
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	if indexErr := r.CreateIndexes(txn, entity); indexErr != nil {
		return indexErr
	}

	if setErr := txn.Set(r.Key(entity.StorageID()), data); setErr != nil {
		return fmt.Errorf("failed to update entity: %w", setErr)
	}

	return nil
}

func (r *Repository[T]) Delete(txn *badger.Txn, id string) error {
	entity, err := r.Read(txn, id)
	if err != nil {
		return err
	}

	if indexErr := r.DeleteIndexes(txn, entity); indexErr != nil {
		return indexErr
	}

	if delErr := txn.Delete(r.Key(id)); delErr != nil {
		return fmt.Errorf("failed to delete entity: %w", delErr)
	}

	return nil
}

func (r *Repository[T]) CreateIndexes(txn *badger.Txn, entity T) error {
	key := r.Key(entity.StorageID())
	for _, index := range entity.StorageIndexes() {
		if err := txn.Set([]byte(index), key); err != nil {
			return fmt.Errorf("failed to set entity index: %w", err)
		}
	}

	return nil
}

func (r *Repository[T]) DeleteIndexes(txn *badger.Txn, entity T) error {
	for _, index := range entity.StorageIndexes() {
		if err := txn.Delete([]byte(index)); err != nil {
			return fmt.Errorf("failed to delete entity index: %w", err)
		}
	}

	return nil
}
