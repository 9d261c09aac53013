package badgerfx

import (
	"time"

	"github.com/dgraph-io/badger/v4"
)

type Config struct {
	// Path to the BadgerDB data directory
	Dir string
	// InMemory keeps all data in memory; Dir is ignored.
	InMemory bool
	// GCInterval is the period of value log garbage collection. Zero disables it.
	GCInterval time.Duration
}

func (c Config) Build() badger.Options {
	if c.InMemory {
		return badger.DefaultOptions("").WithInMemory(true)
	}

	return badger.DefaultOptions(c.Dir)
}
