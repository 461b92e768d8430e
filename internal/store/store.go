// Package store holds the backends that persist the dispenser document.
//
// Every backend keeps the whole document as one JSON value and implements
// dispenser.Repository: Update runs load, mutate and save as a single unit, so
// concurrent requests never observe or overwrite each other's intermediate state.
package store

import (
	"context"
	"fmt"

	"account-dispenser/internal/dispenser"
)

type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverFile     Driver = "file"
	DriverBolt     Driver = "bolt"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

type Store interface {
	dispenser.Repository
	Ping(ctx context.Context) error
	Close() error
}

type Options struct {
	Driver        Driver
	Path          string
	DatabaseURL   string
	RunMigrations bool
}

func Open(ctx context.Context, options Options) (Store, error) {
	switch options.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile, "":
		return OpenFile(options.Path)
	case DriverBolt:
		return OpenBolt(options.Path)
	case DriverSQLite:
		if err := ensureDir(options.Path); err != nil {
			return nil, err
		}
		return OpenSQL(ctx, DialectSQLite, sqliteDSN(options.Path), options.RunMigrations)
	case DriverPostgres:
		return OpenSQL(ctx, DialectPostgres, options.DatabaseURL, options.RunMigrations)
	case DriverMySQL:
		return OpenSQL(ctx, DialectMySQL, options.DatabaseURL, options.RunMigrations)
	default:
		return nil, fmt.Errorf("unknown store driver %q", options.Driver)
	}
}

// apply decodes a stored document and runs fn on it. The encoded result is returned
// only when fn succeeds.
func apply(data []byte, fn func(doc *dispenser.Document) error) ([]byte, error) {
	doc, err := dispenser.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	encoded, err := dispenser.EncodeDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return encoded, nil
}

func view(data []byte, fn func(doc *dispenser.Document) error) error {
	doc, err := dispenser.DecodeDocument(data)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return fn(doc)
}
