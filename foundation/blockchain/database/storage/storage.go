// Package storage selects the block storage implementation by name.
package storage

import (
	"fmt"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database/storage/disk"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database/storage/memory"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database/storage/pebbledb"
)

// Set of supported storage kinds.
const (
	KindMemory = "memory"
	KindDisk   = "disk"
	KindPebble = "pebble"
)

// Open constructs the block storage for the specified kind. The path is
// ignored for memory storage.
func Open(kind string, dbPath string) (database.Storage, error) {
	switch kind {
	case KindMemory:
		return memory.New(), nil

	case KindDisk:
		d, err := disk.New(dbPath)
		if err != nil {
			return nil, err
		}
		return d, nil

	case KindPebble:
		p, err := pebbledb.New(dbPath)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	return nil, fmt.Errorf("unknown storage kind %q", kind)
}
