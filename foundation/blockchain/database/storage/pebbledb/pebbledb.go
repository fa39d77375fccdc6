// Package pebbledb implements the ability to read and write blocks to a
// pebble key/value store. Each block is stored as zstd compressed JSON
// under its big endian block number.
package pebbledb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/klauspost/compress/zstd"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
)

// blockPrefix namespaces the block keys in the store.
const blockPrefix = 'b'

// Pebble represents the serialization implementation for reading and storing
// blocks in a pebble database. This implements the database.Storage
// interface.
type Pebble struct {
	db      *pebble.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New opens or creates the pebble database at the specified path.
func New(dbPath string) (*Pebble, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	p := Pebble{
		db:      db,
		encoder: encoder,
		decoder: decoder,
	}

	return &p, nil
}

// Close flushes and closes the database.
func (p *Pebble) Close() error {
	p.decoder.Close()
	if err := p.encoder.Close(); err != nil {
		p.db.Close()
		return err
	}

	return p.db.Close()
}

// Write takes the specified database block and stores it synchronously.
func (p *Pebble) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	compressed := p.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))

	if err := p.db.Set(blockKey(blockData.Header.Number), compressed, pebble.Sync); err != nil {
		return fmt.Errorf("set blk[%d]: %w", blockData.Header.Number, err)
	}

	return nil
}

// GetBlock locates and returns the contents of the specified block by number.
func (p *Pebble) GetBlock(num uint64) (database.BlockData, error) {
	val, closer, err := p.db.Get(blockKey(num))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return database.BlockData{}, fmt.Errorf("blk[%d]: %w", num, database.ErrNotFound)
		}
		return database.BlockData{}, err
	}

	// The value is only valid until closer is called.
	data, err := p.decoder.DecodeAll(val, nil)
	closer.Close()
	if err != nil {
		return database.BlockData{}, fmt.Errorf("decompress blk[%d]: %w", num, err)
	}

	var blockData database.BlockData
	if err := json.Unmarshal(data, &blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("decode blk[%d]: %w", num, err)
	}

	return blockData, nil
}

// Reset removes every block from the database.
func (p *Pebble) Reset() error {
	start := []byte{blockPrefix}
	end := []byte{blockPrefix + 1}

	return p.db.DeleteRange(start, end, pebble.Sync)
}

// blockKey builds the key for the block so keys sort by block number.
func blockKey(num uint64) []byte {
	key := make([]byte, 9)
	key[0] = blockPrefix
	binary.BigEndian.PutUint64(key[1:], num)
	return key
}
