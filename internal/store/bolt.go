package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/vlanspan/pvstd/internal/stp"
)

const recordBucket = "pvst_state"

// BoltPublisher persists the latest record per (vlan, interface) key into
// a bbolt database, grounded on the teacher's pkg/storage/storage.go
// (`db.Update` / JSON-marshal-under-a-bucket), repurposed from an
// append-only run history into a single-latest-value-per-key table.
type BoltPublisher struct {
	db *bbolt.DB
}

// OpenBoltPublisher opens (creating if necessary) the database at path.
func OpenBoltPublisher(path string) (*BoltPublisher, error) {
	if path == "" {
		return nil, fmt.Errorf("open state store: %w", ErrPathRequired)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state store directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state store %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(recordBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init state store bucket: %w", err)
	}

	return &BoltPublisher{db: db}, nil
}

// Publish implements Publisher, overwriting whatever record was
// previously stored for this VLAN/interface pair.
func (p *BoltPublisher) Publish(ctx context.Context, rec stp.PublishedRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish state record: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal published record: %w", err)
	}

	key := recordKey(rec.VlanID, rec.IfName)
	if err := p.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recordBucket)).Put(key, data)
	}); err != nil {
		return fmt.Errorf("persist published record: %w", err)
	}
	return nil
}

// Latest returns the most recently persisted record for (vlanID, ifName),
// if any. An empty ifName looks up the VLAN's bridge-level record.
func (p *BoltPublisher) Latest(vlanID uint16, ifName string) (stp.PublishedRecord, bool, error) {
	var rec stp.PublishedRecord
	var found bool

	err := p.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(recordBucket)).Get(recordKey(vlanID, ifName))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return stp.PublishedRecord{}, false, fmt.Errorf("read published record: %w", err)
	}
	return rec, found, nil
}

// Close closes the underlying database.
func (p *BoltPublisher) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("close state store: %w", err)
	}
	return nil
}

// recordKey keys each persisted record by (vlan, interface); a zero-length
// ifName is the VLAN's bridge-level summary record.
func recordKey(vlanID uint16, ifName string) []byte {
	return []byte(fmt.Sprintf("%05d/%s", vlanID, ifName))
}
