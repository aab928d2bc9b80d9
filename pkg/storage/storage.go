// Package storage keeps decoded ROI collections in a pebble-backed catalog
// so they can be listed and fetched again without the source archive.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/roiread/pkg/roi"
)

// ErrNotFound is returned for unknown collection ids.
var ErrNotFound = errors.New("collection not found")

// Key prefixes. Summaries are kept apart from the collection bodies so that
// listing does not decode every stored collection.
var (
	summaryPrefix    = []byte("s/")
	collectionPrefix = []byte("c/")
)

// Summary describes one stored collection.
type Summary struct {
	ID       string    `json:"id" yaml:"id"`
	Source   string    `json:"source" yaml:"source"`
	ROIs     int       `json:"rois" yaml:"rois"`
	Failures int       `json:"failures" yaml:"failures"`
	Created  time.Time `json:"created" yaml:"created"`
}

// DefaultStorage is the pebble implementation of the catalog.
type DefaultStorage struct {
	db *pebble.DB
}

// NewDefaultStorage opens or creates the catalog at path.
func NewDefaultStorage(path string) (*DefaultStorage, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return &DefaultStorage{db: db}, nil
}

// Create stores a collection decoded from source and returns its summary.
// Ids are KSUIDs, so listing returns collections in creation order.
func (s *DefaultStorage) Create(source string, coll *roi.Collection) (*Summary, error) {
	id := ksuid.New()
	body, err := json.Marshal(coll)
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}
	summary := &Summary{
		ID:       id.String(),
		Source:   source,
		ROIs:     coll.Len(),
		Failures: len(coll.Failures()),
		Created:  id.Time().UTC(),
	}
	meta, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode summary: %w", err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(key(collectionPrefix, id), body, nil); err != nil {
		return nil, err
	}
	if err := batch.Set(key(summaryPrefix, id), meta, nil); err != nil {
		return nil, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to store collection: %w", err)
	}
	return summary, nil
}

// Read returns the collection stored under id.
func (s *DefaultStorage) Read(id string) (*roi.Collection, error) {
	kid, err := ksuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	data, closer, err := s.db.Get(key(collectionPrefix, kid))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var coll roi.Collection
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, fmt.Errorf("failed to decode collection %s: %w", id, err)
	}
	return &coll, nil
}

// List returns the summaries of all stored collections, oldest first.
func (s *DefaultStorage) List() ([]Summary, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: summaryPrefix,
		UpperBound: []byte("s0"), // '0' follows '/'
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	summaries := []Summary{}
	for iter.First(); iter.Valid(); iter.Next() {
		var sum Summary
		if err := json.Unmarshal(iter.Value(), &sum); err != nil {
			return nil, fmt.Errorf("failed to decode summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, iter.Error()
}

// Delete removes a stored collection.
func (s *DefaultStorage) Delete(id string) error {
	kid, err := ksuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	_, closer, err := s.db.Get(key(summaryPrefix, kid))
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	closer.Close()

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(key(collectionPrefix, kid), nil); err != nil {
		return err
	}
	if err := batch.Delete(key(summaryPrefix, kid), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// Close closes the underlying database.
func (s *DefaultStorage) Close() error {
	return s.db.Close()
}

func key(prefix []byte, id ksuid.KSUID) []byte {
	k := make([]byte, 0, len(prefix)+len(id))
	k = append(k, prefix...)
	return append(k, id.Bytes()...)
}
