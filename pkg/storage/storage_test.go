package storage

import (
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/roiread/pkg/roi"
)

// rectRecord is a minimal version 227 rectangle record.
func rectRecord() []byte {
	data := make([]byte, roi.HeaderSize)
	copy(data, roi.Magic)
	data[5] = 227 // version
	data[6] = 1   // rect
	data[9] = 2   // top
	data[11] = 3  // left
	data[13] = 12 // bottom
	data[15] = 8  // right
	return data
}

func newCollection(t *testing.T) *roi.Collection {
	t.Helper()
	return roi.DecodeEntries([]roi.Entry{
		{Name: "cell.roi", Data: rectRecord()},
		{Name: "broken.roi", Data: []byte("nope")},
	})
}

func newStorage(t *testing.T) *DefaultStorage {
	t.Helper()
	s, err := NewDefaultStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateRead(t *testing.T) {
	s := newStorage(t)

	summary, err := s.Create("cells.zip", newCollection(t))
	require.NoError(t, err)
	assert.Equal(t, "cells.zip", summary.Source)
	assert.Equal(t, 1, summary.ROIs)
	assert.Equal(t, 1, summary.Failures)
	assert.False(t, summary.Created.IsZero())

	coll, err := s.Read(summary.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"cell"}, coll.Keys())

	r, ok := coll.Get("cell")
	require.True(t, ok)
	assert.Equal(t, roi.KindRect, r.Kind)
	assert.Equal(t, roi.Box{Top: 2, Left: 3, Bottom: 12, Right: 8}, r.Box)

	require.Len(t, coll.Failures(), 1)
	assert.Equal(t, "broken.roi", coll.Failures()[0].Name)
}

func TestList(t *testing.T) {
	s := newStorage(t)

	empty, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, empty)

	var ids []string
	for _, source := range []string{"a.zip", "b.zip", "c.zip"} {
		summary, err := s.Create(source, newCollection(t))
		require.NoError(t, err)
		ids = append(ids, summary.ID)
	}

	summaries, err := s.List()
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	var got []string
	for _, sum := range summaries {
		got = append(got, sum.ID)
	}
	assert.ElementsMatch(t, ids, got)
}

func TestDelete(t *testing.T) {
	s := newStorage(t)

	summary, err := s.Create("cells.zip", newCollection(t))
	require.NoError(t, err)

	require.NoError(t, s.Delete(summary.ID))

	_, err = s.Read(summary.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	summaries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, summaries)

	assert.ErrorIs(t, s.Delete(summary.ID), ErrNotFound)
}

func TestUnknownIDs(t *testing.T) {
	s := newStorage(t)

	_, err := s.Read("not-a-ksuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Read(ksuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete("not-a-ksuid"), ErrNotFound)
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewDefaultStorage(dir)
	require.NoError(t, err)
	summary, err := s.Create("cells.zip", newCollection(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewDefaultStorage(dir)
	require.NoError(t, err)
	defer s.Close()

	coll, err := s.Read(summary.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, coll.Len())
}
