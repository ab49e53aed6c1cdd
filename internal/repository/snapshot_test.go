package repository

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSnapshotRepo(t *testing.T) *SnapshotRepository {
	t.Helper()
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return NewSnapshotRepository(filepath.Join(t.TempDir(), "subscriptions.json"), log)
}

func TestSnapshotSaveLoadRoundTrip(t *testing.T) {
	repo := newTestSnapshotRepo(t)

	subs := map[domain.Address]domain.Subscription{
		"0xalice": {Expiry: 1750000000, Tier: domain.TierBasic, IsActive: true},
		"0xbob":   {Expiry: 1760000000, Tier: domain.TierPremium, IsActive: true},
	}
	require.NoError(t, repo.Save(subs))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, subs, loaded)
}

func TestSnapshotLoadMissingFileReturnsEmpty(t *testing.T) {
	repo := newTestSnapshotRepo(t)

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSnapshotSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	repo := NewSnapshotRepository(filepath.Join(dir, "subscriptions.json"), log)

	require.NoError(t, repo.Save(map[domain.Address]domain.Subscription{
		"0xalice": {Expiry: 1, Tier: domain.TierBasic, IsActive: true},
	}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "subscriptions.json", entries[0].Name())
}

func TestSnapshotLoadCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subscriptions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	repo := NewSnapshotRepository(path, log)

	_, err := repo.Load()
	require.ErrorIs(t, err, ErrInvalidData)
}
