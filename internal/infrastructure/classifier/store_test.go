package classifier

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"camera-notifier/internal/domain/entity"
)

func TestStore_RoundTrip(t *testing.T) {
	labels := entity.NewLabelSet([]string{"open", "closed"})
	m := newModel(labels, 8, 0.2, rand.New(rand.NewSource(7)))
	m.Eval()

	store := NewStore(filepath.Join(t.TempDir(), "nested", "weights.bin"))
	require.False(t, store.Exists())

	savedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(m, CheckpointInfo{Epoch: 3, Accuracy: 0.75, SavedAt: savedAt}))
	require.True(t, store.Exists())

	loaded, info, err := store.Load(labels)
	require.NoError(t, err)
	require.Equal(t, 3, info.Epoch)
	require.Equal(t, 0.75, info.Accuracy)
	require.True(t, savedAt.Equal(info.SavedAt))
	require.Equal(t, labels, loaded.Labels())
	require.Equal(t, 8, loaded.InputSize())
	require.False(t, loaded.Training())

	tensor := zeroTensor(8)
	for i := range tensor.Data {
		tensor.Data[i] = float64(i%5) - 2
	}
	want, err := m.Probabilities(tensor)
	require.NoError(t, err)
	got, err := loaded.Probabilities(tensor)
	require.NoError(t, err)
	require.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not survive Save")
}

func TestStore_LoadClassCountMismatch(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "weights.bin"))
	m := newModel(entity.NewLabelSet([]string{"open", "closed"}), 8, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, store.Save(m, CheckpointInfo{Epoch: 1}))

	_, _, err := store.Load(entity.NewLabelSet([]string{"ajar", "closed", "open"}))
	require.ErrorIs(t, err, entity.ErrModelLoad)
}

func TestStore_LoadLabelDrift(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "weights.bin"))
	m := newModel(entity.NewLabelSet([]string{"open", "closed"}), 8, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, store.Save(m, CheckpointInfo{Epoch: 1}))

	_, _, err := store.Load(entity.NewLabelSet([]string{"open", "shut"}))
	require.ErrorIs(t, err, entity.ErrModelLoad)
}

func TestStore_LoadWithoutCurrentLabels(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "weights.bin"))
	labels := entity.NewLabelSet([]string{"open", "closed"})
	require.NoError(t, store.Save(newModel(labels, 8, 0, rand.New(rand.NewSource(1))), CheckpointInfo{}))

	loaded, _, err := store.Load(nil)
	require.NoError(t, err)
	require.Equal(t, labels, loaded.Labels())
}

func TestStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a checkpoint"), 0o644))

	_, _, err := NewStore(path).Load(nil)
	require.ErrorIs(t, err, entity.ErrModelLoad)
}

func TestStore_LoadMissing(t *testing.T) {
	_, _, err := NewStore(filepath.Join(t.TempDir(), "weights.bin")).Load(nil)
	require.ErrorIs(t, err, entity.ErrModelLoad)
}
