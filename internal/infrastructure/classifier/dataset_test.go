package classifier

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"camera-notifier/internal/domain/entity"
)

func TestDeriveLabelSet_LexicalOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"open", "closed", "ajar"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("x"), 0o644))

	labels, err := DeriveLabelSet(root)
	require.NoError(t, err)
	require.Equal(t, entity.LabelSet{"ajar", "closed", "open"}, labels)

	again, err := DeriveLabelSet(root)
	require.NoError(t, err)
	require.Equal(t, labels, again)
}

func TestDeriveLabelSet_MissingRoot(t *testing.T) {
	_, err := DeriveLabelSet(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, entity.ErrTrainingData)
}

func TestBuildSamples(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, map[string][]color.RGBA{"open": bright, "closed": dark})
	require.NoError(t, os.WriteFile(filepath.Join(root, "open", ".DS_Store"), []byte("x"), 0o644))

	labels, err := DeriveLabelSet(root)
	require.NoError(t, err)

	samples, err := BuildSamples(root, labels)
	require.NoError(t, err)
	require.Len(t, samples, 4)

	perClass := map[int]int{}
	for _, s := range samples {
		perClass[s.ClassID]++
		require.NotEqual(t, ".DS_Store", filepath.Base(s.Path))
	}
	require.Equal(t, map[int]int{0: 2, 1: 2}, perClass)

	// индекс класса совпадает с позицией в наборе меток
	for _, s := range samples {
		label, ok := labels.At(s.ClassID)
		require.True(t, ok)
		require.Equal(t, string(label), filepath.Base(filepath.Dir(s.Path)))
	}
}

func TestBuildSamples_EmptyClass(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, map[string][]color.RGBA{"open": bright})
	require.NoError(t, os.Mkdir(filepath.Join(root, "closed"), 0o755))

	labels, err := DeriveLabelSet(root)
	require.NoError(t, err)

	_, err = BuildSamples(root, labels)
	require.ErrorIs(t, err, entity.ErrTrainingData)
	require.Contains(t, err.Error(), "closed")
}

func TestBuildSamples_NoClasses(t *testing.T) {
	root := t.TempDir()

	labels, err := DeriveLabelSet(root)
	require.NoError(t, err)
	require.Zero(t, labels.Len())

	_, err = BuildSamples(root, labels)
	require.ErrorIs(t, err, entity.ErrTrainingData)
}

func TestSplit(t *testing.T) {
	samples := make([]entity.TrainingSample, 10)
	for i := range samples {
		samples[i] = entity.TrainingSample{Path: filepath.Join("x", string(rune('a'+i))), ClassID: i % 2}
	}

	train, valid := Split(samples, 0.8, 42)
	require.Len(t, train, 8)
	require.Len(t, valid, 2)

	train2, valid2 := Split(samples, 0.8, 42)
	require.Equal(t, train, train2)
	require.Equal(t, valid, valid2)

	seen := map[string]bool{}
	for _, s := range append(append([]entity.TrainingSample{}, train...), valid...) {
		require.False(t, seen[s.Path])
		seen[s.Path] = true
	}
	require.Len(t, seen, 10)
}

func TestSplit_TinyDataset(t *testing.T) {
	samples := []entity.TrainingSample{{Path: "a"}, {Path: "b", ClassID: 1}}

	train, valid := Split(samples, 0.3, 1)
	require.Len(t, train, 1)
	require.Len(t, valid, 1)

	train, valid = Split(nil, 0.8, 1)
	require.Empty(t, train)
	require.Empty(t, valid)
}
