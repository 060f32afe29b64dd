package classifier

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/infrastructure/vision"
)

func TestEngine_TrainThenLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeDataset(t, cfg.TrainingPath, map[string][]color.RGBA{"open": bright, "closed": dark})

	probe := filepath.Join(dir, "probe.png")
	require.NoError(t, vision.Encode(probe, solidImage(30, 30, color.RGBA{R: 230, G: 235, B: 235, A: 255})))

	var epochs []EpochReport
	first := NewEngine(cfg, nil)
	first.OnEpoch(func(r EpochReport) { epochs = append(epochs, r) })

	label, err := first.Classify(context.Background(), probe)
	require.NoError(t, err)
	require.Contains(t, []entity.Label{"open", "closed"}, label)
	require.FileExists(t, cfg.ModelPath)

	require.Len(t, epochs, cfg.Epochs)
	require.True(t, epochs[0].Saved, "first epoch always checkpoints")

	report := first.LastTrainReport()
	require.NotNil(t, report)
	require.Equal(t, entity.LabelSet{"closed", "open"}, report.Labels)
	require.Equal(t, 3, report.TrainSize)
	require.Equal(t, 1, report.ValidSize)
	require.GreaterOrEqual(t, report.BestEpoch, 1)

	second := NewEngine(cfg, nil)
	again, err := second.Classify(context.Background(), probe)
	require.NoError(t, err)
	require.Equal(t, label, again)
	require.Nil(t, second.LastTrainReport())

	m1, err := first.EnsureReady(context.Background(), false)
	require.NoError(t, err)
	m2, err := second.EnsureReady(context.Background(), false)
	require.NoError(t, err)

	tensor, err := vision.PreprocessFile(probe, cfg.InputSize)
	require.NoError(t, err)
	p1, err := m1.Probabilities(tensor)
	require.NoError(t, err)
	p2, err := m2.Probabilities(tensor)
	require.NoError(t, err)
	require.Equal(t, p1, p2)
}

func TestEngine_EnsureReadyIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Epochs = 2
	writeDataset(t, cfg.TrainingPath, map[string][]color.RGBA{"open": bright, "closed": dark})

	engine := NewEngine(cfg, nil)
	m1, err := engine.EnsureReady(context.Background(), false)
	require.NoError(t, err)
	m2, err := engine.EnsureReady(context.Background(), false)
	require.NoError(t, err)
	require.Same(t, m1, m2)
	require.False(t, m2.Training())

	m3, err := engine.EnsureReady(context.Background(), true)
	require.NoError(t, err)
	require.NotSame(t, m1, m3)
}

func TestEngine_LabelDriftRequiresRetrain(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Epochs = 1
	writeDataset(t, cfg.TrainingPath, map[string][]color.RGBA{"open": bright, "closed": dark})

	_, err := NewEngine(cfg, nil).EnsureReady(context.Background(), false)
	require.NoError(t, err)

	writeDataset(t, cfg.TrainingPath, map[string][]color.RGBA{"ajar": bright[:1]})

	_, err = NewEngine(cfg, nil).EnsureReady(context.Background(), false)
	require.ErrorIs(t, err, entity.ErrModelLoad)
}

func TestEngine_LoadWithoutTrainingData(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Epochs = 1
	writeDataset(t, cfg.TrainingPath, map[string][]color.RGBA{"open": bright, "closed": dark})

	_, err := NewEngine(cfg, nil).EnsureReady(context.Background(), false)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(cfg.TrainingPath))

	m, err := NewEngine(cfg, nil).EnsureReady(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, entity.LabelSet{"closed", "open"}, m.Labels())
}

func TestEngine_NoTrainingData(t *testing.T) {
	cfg := testConfig(t.TempDir())

	_, err := NewEngine(cfg, nil).Classify(context.Background(), "whatever.jpg")
	require.ErrorIs(t, err, entity.ErrTrainingData)
	require.NoFileExists(t, cfg.ModelPath)
}

func TestEngine_UndecodableImage(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Epochs = 1
	writeDataset(t, cfg.TrainingPath, map[string][]color.RGBA{"open": bright, "closed": dark})

	bad := filepath.Join(dir, "bad.jpg")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))

	_, err := NewEngine(cfg, nil).Classify(context.Background(), bad)
	require.ErrorIs(t, err, entity.ErrInference)
}

func TestEngine_CancelledTraining(t *testing.T) {
	cfg := testConfig(t.TempDir())
	writeDataset(t, cfg.TrainingPath, map[string][]color.RGBA{"open": bright, "closed": dark})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(cfg, nil).EnsureReady(ctx, false)
	require.ErrorIs(t, err, context.Canceled)
}
