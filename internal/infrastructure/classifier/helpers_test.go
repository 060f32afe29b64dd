package classifier

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"camera-notifier/internal/infrastructure/vision"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// writeDataset создаёт по каталогу на класс и кладёт в каждый по картинке на цвет
func writeDataset(t *testing.T, root string, classes map[string][]color.RGBA) {
	t.Helper()
	for name, colors := range classes {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for i, c := range colors {
			path := filepath.Join(dir, string(rune('a'+i))+".png")
			require.NoError(t, vision.Encode(path, solidImage(24, 20, c)))
		}
	}
}

var (
	bright = []color.RGBA{{R: 240, G: 240, B: 230, A: 255}, {R: 220, G: 230, B: 240, A: 255}}
	dark   = []color.RGBA{{R: 20, G: 20, B: 30, A: 255}, {R: 40, G: 30, B: 20, A: 255}}
)

func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.ModelPath = filepath.Join(dir, "model", "weights.bin")
	cfg.TrainingPath = filepath.Join(dir, "training")
	cfg.InputSize = 16
	cfg.Epochs = 5
	cfg.LearningRate = 0.05
	return cfg
}
