package vision

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"camera-notifier/internal/domain/entity"
)

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	require.NoError(t, Encode(path, img))
}

func TestCropFile_ExactDimensions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame.jpg")
	dst := filepath.Join(dir, "crop.jpg")
	writeTestImage(t, src, 120, 80)

	rect := entity.CropRect{X: 10, Y: 5, Width: 40, Height: 30}
	require.NoError(t, CropFile(src, dst, rect))

	out, err := Decode(dst)
	require.NoError(t, err)
	require.Equal(t, 40, out.Bounds().Dx())
	require.Equal(t, 30, out.Bounds().Dy())
}

func TestCropFile_OutOfBoundsFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame.png")
	dst := filepath.Join(dir, "crop.png")
	writeTestImage(t, src, 50, 50)

	err := CropFile(src, dst, entity.CropRect{X: 30, Y: 30, Width: 30, Height: 10})
	require.ErrorIs(t, err, entity.ErrImageDecode)

	_, statErr := os.Stat(dst)
	require.True(t, os.IsNotExist(statErr))
}

func TestCropFile_CorruptSourceFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame.jpg")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	err := CropFile(src, filepath.Join(dir, "crop.jpg"), entity.CropRect{Width: 1, Height: 1})
	require.ErrorIs(t, err, entity.ErrImageDecode)
}

func TestCrop_KeepsPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.SetRGBA(4, 3, color.RGBA{R: 200, A: 255})

	out, err := Crop(img, entity.CropRect{X: 4, Y: 3, Width: 2, Height: 2})
	require.NoError(t, err)

	r, _, _, _ := out.At(0, 0).RGBA()
	require.Equal(t, uint32(200)<<8|200, r)
}
