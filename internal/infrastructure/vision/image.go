package vision

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	// Декодеры для image.Decode.
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"camera-notifier/internal/domain/entity"
)

// jpegQuality качество сохранения кадров и вырезанных областей.
const jpegQuality = 95

// Decode читает изображение из файла.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", entity.ErrImageDecode, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", entity.ErrImageDecode, path, err)
	}
	return img, nil
}

// Encode сохраняет изображение, формат выбирается по расширению (.png или jpeg).
func Encode(path string, img image.Image) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Crop вырезает область rect. Область вне кадра не обрезается, а считается ошибкой.
func Crop(src image.Image, rect entity.CropRect) (image.Image, error) {
	bounds := src.Bounds()
	if !rect.Inside(bounds) {
		return nil, fmt.Errorf("%w: crop %dx%d at (%d,%d) outside image %dx%d",
			entity.ErrImageDecode, rect.Width, rect.Height, rect.X, rect.Y, bounds.Dx(), bounds.Dy())
	}

	r := rect.Rectangle().Add(bounds.Min)
	dst := image.NewRGBA(image.Rect(0, 0, rect.Width, rect.Height))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst, nil
}
