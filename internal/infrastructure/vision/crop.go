//go:build !gocv
// +build !gocv

package vision

import "camera-notifier/internal/domain/entity"

// CropFile вырезает область из sourcePath и сохраняет её в destPath.
func CropFile(sourcePath, destPath string, rect entity.CropRect) error {
	src, err := Decode(sourcePath)
	if err != nil {
		return err
	}

	cropped, err := Crop(src, rect)
	if err != nil {
		return err
	}

	return Encode(destPath, cropped)
}
