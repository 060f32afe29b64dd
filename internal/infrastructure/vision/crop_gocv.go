//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"camera-notifier/internal/domain/entity"
)

// CropFile вырезает область средствами OpenCV (сборка с тегом gocv).
func CropFile(sourcePath, destPath string, rect entity.CropRect) error {
	mat := gocv.IMRead(sourcePath, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return fmt.Errorf("%w: decode %s", entity.ErrImageDecode, sourcePath)
	}

	bounds := image.Rect(0, 0, mat.Cols(), mat.Rows())
	if !rect.Inside(bounds) {
		return fmt.Errorf("%w: crop %dx%d at (%d,%d) outside image %dx%d",
			entity.ErrImageDecode, rect.Width, rect.Height, rect.X, rect.Y, mat.Cols(), mat.Rows())
	}

	region := mat.Region(rect.Rectangle())
	defer region.Close()

	if !gocv.IMWrite(destPath, region) {
		return fmt.Errorf("write %s: opencv imwrite failed", destPath)
	}
	return nil
}
