package entity

import "image"

// CropRect область кадра, которую вырезаем перед классификацией
type CropRect struct {
	X      int // координата X левого верхнего угла
	Y      int // координата Y левого верхнего угла
	Width  int // ширина области в пикселях
	Height int // высота области в пикселях
}

// Rectangle переводит область в image.Rectangle
func (r CropRect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty сообщает, что у области нет площади
func (r CropRect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Inside проверяет, что область целиком лежит внутри bounds
func (r CropRect) Inside(bounds image.Rectangle) bool {
	if r.Empty() || r.X < 0 || r.Y < 0 {
		return false
	}
	return r.Rectangle().Add(bounds.Min).In(bounds)
}
