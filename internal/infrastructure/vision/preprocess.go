package vision

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"camera-notifier/internal/domain/entity"
)

// Средние и отклонения каналов, на которые рассчитан вход модели.
var (
	ChannelMean = [3]float64{0.485, 0.456, 0.406}
	ChannelStd  = [3]float64{0.229, 0.224, 0.225}
)

// Tensor нормализованное изображение size×size в порядке каналов CHW.
type Tensor struct {
	Size int
	Data []float64
}

// At возвращает значение канала c в точке (x, y)
func (t Tensor) At(c, x, y int) float64 {
	return t.Data[c*t.Size*t.Size+y*t.Size+x]
}

// Preprocess масштабирует короткую сторону до size*8/7, вырезает центр size×size
// и нормализует каналы.
func Preprocess(img image.Image, size int) (Tensor, error) {
	if size <= 0 {
		return Tensor{}, fmt.Errorf("%w: invalid input size %d", entity.ErrInference, size)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Tensor{}, fmt.Errorf("%w: image has zero extent", entity.ErrInference)
	}

	short := size * 8 / 7
	w, h := short, short
	if bounds.Dx() > bounds.Dy() {
		w = (bounds.Dx()*short + bounds.Dy()/2) / bounds.Dy()
	} else {
		h = (bounds.Dy()*short + bounds.Dx()/2) / bounds.Dx()
	}

	resized := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Src, nil)

	x0, y0 := (w-size)/2, (h-size)/2
	plane := size * size
	data := make([]float64, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := resized.RGBAAt(x0+x, y0+y)
			i := y*size + x
			data[i] = (float64(c.R)/255 - ChannelMean[0]) / ChannelStd[0]
			data[plane+i] = (float64(c.G)/255 - ChannelMean[1]) / ChannelStd[1]
			data[2*plane+i] = (float64(c.B)/255 - ChannelMean[2]) / ChannelStd[2]
		}
	}

	return Tensor{Size: size, Data: data}, nil
}

// PreprocessFile читает файл и готовит его для модели.
func PreprocessFile(path string, size int) (Tensor, error) {
	img, err := Decode(path)
	if err != nil {
		return Tensor{}, fmt.Errorf("%w: %v", entity.ErrInference, err)
	}
	return Preprocess(img, size)
}

// FlipHorizontal зеркалит тензор по горизонтали (аугментация при обучении).
func FlipHorizontal(t Tensor) Tensor {
	out := Tensor{Size: t.Size, Data: make([]float64, len(t.Data))}
	plane := t.Size * t.Size
	for c := 0; c < 3; c++ {
		for y := 0; y < t.Size; y++ {
			row := c*plane + y*t.Size
			for x := 0; x < t.Size; x++ {
				out.Data[row+x] = t.Data[row+t.Size-1-x]
			}
		}
	}
	return out
}
