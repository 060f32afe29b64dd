package classifier

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/infrastructure/vision"
)

// backboneGrid число ячеек пулинга по каждой стороне
const backboneGrid = 8

// FeatureSize размер вектора признаков замороженной части модели:
// средние по сетке backboneGrid×backboneGrid плюс среднее и отклонение для каждого канала.
const FeatureSize = 3*backboneGrid*backboneGrid + 6

// Model замороженный экстрактор признаков и обучаемый линейный слой над LabelSet.
type Model struct {
	labels    entity.LabelSet
	inputSize int
	weights   *mat.Dense // classes × FeatureSize
	bias      []float64
	dropout   float64
	training  bool
	rng       *rand.Rand
}

// newModel создаёт модель со свежим последним слоем размером labels.Len().
func newModel(labels entity.LabelSet, inputSize int, dropout float64, rng *rand.Rand) *Model {
	classes := labels.Len()
	bound := 1 / math.Sqrt(FeatureSize)

	w := make([]float64, classes*FeatureSize)
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * bound
	}
	b := make([]float64, classes)
	for i := range b {
		b[i] = (rng.Float64()*2 - 1) * bound
	}

	return &Model{
		labels:    labels,
		inputSize: inputSize,
		weights:   mat.NewDense(classes, FeatureSize, w),
		bias:      b,
		dropout:   dropout,
		rng:       rng,
	}
}

// Labels возвращает набор меток модели
func (m *Model) Labels() entity.LabelSet {
	return m.labels
}

// InputSize возвращает сторону входного тензора
func (m *Model) InputSize() int {
	return m.inputSize
}

// Train включает режим обучения (dropout активен)
func (m *Model) Train() {
	m.training = true
}

// Eval включает режим инференса
func (m *Model) Eval() {
	m.training = false
}

// Training сообщает, включён ли режим обучения
func (m *Model) Training() bool {
	return m.training
}

// forward считает логиты. В режиме обучения к признакам применяется dropout,
// возвращается вектор, который реально ушёл в линейный слой.
func (m *Model) forward(features []float64) (logits, input []float64) {
	input = features
	if m.training && m.dropout > 0 {
		input = make([]float64, len(features))
		keep := 1 - m.dropout
		for i, v := range features {
			if m.rng.Float64() < keep {
				input[i] = v / keep
			}
		}
	}

	rows, _ := m.weights.Dims()
	out := mat.NewVecDense(rows, nil)
	out.MulVec(m.weights, mat.NewVecDense(len(input), input))

	logits = out.RawVector().Data
	floats.Add(logits, m.bias)
	return logits, input
}

// Probabilities возвращает распределение по классам для тензора.
func (m *Model) Probabilities(t vision.Tensor) ([]float64, error) {
	if m.training {
		return nil, fmt.Errorf("%w: model is in training mode", entity.ErrInference)
	}
	if t.Size != m.inputSize || len(t.Data) != 3*t.Size*t.Size {
		return nil, fmt.Errorf("%w: tensor size %d, model expects %d", entity.ErrInference, t.Size, m.inputSize)
	}

	logits, _ := m.forward(extractFeatures(t))
	return softmax(logits), nil
}

// Predict возвращает метку с максимальной вероятностью. При равенстве побеждает меньший индекс.
func (m *Model) Predict(t vision.Tensor) (entity.Label, []float64, error) {
	probs, err := m.Probabilities(t)
	if err != nil {
		return entity.NoLabel, nil, err
	}

	label, ok := m.labels.At(argmax(probs))
	if !ok {
		return entity.NoLabel, nil, fmt.Errorf("%w: model has no classes", entity.ErrInference)
	}
	return label, probs, nil
}

// extractFeatures замороженная часть модели: пулинг по сетке и статистики каналов.
func extractFeatures(t vision.Tensor) []float64 {
	size := t.Size
	plane := size * size
	out := make([]float64, 0, FeatureSize)

	for c := 0; c < 3; c++ {
		ch := t.Data[c*plane : (c+1)*plane]
		for gy := 0; gy < backboneGrid; gy++ {
			y0, y1 := gy*size/backboneGrid, (gy+1)*size/backboneGrid
			for gx := 0; gx < backboneGrid; gx++ {
				x0, x1 := gx*size/backboneGrid, (gx+1)*size/backboneGrid
				sum, n := 0.0, 0
				for y := y0; y < y1; y++ {
					for x := x0; x < x1; x++ {
						sum += ch[y*size+x]
						n++
					}
				}
				if n > 0 {
					sum /= float64(n)
				}
				out = append(out, sum)
			}
		}

		mean := floats.Sum(ch) / float64(plane)
		variance := 0.0
		for _, v := range ch {
			variance += (v - mean) * (v - mean)
		}
		out = append(out, mean, math.Sqrt(variance/float64(plane)))
	}

	return out
}

func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	peak := floats.Max(logits)
	for i, v := range logits {
		out[i] = math.Exp(v - peak)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

// argmax индекс первого максимального элемента, -1 для пустого среза
func argmax(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	return floats.MaxIdx(values)
}
