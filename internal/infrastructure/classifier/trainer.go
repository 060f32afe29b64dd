package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/infrastructure/vision"
)

// EpochReport итог одной эпохи
type EpochReport struct {
	Epoch    int
	Epochs   int
	Loss     float64
	Accuracy float64
	Saved    bool // чекпоинт обновлён на этой эпохе
}

// TrainReport итог обучения
type TrainReport struct {
	Labels       entity.LabelSet
	TrainSize    int
	ValidSize    int
	BestEpoch    int
	BestAccuracy float64
	Epochs       []EpochReport
}

// example предобработанный пример: признаки исходного и отзеркаленного изображения
type example struct {
	features []float64
	flipped  []float64
	classID  int
}

// Trainer обучает последний слой модели и сохраняет лучший чекпоинт
type Trainer struct {
	cfg     Config
	store   *Store
	logger  *slog.Logger
	onEpoch func(EpochReport)
	now     func() time.Time
}

// NewTrainer создаёт тренера
func NewTrainer(cfg Config, store *Store, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{cfg: cfg, store: store, logger: logger, now: time.Now}
}

// OnEpoch задаёт колбэк после каждой эпохи
func (t *Trainer) OnEpoch(fn func(EpochReport)) {
	t.onEpoch = fn
}

// Train полный прогон обучения. Возвращает модель, загруженную из лучшего чекпоинта,
// в режиме инференса.
func (t *Trainer) Train(ctx context.Context) (*Model, *TrainReport, error) {
	labels, err := DeriveLabelSet(t.cfg.TrainingPath)
	if err != nil {
		return nil, nil, err
	}
	samples, err := BuildSamples(t.cfg.TrainingPath, labels)
	if err != nil {
		return nil, nil, err
	}

	trainSet, validSet := Split(samples, t.cfg.SplitRatio, t.cfg.Seed)
	t.logger.Info("Training model",
		"classes", labels.Strings(),
		"train", len(trainSet),
		"valid", len(validSet),
		"epochs", t.cfg.Epochs)

	trainExamples, err := t.prepare(trainSet, true)
	if err != nil {
		return nil, nil, err
	}
	validExamples, err := t.prepare(validSet, false)
	if err != nil {
		return nil, nil, err
	}

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	model := newModel(labels, t.cfg.InputSize, t.cfg.Dropout, rng)
	opt := newAdam(model, t.cfg.LearningRate)

	report := &TrainReport{
		Labels:       labels,
		TrainSize:    len(trainSet),
		ValidSize:    len(validSet),
		BestAccuracy: math.Inf(-1),
	}

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("training interrupted: %w", err)
		}

		model.Train()
		loss := t.trainEpoch(model, opt, trainExamples, rng)

		model.Eval()
		acc := evaluate(model, validExamples)

		er := EpochReport{Epoch: epoch, Epochs: t.cfg.Epochs, Loss: loss, Accuracy: acc}
		if acc > report.BestAccuracy {
			info := CheckpointInfo{Epoch: epoch, Accuracy: acc, SavedAt: t.now()}
			if err := t.store.Save(model, info); err != nil {
				return nil, nil, fmt.Errorf("save checkpoint: %w", err)
			}
			report.BestAccuracy = acc
			report.BestEpoch = epoch
			er.Saved = true
		}
		report.Epochs = append(report.Epochs, er)

		t.logger.Info("Epoch finished",
			"epoch", epoch,
			"epochs", t.cfg.Epochs,
			"loss", fmt.Sprintf("%.4f", loss),
			"validation_accuracy", fmt.Sprintf("%.4f", acc),
			"saved", er.Saved)
		if t.onEpoch != nil {
			t.onEpoch(er)
		}
	}

	best, _, err := t.store.Load(labels)
	if err != nil {
		return nil, nil, fmt.Errorf("reload best checkpoint: %w", err)
	}
	return best, report, nil
}

// prepare читает изображения и считает признаки один раз на всё обучение
func (t *Trainer) prepare(samples []entity.TrainingSample, withFlip bool) ([]example, error) {
	out := make([]example, 0, len(samples))
	for _, s := range samples {
		img, err := vision.Decode(s.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrTrainingData, err)
		}
		tensor, err := vision.Preprocess(img, t.cfg.InputSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", entity.ErrTrainingData, s.Path, err)
		}

		ex := example{features: extractFeatures(tensor), classID: s.ClassID}
		if withFlip {
			ex.flipped = extractFeatures(vision.FlipHorizontal(tensor))
		}
		out = append(out, ex)
	}
	return out, nil
}

// trainEpoch один проход по обучающей выборке мини-батчами, возвращает средний loss
func (t *Trainer) trainEpoch(m *Model, opt *adam, examples []example, rng *rand.Rand) float64 {
	if len(examples) == 0 {
		return 0
	}

	order := rng.Perm(len(examples))
	classes := m.labels.Len()
	gradW := make([]float64, classes*FeatureSize)
	gradB := make([]float64, classes)

	total := 0.0
	for start := 0; start < len(order); start += t.cfg.BatchSize {
		end := start + t.cfg.BatchSize
		if end > len(order) {
			end = len(order)
		}

		for i := range gradW {
			gradW[i] = 0
		}
		for i := range gradB {
			gradB[i] = 0
		}

		for _, idx := range order[start:end] {
			ex := examples[idx]
			features := ex.features
			if ex.flipped != nil && rng.Intn(2) == 1 {
				features = ex.flipped
			}

			logits, input := m.forward(features)
			probs := softmax(logits)
			total += -math.Log(math.Max(probs[ex.classID], 1e-12))

			// dL/dlogits = p - onehot
			probs[ex.classID]--
			for k, g := range probs {
				floats.AddScaled(gradW[k*FeatureSize:(k+1)*FeatureSize], g, input)
				gradB[k] += g
			}
		}

		scale := 1 / float64(end-start)
		floats.Scale(scale, gradW)
		floats.Scale(scale, gradB)
		opt.step(gradW, gradB)
	}

	return total / float64(len(examples))
}

// evaluate точность на валидационной выборке без обновления весов
func evaluate(m *Model, examples []example) float64 {
	if len(examples) == 0 {
		return 0
	}
	correct := 0
	for _, ex := range examples {
		logits, _ := m.forward(ex.features)
		if argmax(logits) == ex.classID {
			correct++
		}
	}
	return float64(correct) / float64(len(examples))
}

// adam оптимизатор для весов и смещений последнего слоя
type adam struct {
	model        *Model
	lr           float64
	beta1, beta2 float64
	eps          float64
	steps        int
	mW, vW       []float64
	mB, vB       []float64
}

func newAdam(m *Model, lr float64) *adam {
	classes := m.labels.Len()
	return &adam{
		model: m,
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		mW:    make([]float64, classes*FeatureSize),
		vW:    make([]float64, classes*FeatureSize),
		mB:    make([]float64, classes),
		vB:    make([]float64, classes),
	}
}

func (a *adam) step(gradW, gradB []float64) {
	a.steps++
	c1 := 1 - math.Pow(a.beta1, float64(a.steps))
	c2 := 1 - math.Pow(a.beta2, float64(a.steps))

	for k := 0; k < a.model.labels.Len(); k++ {
		row := a.model.weights.RawRowView(k)
		off := k * FeatureSize
		a.update(row, gradW[off:off+FeatureSize], a.mW[off:off+FeatureSize], a.vW[off:off+FeatureSize], c1, c2)
	}
	a.update(a.model.bias, gradB, a.mB, a.vB, c1, c2)
}

func (a *adam) update(params, grads, m, v []float64, c1, c2 float64) {
	for i, g := range grads {
		m[i] = a.beta1*m[i] + (1-a.beta1)*g
		v[i] = a.beta2*v[i] + (1-a.beta2)*g*g
		params[i] -= a.lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.eps)
	}
}
