package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/domain/port"
	"camera-notifier/internal/infrastructure/vision"
)

// Engine управляет жизненным циклом модели: загрузка или обучение, инференс.
type Engine struct {
	cfg     Config
	store   *Store
	trainer *Trainer
	logger  *slog.Logger

	mu         sync.Mutex
	model      *Model
	lastReport *TrainReport
}

// NewEngine создаёт движок. Модель не загружается до первого EnsureReady или Classify.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	store := NewStore(cfg.ModelPath)
	return &Engine{
		cfg:     cfg,
		store:   store,
		trainer: NewTrainer(cfg, store, logger),
		logger:  logger,
	}
}

// OnEpoch подписывает колбэк на эпохи обучения
func (e *Engine) OnEpoch(fn func(EpochReport)) {
	e.trainer.OnEpoch(fn)
}

// LastTrainReport отчёт последнего обучения, nil если модель загружена из файла
func (e *Engine) LastTrainReport() *TrainReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastReport
}

// EnsureReady загружает модель из файла весов или обучает новую.
// Повторный вызов без forceRebuild ничего не делает.
func (e *Engine) EnsureReady(ctx context.Context, forceRebuild bool) (*Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model != nil && !forceRebuild {
		return e.model, nil
	}

	if !forceRebuild && e.store.Exists() {
		model, err := e.load()
		if err != nil {
			return nil, err
		}
		e.model = model
		e.lastReport = nil
		return model, nil
	}

	e.logger.Info("Creating new model", "model_path", e.store.Path(), "training_path", e.cfg.TrainingPath)
	model, report, err := e.trainer.Train(ctx)
	if err != nil {
		return nil, err
	}
	model.Eval()

	e.model = model
	e.lastReport = report
	e.logger.Info("Model is ready",
		"classes", model.Labels().Strings(),
		"best_epoch", report.BestEpoch,
		"best_accuracy", report.BestAccuracy)
	return model, nil
}

// load читает веса; каталог датасета используется только для проверки дрейфа меток
func (e *Engine) load() (*Model, error) {
	current, err := DeriveLabelSet(e.cfg.TrainingPath)
	if err != nil {
		e.logger.Warn("Training data unavailable, using labels stored with weights", "error", err)
		current = nil
	}

	model, info, err := e.store.Load(current)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Loaded existing model",
		"model_path", e.store.Path(),
		"classes", model.Labels().Strings(),
		"epoch", info.Epoch,
		"accuracy", info.Accuracy)
	return model, nil
}

// Classify классифицирует изображение; при первом вызове готовит модель.
func (e *Engine) Classify(ctx context.Context, imagePath string) (entity.Label, error) {
	model, err := e.EnsureReady(ctx, false)
	if err != nil {
		return entity.NoLabel, fmt.Errorf("prepare model: %w", err)
	}

	tensor, err := vision.PreprocessFile(imagePath, model.InputSize())
	if err != nil {
		return entity.NoLabel, err
	}

	label, _, err := model.Predict(tensor)
	if err != nil {
		return entity.NoLabel, err
	}
	return label, nil
}

// Проверка реализации интерфейса
var _ port.Classifier = (*Engine)(nil)
