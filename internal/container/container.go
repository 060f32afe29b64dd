package container

import (
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"camera-notifier/config"
	telegram "camera-notifier/internal/api"
	app "camera-notifier/internal/application"
	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/domain/port"
	"camera-notifier/internal/infrastructure/camera"
	"camera-notifier/internal/infrastructure/classifier"
	"camera-notifier/internal/infrastructure/files"
	"camera-notifier/internal/infrastructure/metrics"
	"camera-notifier/internal/infrastructure/storage"
)

type Container struct {
	Files      *files.Manager
	Classifier *classifier.Engine
	Camera     *camera.HTTPCamera
	State      *app.StateTracker
	Notifier   port.Notifier
	History    *storage.HistoryStore
	Metrics    *metrics.Metrics
	Watch      *app.WatchService
}

// ClassifierConfig переводит секцию classifier в настройки движка
func ClassifierConfig(c config.ClassifierConfig) classifier.Config {
	return classifier.Config{
		ModelPath:    c.ModelPath,
		TrainingPath: c.TrainingPath,
		Epochs:       c.Epochs,
		BatchSize:    c.BatchSize,
		LearningRate: c.LearningRate,
		SplitRatio:   c.SplitRatio,
		Seed:         c.Seed,
		InputSize:    c.InputSize,
		Dropout:      c.Dropout,
	}
}

// CropRect область кропа из секции camera
func CropRect(c config.CameraConfig) entity.CropRect {
	return entity.CropRect{X: c.CropStartX, Y: c.CropStartY, Width: c.Width, Height: c.Height}
}

// NewEngine собирает только классификатор (команды train и classify)
func NewEngine(cfg *config.Config, logger *slog.Logger) (*classifier.Engine, error) {
	ccfg := ClassifierConfig(cfg.Classifier)
	if err := ccfg.Validate(); err != nil {
		return nil, err
	}
	return classifier.NewEngine(ccfg, logger), nil
}

// New собирает цикл наблюдения со всеми зависимостями
func New(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	engine, err := NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	fileManager, err := files.NewManager(cfg.Watch.ScratchDir, logger)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Files:      fileManager,
		Classifier: engine,
		Camera: camera.NewHTTPCamera(camera.Config{
			URL:      cfg.Camera.URL,
			Username: cfg.Camera.Username,
			Password: cfg.Camera.Password,
			Timeout:  cfg.Camera.Timeout(),
		}, fileManager),
		State: app.NewStateTracker(storage.NewFileStateRepository(cfg.Watch.StatusFilePath)),
	}

	if cfg.Notify.Enabled {
		endpoint := cfg.Notify.APIEndpoint
		if endpoint == "" {
			endpoint = tgbotapi.APIEndpoint
		}
		// без сети: авторизация при первой отправке, сбой Telegram не мешает старту
		notifier, err := telegram.NewNotifierWithEndpoint(cfg.Notify.APIKey, endpoint, cfg.Notify.Channel, logger)
		if err != nil {
			return nil, err
		}
		c.Notifier = notifier
	}

	var recorders []port.TickRecorder
	if cfg.Watch.HistoryPath != "" {
		history, err := storage.OpenHistory(cfg.Watch.HistoryPath)
		if err != nil {
			return nil, err
		}
		c.History = history
		recorders = append(recorders, history)
	}

	c.Watch = app.NewWatchService(app.WatchConfig{
		Interval:           cfg.Watch.Interval(),
		Crop:               CropRect(cfg.Camera),
		OriginalArchiveDir: cfg.Watch.OriginalPhotoSavePath,
		CroppedArchiveDir:  cfg.Watch.CroppedPhotoSavePath,
		NotifyEnabled:      cfg.Notify.Enabled,
		NotifyOnFirst:      cfg.Watch.NotifyOnFirst,
	}, app.WatchDeps{
		Camera:     c.Camera,
		Files:      fileManager,
		Classifier: engine,
		State:      c.State,
		Notifier:   c.Notifier,
		Recorders:  recorders,
		Logger:     logger,
	})

	c.Metrics = metrics.New(c.Watch)
	c.Watch.AddRecorder(c.Metrics)

	return c, nil
}

// Close освобождает ресурсы (база истории)
func (c *Container) Close() error {
	var errs []error
	if c.History != nil {
		errs = append(errs, c.History.Close())
	}
	return errors.Join(errs...)
}
