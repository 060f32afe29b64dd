package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix префикс переменных окружения: CAMERA_NOTIFIER_WATCH_INTERVAL_SECONDS и т.п.
const EnvPrefix = "CAMERA_NOTIFIER"

// Config настройки приложения
type Config struct {
	Camera     CameraConfig     `mapstructure:"camera"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// CameraConfig источник кадров и область кропа
type CameraConfig struct {
	URL            string `mapstructure:"url"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	CropStartX     int    `mapstructure:"crop_start_x"`
	CropStartY     int    `mapstructure:"crop_start_y"`
	Width          int    `mapstructure:"width"`
	Height         int    `mapstructure:"height"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ClassifierConfig модель и обучение
type ClassifierConfig struct {
	ModelPath    string  `mapstructure:"model_path"`
	TrainingPath string  `mapstructure:"training_path"`
	Epochs       int     `mapstructure:"epochs"`
	BatchSize    int     `mapstructure:"batch_size"`
	LearningRate float64 `mapstructure:"learning_rate"`
	SplitRatio   float64 `mapstructure:"split_ratio"`
	Seed         int64   `mapstructure:"seed"`
	InputSize    int     `mapstructure:"input_size"`
	Dropout      float64 `mapstructure:"dropout"`
}

// WatchConfig цикл наблюдения
type WatchConfig struct {
	StatusFilePath        string `mapstructure:"status_file_path"`
	IntervalSeconds       int    `mapstructure:"interval_seconds"`
	OriginalPhotoSavePath string `mapstructure:"original_photo_save_path"`
	CroppedPhotoSavePath  string `mapstructure:"cropped_photo_save_path"`
	ScratchDir            string `mapstructure:"scratch_dir"`
	NotifyOnFirst         bool   `mapstructure:"notify_on_first"`
	StatsIntervalSeconds  int    `mapstructure:"stats_interval_seconds"`
	HistoryPath           string `mapstructure:"history_path"`
}

// NotifyConfig Telegram
type NotifyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Channel string `mapstructure:"channel"`
	// APIEndpoint шаблон адреса Bot API, пусто: api.telegram.org
	APIEndpoint string `mapstructure:"api_endpoint"`
}

// LoggingConfig логирование
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// MetricsConfig HTTP-сервер метрик, пустой addr отключает его
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Interval период между тиками
func (w WatchConfig) Interval() time.Duration {
	return time.Duration(w.IntervalSeconds) * time.Second
}

// StatsInterval период вывода статистики в лог
func (w WatchConfig) StatsInterval() time.Duration {
	return time.Duration(w.StatsIntervalSeconds) * time.Second
}

// Timeout таймаут запроса к камере
func (c CameraConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SetDefaults значения по умолчанию. Каждый ключ должен быть известен viper,
// иначе переменная окружения для него не подхватится при Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("camera.url", "")
	v.SetDefault("camera.username", "")
	v.SetDefault("camera.password", "")
	v.SetDefault("camera.crop_start_x", 0)
	v.SetDefault("camera.crop_start_y", 0)
	v.SetDefault("camera.width", 0)
	v.SetDefault("camera.height", 0)
	v.SetDefault("camera.timeout_seconds", 30)

	v.SetDefault("classifier.model_path", "model/weights.bin")
	v.SetDefault("classifier.training_path", "training")
	v.SetDefault("classifier.epochs", 10)
	v.SetDefault("classifier.batch_size", 32)
	v.SetDefault("classifier.learning_rate", 0.001)
	v.SetDefault("classifier.split_ratio", 0.8)
	v.SetDefault("classifier.seed", 42)
	v.SetDefault("classifier.input_size", 224)
	v.SetDefault("classifier.dropout", 0.2)

	v.SetDefault("watch.status_file_path", "status.txt")
	v.SetDefault("watch.interval_seconds", 300)
	v.SetDefault("watch.original_photo_save_path", "")
	v.SetDefault("watch.cropped_photo_save_path", "")
	v.SetDefault("watch.scratch_dir", "")
	v.SetDefault("watch.notify_on_first", false)
	v.SetDefault("watch.stats_interval_seconds", 300)
	v.SetDefault("watch.history_path", "")

	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.api_key", "")
	v.SetDefault("notify.channel", "")
	v.SetDefault("notify.api_endpoint", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.dir", "")

	v.SetDefault("metrics.addr", "")
}

// Load читает .env, затем config.yaml (или явный path), затем переменные окружения.
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith то же, что Load, но в переданный экземпляр viper (с уже привязанными флагами)
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/camera-notifier")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Токен бота из окружения, как раньше
	if cfg.Notify.APIKey == "" {
		cfg.Notify.APIKey = os.Getenv("TELEGRAM_TOKEN")
	}

	return cfg, nil
}

// Validate проверяет настройки, нужные циклу наблюдения
func (c *Config) Validate() error {
	var errs []error

	if c.Camera.URL == "" {
		errs = append(errs, errors.New("camera.url is required"))
	}
	if c.Camera.CropStartX < 0 || c.Camera.CropStartY < 0 {
		errs = append(errs, fmt.Errorf("camera crop start must be non-negative, got (%d, %d)",
			c.Camera.CropStartX, c.Camera.CropStartY))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera.width and camera.height must be positive, got %dx%d",
			c.Camera.Width, c.Camera.Height))
	}
	if c.Classifier.ModelPath == "" || c.Classifier.TrainingPath == "" {
		errs = append(errs, errors.New("classifier.model_path and classifier.training_path are required"))
	}
	if c.Watch.StatusFilePath == "" {
		errs = append(errs, errors.New("watch.status_file_path is required"))
	}
	if c.Watch.IntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("watch.interval_seconds must be positive, got %d", c.Watch.IntervalSeconds))
	}
	if c.Notify.Enabled && (c.Notify.APIKey == "" || c.Notify.Channel == "") {
		errs = append(errs, errors.New("notify.api_key and notify.channel are required when notify is enabled"))
	}

	return errors.Join(errs...)
}
