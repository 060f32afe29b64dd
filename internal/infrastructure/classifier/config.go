package classifier

import (
	"errors"
	"fmt"
)

// Config параметры модели и обучения
type Config struct {
	ModelPath    string  // файл с весами и набором меток
	TrainingPath string  // корень датасета: по каталогу на класс
	Epochs       int     // число эпох обучения
	BatchSize    int     // размер мини-батча
	LearningRate float64 // шаг Adam
	SplitRatio   float64 // доля обучающей выборки, остальное валидация
	Seed         int64   // зерно для разбиения, аугментации и инициализации
	InputSize    int     // сторона квадратного входа модели
	Dropout      float64 // вероятность dropout в режиме обучения
}

// DefaultConfig значения по умолчанию
func DefaultConfig() Config {
	return Config{
		Epochs:       10,
		BatchSize:    32,
		LearningRate: 0.001,
		SplitRatio:   0.8,
		Seed:         42,
		InputSize:    224,
		Dropout:      0.2,
	}
}

// Validate проверяет параметры
func (c Config) Validate() error {
	switch {
	case c.ModelPath == "":
		return errors.New("classifier: model_path is required")
	case c.TrainingPath == "":
		return errors.New("classifier: training_path is required")
	case c.Epochs <= 0:
		return fmt.Errorf("classifier: epochs must be positive, got %d", c.Epochs)
	case c.BatchSize <= 0:
		return fmt.Errorf("classifier: batch_size must be positive, got %d", c.BatchSize)
	case c.LearningRate <= 0:
		return fmt.Errorf("classifier: learning_rate must be positive, got %g", c.LearningRate)
	case c.SplitRatio <= 0 || c.SplitRatio > 1:
		return fmt.Errorf("classifier: split_ratio must be in (0, 1], got %g", c.SplitRatio)
	case c.InputSize <= 0:
		return fmt.Errorf("classifier: input_size must be positive, got %d", c.InputSize)
	case c.Dropout < 0 || c.Dropout >= 1:
		return fmt.Errorf("classifier: dropout must be in [0, 1), got %g", c.Dropout)
	}
	return nil
}
