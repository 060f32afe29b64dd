package classifier

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"

	"camera-notifier/internal/domain/entity"
)

// checkpointFormat версия формата файла весов
const checkpointFormat = 1

// checkpoint содержимое файла весов. Набор меток хранится вместе с весами.
type checkpoint struct {
	Format    int       `msgpack:"format"`
	Labels    []string  `msgpack:"labels"`
	InputSize int       `msgpack:"input_size"`
	Features  int       `msgpack:"features"`
	Weights   []float64 `msgpack:"weights"`
	Bias      []float64 `msgpack:"bias"`
	Epoch     int       `msgpack:"epoch"`
	Accuracy  float64   `msgpack:"accuracy"`
	SavedAt   time.Time `msgpack:"saved_at"`
}

// CheckpointInfo метаданные сохранённой модели
type CheckpointInfo struct {
	Epoch    int
	Accuracy float64
	SavedAt  time.Time
}

// Store файл весов модели
type Store struct {
	path string
}

// NewStore создаёт хранилище весов по пути path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path возвращает путь к файлу весов
func (s *Store) Path() string {
	return s.path
}

// Exists сообщает, есть ли файл весов
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular()
}

// Save записывает веса атомарно: временный файл в том же каталоге и rename.
func (s *Store) Save(m *Model, info CheckpointInfo) error {
	rows, cols := m.weights.Dims()
	weights := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		weights = append(weights, m.weights.RawRowView(i)...)
	}

	data, err := msgpack.Marshal(&checkpoint{
		Format:    checkpointFormat,
		Labels:    m.labels.Strings(),
		InputSize: m.inputSize,
		Features:  cols,
		Weights:   weights,
		Bias:      append([]float64(nil), m.bias...),
		Epoch:     info.Epoch,
		Accuracy:  info.Accuracy,
		SavedAt:   info.SavedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".weights-*")
	if err != nil {
		return fmt.Errorf("create temp weights: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write weights: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync weights: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close weights: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace weights: %w", err)
	}
	return nil
}

// Load читает веса. Если current не пуст, набор меток из файла обязан с ним совпадать:
// другое число классов или другие имена дают ErrModelLoad.
func (s *Store) Load(current entity.LabelSet) (*Model, CheckpointInfo, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, CheckpointInfo{}, fmt.Errorf("%w: weights %s not found", entity.ErrModelLoad, s.path)
		}
		return nil, CheckpointInfo{}, fmt.Errorf("%w: read weights: %v", entity.ErrModelLoad, err)
	}

	var cp checkpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		return nil, CheckpointInfo{}, fmt.Errorf("%w: decode weights: %v", entity.ErrModelLoad, err)
	}

	stored := entity.LabelSet{}
	for _, name := range cp.Labels {
		stored = append(stored, entity.Label(name))
	}

	if err := validateCheckpoint(&cp, stored, current); err != nil {
		return nil, CheckpointInfo{}, err
	}

	m := &Model{
		labels:    stored,
		inputSize: cp.InputSize,
		weights:   mat.NewDense(len(cp.Bias), cp.Features, cp.Weights),
		bias:      cp.Bias,
	}
	m.Eval()

	return m, CheckpointInfo{Epoch: cp.Epoch, Accuracy: cp.Accuracy, SavedAt: cp.SavedAt}, nil
}

func validateCheckpoint(cp *checkpoint, stored, current entity.LabelSet) error {
	switch {
	case cp.Format != checkpointFormat:
		return fmt.Errorf("%w: unsupported weights format %d", entity.ErrModelLoad, cp.Format)
	case stored.Len() == 0:
		return fmt.Errorf("%w: weights have no classes", entity.ErrModelLoad)
	case cp.Features != FeatureSize:
		return fmt.Errorf("%w: weights expect %d features, backbone produces %d", entity.ErrModelLoad, cp.Features, FeatureSize)
	case cp.InputSize <= 0:
		return fmt.Errorf("%w: invalid input size %d", entity.ErrModelLoad, cp.InputSize)
	case len(cp.Bias) != stored.Len() || len(cp.Weights) != stored.Len()*cp.Features:
		return fmt.Errorf("%w: final layer is %d×%d, labels say %d classes",
			entity.ErrModelLoad, len(cp.Bias), cp.Features, stored.Len())
	}

	if current == nil {
		return nil
	}
	if current.Len() != stored.Len() {
		return fmt.Errorf("%w: final layer has %d classes, training data has %d (retrain required)",
			entity.ErrModelLoad, stored.Len(), current.Len())
	}
	if !current.Equal(stored) {
		return fmt.Errorf("%w: labels %v differ from training data %v (retrain required)",
			entity.ErrModelLoad, stored, current)
	}
	return nil
}
