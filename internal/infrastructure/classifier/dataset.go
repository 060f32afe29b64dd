package classifier

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"camera-notifier/internal/domain/entity"
)

// DeriveLabelSet строит набор меток из имён подкаталогов root в лексическом порядке.
func DeriveLabelSet(root string) (entity.LabelSet, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: read training root: %v", entity.ErrTrainingData, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		info, err := os.Stat(filepath.Join(root, e.Name()))
		if err != nil || !info.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}

	return entity.NewLabelSet(names), nil
}

// BuildSamples собирает все обычные файлы из каталогов классов.
// Скрытые файлы (".DS_Store" и т.п.) пропускаются.
func BuildSamples(root string, labels entity.LabelSet) ([]entity.TrainingSample, error) {
	if labels.Len() == 0 {
		return nil, fmt.Errorf("%w: no class directories in %s", entity.ErrTrainingData, root)
	}

	var samples []entity.TrainingSample
	for classID, label := range labels {
		dir := filepath.Join(root, string(label))
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: read class %q: %v", entity.ErrTrainingData, label, err)
		}

		count := 0
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			path := filepath.Join(dir, e.Name())
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			samples = append(samples, entity.TrainingSample{Path: path, ClassID: classID})
			count++
		}

		if count == 0 {
			return nil, fmt.Errorf("%w: class %q has no samples", entity.ErrTrainingData, label)
		}
	}

	return samples, nil
}

// Split разбивает выборку на обучающую и валидационную части.
// Разбиение воспроизводимо для одинаковых seed и порядка samples.
func Split(samples []entity.TrainingSample, ratio float64, seed int64) (train, valid []entity.TrainingSample) {
	n := len(samples)
	if n == 0 {
		return nil, nil
	}

	trainSize := int(ratio * float64(n))
	if trainSize == 0 {
		trainSize = 1
	}
	if trainSize > n {
		trainSize = n
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	train = make([]entity.TrainingSample, 0, trainSize)
	valid = make([]entity.TrainingSample, 0, n-trainSize)
	for i, idx := range perm {
		if i < trainSize {
			train = append(train, samples[idx])
		} else {
			valid = append(valid, samples[idx])
		}
	}
	return train, valid
}
