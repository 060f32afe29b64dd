package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/domain/port"
)

// FileStateRepository хранит метку одной строкой в файле статуса
type FileStateRepository struct {
	path string
}

// NewFileStateRepository создаёт хранилище по пути path
func NewFileStateRepository(path string) *FileStateRepository {
	return &FileStateRepository{path: path}
}

// Path возвращает путь к файлу статуса
func (r *FileStateRepository) Path() string {
	return r.path
}

// Read читает метку. Отсутствующий или пустой файл означает, что состояния нет.
func (r *FileStateRepository) Read(ctx context.Context) (entity.Label, bool, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entity.NoLabel, false, nil
		}
		return entity.NoLabel, false, fmt.Errorf("%w: read %s: %v", entity.ErrState, r.path, err)
	}

	label := entity.Label(strings.TrimSpace(string(data)))
	if label == entity.NoLabel {
		return entity.NoLabel, false, nil
	}
	return label, true, nil
}

// Write заменяет файл статуса через временный файл и rename,
// чтобы после сбоя в файле оставалась либо старая, либо новая метка.
func (r *FileStateRepository) Write(ctx context.Context, label entity.Label) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: create dir: %v", entity.ErrState, err)
	}

	tmp, err := os.CreateTemp(dir, ".status-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", entity.ErrState, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(string(label)); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write: %v", entity.ErrState, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync: %v", entity.ErrState, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", entity.ErrState, err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", entity.ErrState, r.path, err)
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.StateRepository = (*FileStateRepository)(nil)
