package files

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/domain/port"
	"camera-notifier/internal/infrastructure/vision"
)

// archiveLayout формат имени архивной копии; точка перед микросекундами заменяется на "_"
const archiveLayout = "20060102_150405.000000"

// Manager создаёт временные файлы тика и гарантирует их удаление
type Manager struct {
	scratchDir string
	now        func() time.Time
	logger     *slog.Logger
}

// NewManager создаёт менеджер с каталогом для временных файлов.
// Пустой scratchDir означает os.TempDir().
func NewManager(scratchDir string, logger *slog.Logger) (*Manager, error) {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	if err := os.MkdirAll(scratchDir, 0o750); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		scratchDir: scratchDir,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// ScratchDir возвращает каталог временных файлов
func (m *Manager) ScratchDir() string {
	return m.scratchDir
}

// NewTempPath возвращает уникальный путь с расширением ext (например ".jpg")
func (m *Manager) NewTempPath(ext string) string {
	return filepath.Join(m.scratchDir, uuid.NewString()+ext)
}

// Crop вырезает область кадра в новый временный файл
func (m *Manager) Crop(sourcePath string, rect entity.CropRect) (string, error) {
	ext := filepath.Ext(sourcePath)
	if ext == "" {
		ext = ".jpg"
	}

	dest := m.NewTempPath(ext)
	if err := vision.CropFile(sourcePath, dest, rect); err != nil {
		m.remove(dest)
		return "", fmt.Errorf("crop %s: %w", sourcePath, err)
	}
	return dest, nil
}

// ArchiveAndCleanup копирует файл в archiveDir (если задан) и удаляет оригинал.
// Ошибки только логируются.
func (m *Manager) ArchiveAndCleanup(path, archiveDir string) {
	if path == "" {
		return
	}

	if archiveDir != "" {
		if err := m.archive(path, archiveDir); err != nil {
			m.logger.Error("Failed to archive image", "path", path, "archive_dir", archiveDir, "error", err)
		}
	}

	m.remove(path)
}

func (m *Manager) archive(path, archiveDir string) error {
	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(archiveDir, 0o750); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	dst, name, err := m.createArchiveFile(archiveDir)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(name)
		return fmt.Errorf("copy to %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	m.logger.Debug("Archived image", "path", path, "archive", name)
	return nil
}

// createArchiveFile создаёт файл с именем по времени; при совпадении добавляет суффикс
func (m *Manager) createArchiveFile(archiveDir string) (*os.File, string, error) {
	stamp := strings.Replace(m.now().Format(archiveLayout), ".", "_", 1)
	name := filepath.Join(archiveDir, stamp+".jpg")

	for i := 1; ; i++ {
		f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, os.ErrExist) || i > 100 {
			return nil, "", fmt.Errorf("create archive file: %w", err)
		}
		name = filepath.Join(archiveDir, fmt.Sprintf("%s_%d.jpg", stamp, i))
	}
}

func (m *Manager) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Error("Failed to delete temp file", "path", path, "error", err)
	}
}

// Проверка реализации интерфейса
var _ port.FileLifecycle = (*Manager)(nil)
