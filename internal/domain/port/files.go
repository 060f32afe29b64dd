package port

import "camera-notifier/internal/domain/entity"

// FileLifecycle управляет временными файлами одного тика
type FileLifecycle interface {
	// Crop вырезает область из изображения в новый временный файл
	Crop(sourcePath string, rect entity.CropRect) (string, error)

	// ArchiveAndCleanup копирует файл в архив (если задан) и удаляет оригинал
	ArchiveAndCleanup(path, archiveDir string)
}
