package port

import "context"

// Camera источник кадров
type Camera interface {
	// GetPhoto скачивает кадр во временный файл и возвращает путь к нему
	GetPhoto(ctx context.Context) (string, error)
}
