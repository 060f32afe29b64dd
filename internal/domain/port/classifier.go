package port

import (
	"context"

	"camera-notifier/internal/domain/entity"
)

// Classifier классификатор вырезанной области кадра
type Classifier interface {
	// Classify возвращает метку для изображения по пути imagePath
	Classify(ctx context.Context, imagePath string) (entity.Label, error)
}
