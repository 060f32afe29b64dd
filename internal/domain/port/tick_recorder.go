package port

import (
	"context"

	"camera-notifier/internal/domain/entity"
)

// TickRecorder получает итог каждого тика (метрики, история)
type TickRecorder interface {
	RecordTick(ctx context.Context, result entity.TickResult) error
}
