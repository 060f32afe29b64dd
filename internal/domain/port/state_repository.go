package port

import (
	"context"

	"camera-notifier/internal/domain/entity"
)

// StateRepository хранилище последней отправленной метки
type StateRepository interface {
	// Read возвращает сохранённую метку, ok=false если состояния ещё нет
	Read(ctx context.Context) (label entity.Label, ok bool, err error)

	// Write сохраняет новую метку
	Write(ctx context.Context, label entity.Label) error
}
