package port

import "context"

// Notifier канал уведомлений о смене состояния
type Notifier interface {
	// Send отправляет текст вместе с изображением
	Send(ctx context.Context, text, imagePath string) error
}
