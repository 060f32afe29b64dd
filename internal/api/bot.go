package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/domain/port"
)

// Notifier отправляет уведомления в чат или канал Telegram.
// Авторизация (getMe) откладывается до первой отправки и повторяется, пока не пройдёт.
type Notifier struct {
	token    string
	endpoint string
	chatID   int64
	channel  string
	logger   *slog.Logger

	mu  sync.Mutex
	api *tgbotapi.BotAPI
}

// NewNotifier не обращается к сети. channel: числовой chat id или имя канала (@name).
func NewNotifier(token, channel string, logger *slog.Logger) (*Notifier, error) {
	return NewNotifierWithEndpoint(token, tgbotapi.APIEndpoint, channel, logger)
}

// NewNotifierWithEndpoint то же, что NewNotifier, но с другим адресом Bot API
func NewNotifierWithEndpoint(token, endpoint, channel string, logger *slog.Logger) (*Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(channel) == "" {
		return nil, fmt.Errorf("%w: channel is empty", entity.ErrNotify)
	}

	n := &Notifier{token: token, endpoint: endpoint, logger: logger}
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		n.chatID = id
	} else {
		n.channel = "@" + strings.TrimPrefix(channel, "@")
	}
	return n, nil
}

// Send отправляет фото с подписью text. Без imagePath уходит обычное сообщение.
func (n *Notifier) Send(ctx context.Context, text, imagePath string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrNotify, err)
	}

	api, err := n.authorize()
	if err != nil {
		return err
	}

	var msg tgbotapi.Chattable
	if imagePath == "" {
		msg = n.textMessage(text)
	} else {
		msg = n.photoMessage(text, imagePath)
	}

	if _, err := api.Send(msg); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrNotify, err)
	}

	n.logger.Debug("Notification sent", "text", text, "image", imagePath)
	return nil
}

func (n *Notifier) authorize() (*tgbotapi.BotAPI, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.api != nil {
		return n.api, nil
	}

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(n.token, n.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: authorize: %v", entity.ErrNotify, err)
	}

	n.logger.Info("Authorized on account", "username", api.Self.UserName)
	n.api = api
	return api, nil
}

func (n *Notifier) textMessage(text string) tgbotapi.MessageConfig {
	if n.channel != "" {
		return tgbotapi.NewMessageToChannel(n.channel, text)
	}
	return tgbotapi.NewMessage(n.chatID, text)
}

func (n *Notifier) photoMessage(text, imagePath string) tgbotapi.PhotoConfig {
	var photo tgbotapi.PhotoConfig
	if n.channel != "" {
		photo = tgbotapi.NewPhotoToChannel(n.channel, tgbotapi.FilePath(imagePath))
	} else {
		photo = tgbotapi.NewPhoto(n.chatID, tgbotapi.FilePath(imagePath))
	}
	photo.Caption = text
	return photo
}

// Проверка реализации интерфейса
var _ port.Notifier = (*Notifier)(nil)
