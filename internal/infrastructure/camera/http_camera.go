package camera

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/domain/port"
)

// TempPaths выдаёт уникальные пути для скачанных кадров
type TempPaths interface {
	NewTempPath(ext string) string
}

// Config параметры камеры
type Config struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// HTTPCamera скачивает снимок GET-запросом с basic auth
type HTTPCamera struct {
	cfg    Config
	client *http.Client
	paths  TempPaths
}

// NewHTTPCamera создаёт камеру
func NewHTTPCamera(cfg Config, paths TempPaths) *HTTPCamera {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPCamera{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		paths:  paths,
	}
}

// GetPhoto скачивает кадр во временный файл. Повторов нет: ошибка проваливает тик.
func (c *HTTPCamera) GetPhoto(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", entity.ErrCapture, err)
	}
	if c.cfg.Username != "" || c.cfg.Password != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrCapture, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: camera returned %s", entity.ErrCapture, resp.Status)
	}

	path := c.paths.NewTempPath(".jpg")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", entity.ErrCapture, path, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: download: %v", entity.ErrCapture, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: close %s: %v", entity.ErrCapture, path, err)
	}

	return path, nil
}

// Проверка реализации интерфейса
var _ port.Camera = (*HTTPCamera)(nil)
