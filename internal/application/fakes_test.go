package app

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/domain/port"
	"camera-notifier/internal/infrastructure/files"
	"camera-notifier/internal/infrastructure/vision"
)

type fakeTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	f       func()
	fired   bool
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// fire вызывает функцию таймера синхронно
func (t *fakeTimer) fire() {
	t.mu.Lock()
	if t.fired || t.stopped {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()
	t.f()
}

func (t *fakeTimer) active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.fired && !t.stopped
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{delay: d, f: f}
	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return t
}

func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if t.active() {
			out = append(out, t)
		}
	}
	return out
}

// fakeCamera пишет кадр в каталог менеджера, как настоящая камера
type fakeCamera struct {
	manager *files.Manager
	clock   *fakeClock
	work    time.Duration
	corrupt bool
	err     error
	calls   atomic.Int32

	// entered получает сигнал при входе, release держит съёмку до закрытия
	entered chan struct{}
	release chan struct{}
}

func (c *fakeCamera) GetPhoto(ctx context.Context) (string, error) {
	c.calls.Add(1)
	if c.release != nil {
		select {
		case c.entered <- struct{}{}:
		default:
		}
		<-c.release
	}
	if c.clock != nil {
		c.clock.Advance(c.work)
	}
	if c.err != nil {
		return "", c.err
	}

	path := c.manager.NewTempPath(".png")
	if c.corrupt {
		return path, os.WriteFile(path, []byte("not an image"), 0o600)
	}

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	return path, vision.Encode(path, img)
}

// fakeClassifier возвращает метки по очереди, последняя повторяется
type fakeClassifier struct {
	mu     sync.Mutex
	labels []entity.Label
	err    error
	paths  []string
}

func (c *fakeClassifier) Classify(ctx context.Context, imagePath string) (entity.Label, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paths = append(c.paths, imagePath)
	if c.err != nil {
		return entity.NoLabel, c.err
	}
	label := c.labels[0]
	if len(c.labels) > 1 {
		c.labels = c.labels[1:]
	}
	return label, nil
}

// memoryState хранилище состояния в памяти, считает записи
type memoryState struct {
	mu     sync.Mutex
	label  entity.Label
	set    bool
	writes int
}

func (r *memoryState) Read(ctx context.Context) (entity.Label, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.label, r.set, nil
}

func (r *memoryState) Write(ctx context.Context, label entity.Label) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.label, r.set = label, true
	r.writes++
	return nil
}

func (r *memoryState) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

type sentNotification struct {
	text      string
	imagePath string
	existed   bool
}

type spyNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *spyNotifier) Send(ctx context.Context, text, imagePath string) error {
	_, statErr := os.Stat(imagePath)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{text: text, imagePath: imagePath, existed: statErr == nil})
	return n.err
}

func (n *spyNotifier) notifications() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

type spyRecorder struct {
	mu      sync.Mutex
	results []entity.TickResult
}

func (r *spyRecorder) RecordTick(ctx context.Context, result entity.TickResult) error {
	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()
	return fmt.Errorf("recorder is read-only")
}

type harness struct {
	svc        *WatchService
	manager    *files.Manager
	camera     *fakeCamera
	classifier *fakeClassifier
	notifier   *spyNotifier
	recorder   *spyRecorder
	repo       *memoryState
	clock      *fakeClock
}

func newHarness(t *testing.T, cfg WatchConfig, labels ...entity.Label) *harness {
	t.Helper()

	manager, err := files.NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	if cfg.Interval == 0 {
		cfg.Interval = 300 * time.Second
	}
	if cfg.Crop.Empty() {
		cfg.Crop = entity.CropRect{X: 8, Y: 8, Width: 16, Height: 16}
	}
	if len(labels) == 0 {
		labels = []entity.Label{"closed"}
	}

	h := &harness{
		manager:    manager,
		clock:      newFakeClock(),
		classifier: &fakeClassifier{labels: labels},
		notifier:   &spyNotifier{},
		recorder:   &spyRecorder{},
		repo:       &memoryState{},
	}
	h.camera = &fakeCamera{manager: manager, clock: h.clock}

	h.svc = NewWatchService(cfg, WatchDeps{
		Camera:     h.camera,
		Files:      manager,
		Classifier: h.classifier,
		State:      NewStateTracker(h.repo),
		Notifier:   h.notifier,
		Recorders:  []port.TickRecorder{h.recorder},
		Clock:      h.clock,
	})
	return h
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}
