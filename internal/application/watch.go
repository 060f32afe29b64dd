package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/domain/port"
)

// ErrAlreadyStarted повторный Start
var ErrAlreadyStarted = errors.New("watch already started")

// MsgStatusChanged текст уведомления о смене состояния
const MsgStatusChanged = "Status changed from %s to %s"

// WatchConfig параметры цикла наблюдения
type WatchConfig struct {
	Interval           time.Duration
	Crop               entity.CropRect
	OriginalArchiveDir string // пусто = кадры не архивируются
	CroppedArchiveDir  string
	NotifyEnabled      bool
	NotifyOnFirst      bool // уведомлять о первой метке после холодного старта
}

// WatchDeps внешние зависимости цикла
type WatchDeps struct {
	Camera     port.Camera
	Files      port.FileLifecycle
	Classifier port.Classifier
	State      *StateTracker
	Notifier   port.Notifier // nil = без уведомлений
	Recorders  []port.TickRecorder
	Clock      Clock
	Logger     *slog.Logger
}

// WatchService планировщик: захват → кроп → классификация → сравнение → уведомление.
// Тики идут строго по одному, следующий планируется после завершения текущего.
type WatchService struct {
	cfg  WatchConfig
	deps WatchDeps

	mu    sync.Mutex
	state entity.SchedulerState
	timer Timer
	ctx   context.Context
	wg    sync.WaitGroup

	successful atomic.Uint64
	failed     atomic.Uint64
	processed  atomic.Bool
}

// NewWatchService создаёт сервис в состоянии idle
func NewWatchService(cfg WatchConfig, deps WatchDeps) *WatchService {
	if deps.Clock == nil {
		deps.Clock = RealClock()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &WatchService{cfg: cfg, deps: deps, state: entity.StateIdle}
}

// AddRecorder добавляет получателя итогов тиков. Вызывать до Start.
func (s *WatchService) AddRecorder(r port.TickRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deps.Recorders = append(s.deps.Recorders, r)
}

// NextDelay задержка до следующего тика с учётом времени работы: max(0, start+interval-now)
func NextDelay(start, now time.Time, interval time.Duration) time.Duration {
	delay := start.Add(interval).Sub(now)
	if delay < 0 {
		return 0
	}
	return delay
}

// Start переводит idle → running и сразу запускает первый тик в фоне.
// Отмена ctx не прерывает тики, для остановки есть Stop.
func (s *WatchService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != entity.StateIdle {
		return ErrAlreadyStarted
	}
	s.state = entity.StateRunning
	s.ctx = context.WithoutCancel(ctx)

	s.deps.Logger.Info("Starting watch", "interval", s.cfg.Interval)

	s.wg.Add(1)
	go s.run()
	return nil
}

// Stop запрещает новые тики и отменяет запланированный. Текущий тик доработает до конца.
func (s *WatchService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != entity.StateRunning {
		return
	}
	s.state = entity.StateStopping

	if s.timer != nil && s.timer.Stop() {
		s.wg.Done()
	}
	s.timer = nil
	s.deps.Logger.Info("Watch stopping")
}

// Wait ждёт завершения текущего тика
func (s *WatchService) Wait() {
	s.wg.Wait()
}

// State текущее состояние планировщика
func (s *WatchService) State() entity.SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats счётчики тиков, не блокирует
func (s *WatchService) Stats() entity.RunStats {
	return entity.RunStats{
		Successful: s.successful.Load(),
		Failed:     s.failed.Load(),
	}
}

func (s *WatchService) run() {
	defer s.wg.Done()

	s.mu.Lock()
	running := s.state == entity.StateRunning
	ctx := s.ctx
	s.mu.Unlock()
	if !running {
		return
	}

	result := s.Tick(ctx)
	s.schedule(result.Started)
}

func (s *WatchService) schedule(start time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != entity.StateRunning {
		return
	}

	delay := NextDelay(start, s.deps.Clock.Now(), s.cfg.Interval)
	s.wg.Add(1)
	s.timer = s.deps.Clock.AfterFunc(delay, s.run)
	s.deps.Logger.Debug("Next tick scheduled", "delay", delay)
}

// artifacts файлы, созданные за тик
type artifacts struct {
	photo   string
	cropped string
}

// Tick выполняет один проход. Ошибка не выходит за пределы тика: она попадает
// в результат и счётчик неудач. Временные файлы удаляются при любом исходе.
func (s *WatchService) Tick(ctx context.Context) entity.TickResult {
	start := s.deps.Clock.Now()

	var files artifacts
	result := s.process(ctx, &files)
	s.cleanup(files)

	result.Started = start
	result.Duration = s.deps.Clock.Now().Sub(start)
	result.Kind = entity.KindOf(result.Err)

	if result.Success() {
		s.successful.Add(1)
		if s.processed.CompareAndSwap(false, true) {
			s.deps.Logger.Info("Successfully processed the first image", "label", result.Label)
		}
	} else {
		s.failed.Add(1)
		s.deps.Logger.Error("Tick failed", "kind", result.Kind, "error", result.Err)
	}

	for _, r := range s.deps.Recorders {
		if err := r.RecordTick(ctx, result); err != nil {
			s.deps.Logger.Warn("Failed to record tick", "error", err)
		}
	}
	return result
}

func (s *WatchService) process(ctx context.Context, files *artifacts) entity.TickResult {
	photo, err := s.deps.Camera.GetPhoto(ctx)
	if err != nil {
		return entity.TickResult{Err: fmt.Errorf("get photo: %w", err)}
	}
	files.photo = photo

	cropped, err := s.deps.Files.Crop(photo, s.cfg.Crop)
	if err != nil {
		return entity.TickResult{Err: fmt.Errorf("crop: %w", err)}
	}
	files.cropped = cropped

	label, err := s.deps.Classifier.Classify(ctx, cropped)
	if err != nil {
		return entity.TickResult{Err: fmt.Errorf("classify: %w", err)}
	}

	tr, err := s.deps.State.UpdateIfChanged(ctx, label)
	if err != nil {
		return entity.TickResult{Label: label, Err: fmt.Errorf("update state: %w", err)}
	}

	result := entity.TickResult{Label: label, Previous: tr.Previous, Changed: tr.Changed}
	s.deps.Logger.Info("Frame classified", "label", label, "previous", tr.Previous.String(), "changed", tr.Changed)

	if tr.Changed && s.shouldNotify(tr) {
		text := fmt.Sprintf(MsgStatusChanged, tr.Previous, tr.Current)
		if err := s.deps.Notifier.Send(ctx, text, photo); err != nil {
			s.deps.Logger.Warn("Failed to send notification", "error", err)
		} else {
			result.Notified = true
			s.deps.Logger.Info("Notification sent", "text", text)
		}
	}
	return result
}

func (s *WatchService) shouldNotify(tr Transition) bool {
	if !s.cfg.NotifyEnabled || s.deps.Notifier == nil {
		return false
	}
	return tr.HadPrevious || s.cfg.NotifyOnFirst
}

func (s *WatchService) cleanup(files artifacts) {
	if files.photo != "" {
		s.deps.Files.ArchiveAndCleanup(files.photo, s.cfg.OriginalArchiveDir)
	}
	if files.cropped != "" {
		s.deps.Files.ArchiveAndCleanup(files.cropped, s.cfg.CroppedArchiveDir)
	}
}
