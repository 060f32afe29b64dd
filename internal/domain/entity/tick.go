package entity

import "time"

// TickResult итог одного прохода захват → классификация → уведомление
type TickResult struct {
	Started  time.Time
	Duration time.Duration
	Label    Label // новая метка, пусто при ошибке
	Previous Label // метка до тика
	Changed  bool  // метка отличается от сохранённой
	Notified bool  // уведомление отправлено
	Kind     FailureKind
	Err      error
}

// Success сообщает, что тик завершился без ошибки
func (r TickResult) Success() bool {
	return r.Err == nil
}

// RunStats счётчики за время жизни процесса
type RunStats struct {
	Successful uint64 `json:"successful"`
	Failed     uint64 `json:"failed"`
}

// SchedulerState состояние планировщика
type SchedulerState string

const (
	StateIdle     SchedulerState = "idle"     // ещё не запущен
	StateRunning  SchedulerState = "running"  // тики выполняются по расписанию
	StateStopping SchedulerState = "stopping" // новые тики не планируются
)
