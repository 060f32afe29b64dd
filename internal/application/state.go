package app

import (
	"context"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/domain/port"
)

// Transition результат сравнения новой метки с сохранённой
type Transition struct {
	Previous    entity.Label
	HadPrevious bool // false на первом наблюдении после холодного старта
	Current     entity.Label
	Changed     bool
}

// StateTracker хранит последнюю метку и решает, был ли переход
type StateTracker struct {
	repo port.StateRepository
}

func NewStateTracker(repo port.StateRepository) *StateTracker {
	return &StateTracker{repo: repo}
}

// ReadCurrent возвращает сохранённую метку, ok=false если её нет
func (s *StateTracker) ReadCurrent(ctx context.Context) (entity.Label, bool, error) {
	return s.repo.Read(ctx)
}

// UpdateIfChanged записывает label, только если она отличается от сохранённой.
// Переход "нет состояния → метка" тоже считается изменением.
func (s *StateTracker) UpdateIfChanged(ctx context.Context, label entity.Label) (Transition, error) {
	previous, ok, err := s.repo.Read(ctx)
	if err != nil {
		return Transition{}, err
	}

	tr := Transition{Previous: previous, HadPrevious: ok, Current: label}
	if ok && previous == label {
		return tr, nil
	}

	if err := s.repo.Write(ctx, label); err != nil {
		return Transition{}, err
	}
	tr.Changed = true
	return tr, nil
}
