package app

import "time"

// Timer отложенный вызов, который можно отменить
type Timer interface {
	// Stop отменяет вызов; false если он уже выполнен или отменён
	Stop() bool
}

// Clock источник времени и таймеров планировщика
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock системные часы
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
