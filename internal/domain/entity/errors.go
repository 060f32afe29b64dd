package entity

import "errors"

// Ошибки, которые различает цикл наблюдения
var (
	ErrCapture      = errors.New("capture failed")
	ErrImageDecode  = errors.New("image decode failed")
	ErrTrainingData = errors.New("invalid training data")
	ErrModelLoad    = errors.New("model load failed")
	ErrInference    = errors.New("inference failed")
	ErrNotify       = errors.New("notify failed")
	ErrState        = errors.New("state file unavailable")
)

// FailureKind вид ошибки тика
type FailureKind string

const (
	FailureNone         FailureKind = ""              // тик прошёл успешно
	FailureCapture      FailureKind = "capture"       // камера недоступна
	FailureImageDecode  FailureKind = "image_decode"  // кадр не читается или кроп вне кадра
	FailureTrainingData FailureKind = "training_data" // пустой датасет
	FailureModelLoad    FailureKind = "model_load"    // веса не подходят к меткам
	FailureInference    FailureKind = "inference"     // модель не смогла классифицировать
	FailureState        FailureKind = "state"         // файл состояния недоступен
	FailureUnknown      FailureKind = "unknown"
)

// KindOf определяет вид ошибки по цепочке обёрток
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrCapture):
		return FailureCapture
	case errors.Is(err, ErrImageDecode):
		return FailureImageDecode
	case errors.Is(err, ErrTrainingData):
		return FailureTrainingData
	case errors.Is(err, ErrModelLoad):
		return FailureModelLoad
	case errors.Is(err, ErrInference):
		return FailureInference
	case errors.Is(err, ErrState):
		return FailureState
	default:
		return FailureUnknown
	}
}
