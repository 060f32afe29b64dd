package entity

import "sort"

// Label имя класса из набора меток, например "open" или "closed"
type Label string

// NoLabel обозначает отсутствие сохранённого состояния
const NoLabel Label = ""

// String возвращает имя метки, для пустой метки возвращает "none"
func (l Label) String() string {
	if l == NoLabel {
		return "none"
	}
	return string(l)
}

// LabelSet упорядоченный набор меток без повторов.
// Индекс метки в наборе является номером класса модели.
type LabelSet []Label

// NewLabelSet сортирует имена лексически и убирает повторы.
func NewLabelSet(names []string) LabelSet {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	set := make(LabelSet, 0, len(sorted))
	for i, name := range sorted {
		if i > 0 && name == sorted[i-1] {
			continue
		}
		set = append(set, Label(name))
	}
	return set
}

// Len возвращает количество классов
func (s LabelSet) Len() int {
	return len(s)
}

// At возвращает метку по номеру класса
func (s LabelSet) At(index int) (Label, bool) {
	if index < 0 || index >= len(s) {
		return NoLabel, false
	}
	return s[index], true
}

// Index возвращает номер класса для метки
func (s LabelSet) Index(label Label) (int, bool) {
	for i, l := range s {
		if l == label {
			return i, true
		}
	}
	return -1, false
}

// Equal сравнивает наборы поэлементно
func (s LabelSet) Equal(other LabelSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Strings возвращает имена меток
func (s LabelSet) Strings() []string {
	out := make([]string, len(s))
	for i, l := range s {
		out[i] = string(l)
	}
	return out
}
