package entity

// TrainingSample путь к изображению и номер его класса
type TrainingSample struct {
	Path    string // путь к файлу изображения
	ClassID int    // индекс метки в LabelSet
}
