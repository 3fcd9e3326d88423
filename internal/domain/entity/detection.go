package entity

// BirdClassID индекс класса "bird" в наборе VOC из 21 класса.
const BirdClassID = 3

// VOCClasses метки классов MobileNet-SSD (фон + 20 категорий).
var VOCClasses = []string{
	"background", "aeroplane", "bicycle", "bird", "boat", "bottle", "bus",
	"car", "cat", "chair", "cow", "diningtable", "dog", "horse", "motorbike",
	"person", "pottedplant", "sheep", "sofa", "train", "tvmonitor",
}

// NormBox рамка в нормализованных координатах [0,1] (x1, y1, x2, y2)
type NormBox struct {
	X1, Y1, X2, Y2 float32
}

// Detection один кандидат объекта от детектора
type Detection struct {
	ClassID    int     // индекс класса
	Confidence float32 // вероятность в [0,1]
	Box        NormBox // рамка в каноническом пространстве 300×300
}

// Label возвращает имя класса или пустую строку для неизвестного индекса.
func (d Detection) Label() string {
	if d.ClassID < 0 || d.ClassID >= len(VOCClasses) {
		return ""
	}
	return VOCClasses[d.ClassID]
}

// IsBird сообщает, относится ли детекция к целевому классу.
func (d Detection) IsBird() bool {
	return d.ClassID == BirdClassID
}
