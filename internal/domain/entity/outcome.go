package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OutcomeKind итог обработки одного файла
type OutcomeKind string

const (
	OutcomeAccepted       OutcomeKind = "accepted"        // Птица найдена, обрезка сохранена
	OutcomeNoDetection    OutcomeKind = "no_detection"    // Нет детекций целевого класса
	OutcomeBelowThreshold OutcomeKind = "below_threshold" // Уверенность не выше порога
	OutcomeDecodeError    OutcomeKind = "decode_error"    // Файл не читается как изображение
	OutcomeDetectError    OutcomeKind = "detect_error"    // Ошибка детектора
	OutcomeEmptyCrop      OutcomeKind = "empty_crop"      // Прямоугольник схлопнулся после ограничения
	OutcomeSaveError      OutcomeKind = "save_error"      // Не удалось записать обрезку
)

// Outcome результат обработки одного изображения
type Outcome struct {
	Kind       OutcomeKind
	Name       string  // имя файла без расширения
	File       string  // путь к исходному файлу
	Confidence float32 // уверенность выбранной детекции
	Rect       Rect    // прямоугольник обрезки
	CropPath   string  // путь к сохранённой обрезке
	Err        error   // причина для ошибочных исходов
}

// Success сообщает, что исход идёт в журнал успехов.
func (o Outcome) Success() bool {
	return o.Kind == OutcomeAccepted
}

// Line возвращает строку отчёта для журнала и stdout.
func (o Outcome) Line() string {
	switch o.Kind {
	case OutcomeAccepted:
		return fmt.Sprintf("%s: Bird detected with %s%% confidence", o.Name, FormatPercent(o.Confidence))
	case OutcomeNoDetection:
		return fmt.Sprintf("%s: No bird detected", o.Name)
	case OutcomeBelowThreshold:
		return fmt.Sprintf("%s: Confidence below threshold at %s%%", o.Name, FormatPercent(o.Confidence))
	case OutcomeDecodeError:
		return fmt.Sprintf("%s: Could not read image", o.Name)
	case OutcomeDetectError:
		return fmt.Sprintf("%s: Detection failed", o.Name)
	case OutcomeEmptyCrop:
		return fmt.Sprintf("%s: Crop region is empty at %s%%", o.Name, FormatPercent(o.Confidence))
	case OutcomeSaveError:
		return fmt.Sprintf("%s: Could not save crop", o.Name)
	default:
		return fmt.Sprintf("%s: %s", o.Name, o.Kind)
	}
}

// FormatPercent переводит уверенность в проценты с округлением до двух знаков.
// Целые значения печатаются с одним знаком после точки: 91.0, 45.68.
func FormatPercent(confidence float32) string {
	pct := math.Round(float64(confidence)*100*100) / 100
	s := strconv.FormatFloat(pct, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Summary итоги одного прогона
type Summary struct {
	RunID    string
	Total    int // обработано файлов
	Accepted int // сохранено обрезок
	Rejected int // нет птицы или уверенность ниже порога
	Errors   int // ошибки чтения, детекции и записи
}

// Add учитывает исход в итогах.
func (s *Summary) Add(o Outcome) {
	s.Total++
	switch o.Kind {
	case OutcomeAccepted:
		s.Accepted++
	case OutcomeNoDetection, OutcomeBelowThreshold, OutcomeEmptyCrop:
		s.Rejected++
	default:
		s.Errors++
	}
}

// String возвращает краткую сводку для уведомлений.
func (s Summary) String() string {
	return fmt.Sprintf("Processed %d images: %d cropped, %d rejected, %d errors", s.Total, s.Accepted, s.Rejected, s.Errors)
}
