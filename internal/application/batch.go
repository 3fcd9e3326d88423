package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"bird-crop/internal/domain/entity"
	"bird-crop/internal/domain/port"
)

// Options параметры прогона
type Options struct {
	RunID     string
	Threshold float64
	Selection SelectionPolicy
	Naming    NamingPolicy
}

// BatchService последовательно обрабатывает каталог изображений.
type BatchService struct {
	detector port.BirdDetector
	preparer port.FramePreparer
	images   port.ImageStore
	outcomes port.OutcomeLog
	notifier port.Notifier
	opts     Options
	out      io.Writer
	log      *zap.Logger
}

// NewBatchService создаёт сервис пакетной обработки. notifier может быть nil.
func NewBatchService(
	detector port.BirdDetector,
	preparer port.FramePreparer,
	images port.ImageStore,
	outcomes port.OutcomeLog,
	notifier port.Notifier,
	opts Options,
	out io.Writer,
	log *zap.Logger,
) *BatchService {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchService{
		detector: detector,
		preparer: preparer,
		images:   images,
		outcomes: outcomes,
		notifier: notifier,
		opts:     opts,
		out:      out,
		log:      log,
	}
}

// Run обрабатывает все файлы каталога dir по алфавиту. Ошибка одного
// изображения не прерывает прогон; ошибка записи журнала прерывает.
func (s *BatchService) Run(ctx context.Context, dir string) (entity.Summary, error) {
	summary := entity.Summary{RunID: s.opts.RunID}
	if s.detector == nil {
		return summary, errors.New("detector is not configured")
	}
	if s.preparer == nil {
		return summary, errors.New("frame preparer is not configured")
	}

	if err := s.images.EnsureDir(); err != nil {
		return summary, fmt.Errorf("create crop directory: %w", err)
	}

	files, err := s.images.List(dir)
	if err != nil {
		return summary, fmt.Errorf("list input directory: %w", err)
	}
	s.log.Info("batch started", zap.String("dir", dir), zap.Int("files", len(files)), zap.Float64("threshold", s.opts.Threshold))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			s.log.Warn("batch interrupted", zap.Int("processed", summary.Total), zap.Int("remaining", len(files)-summary.Total))
			return summary, err
		}

		outcome := s.ProcessFile(ctx, file)
		summary.Add(outcome)
		if err := s.report(ctx, outcome); err != nil {
			return summary, err
		}
	}

	s.log.Info("batch finished",
		zap.Int("total", summary.Total),
		zap.Int("accepted", summary.Accepted),
		zap.Int("rejected", summary.Rejected),
		zap.Int("errors", summary.Errors),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifySummary(ctx, summary); err != nil {
			s.log.Warn("summary notification failed", zap.Error(err))
		}
	}

	return summary, nil
}

// ProcessFile обрабатывает один файл и возвращает его исход.
// Ошибки чтения, детекции и записи превращаются в исход, а не в error.
func (s *BatchService) ProcessFile(ctx context.Context, file string) entity.Outcome {
	outcome := entity.Outcome{Name: DisplayName(file), File: file}

	img, err := s.images.Load(file)
	if err != nil {
		outcome.Kind = entity.OutcomeDecodeError
		outcome.Err = err
		return outcome
	}

	frame, err := s.preparer.Prepare(img)
	if err != nil {
		outcome.Kind = entity.OutcomeDecodeError
		outcome.Err = err
		return outcome
	}

	detections, err := s.detector.Detect(ctx, frame)
	if err != nil {
		outcome.Kind = entity.OutcomeDetectError
		outcome.Err = err
		return outcome
	}
	s.log.Debug("detections", zap.String("file", file), zap.Strings("labels", labels(detections)))

	verdict := SelectBird(detections, s.opts.Selection, s.opts.Threshold, frame.Width, frame.Height)
	outcome.Kind = verdict.Kind
	outcome.Confidence = verdict.Confidence
	outcome.Rect = verdict.Rect
	if verdict.Kind != entity.OutcomeAccepted {
		return outcome
	}

	crop := imaging.Crop(frame.Image, verdict.Rect.Image())
	path, err := s.images.SaveCrop(s.opts.Naming.CropStem(file), crop)
	if err != nil {
		outcome.Kind = entity.OutcomeSaveError
		outcome.Err = err
		return outcome
	}
	outcome.CropPath = path

	return outcome
}

// report печатает строку отчёта, пишет её в журнал и отправляет уведомление.
func (s *BatchService) report(ctx context.Context, outcome entity.Outcome) error {
	line := outcome.Line()
	fmt.Fprintln(s.out, line)

	var err error
	if outcome.Success() {
		err = s.outcomes.RecordSuccess(ctx, line)
	} else {
		err = s.outcomes.RecordFailure(ctx, line)
	}
	if err != nil {
		return fmt.Errorf("record outcome for %s: %w", outcome.File, err)
	}

	fields := []zap.Field{
		zap.String("file", outcome.File),
		zap.String("outcome", string(outcome.Kind)),
		zap.Float32("confidence", outcome.Confidence),
	}
	switch {
	case outcome.Err != nil:
		s.log.Warn("image failed", append(fields, zap.Error(outcome.Err))...)
	case outcome.Kind == entity.OutcomeEmptyCrop:
		s.log.Warn("crop region collapsed after clamping", append(fields, zap.Any("rect", outcome.Rect))...)
	default:
		s.log.Debug("image processed", append(fields,
			zap.String("crop", outcome.CropPath),
			zap.Int("crop_width", outcome.Rect.Dx()),
			zap.Int("crop_height", outcome.Rect.Dy()),
		)...)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyOutcome(ctx, outcome); err != nil {
			s.log.Warn("outcome notification failed", zap.String("file", outcome.File), zap.Error(err))
		}
	}

	return nil
}

func labels(detections []entity.Detection) []string {
	out := make([]string, 0, len(detections))
	for _, d := range detections {
		out = append(out, d.Label())
	}
	return out
}
