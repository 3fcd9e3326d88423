package app

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"bird-crop/internal/domain/entity"
	"bird-crop/internal/infrastructure/imagefile"
	"bird-crop/internal/infrastructure/storage"
	"bird-crop/internal/infrastructure/vision"
)

type detectorFunc func(ctx context.Context, frame *entity.Frame) ([]entity.Detection, error)

func (f detectorFunc) Detect(ctx context.Context, frame *entity.Frame) ([]entity.Detection, error) {
	return f(ctx, frame)
}

type detectResult struct {
	dets []entity.Detection
	err  error
}

// scripted отдаёт результаты по порядку вызовов
func scripted(results ...detectResult) (detectorFunc, *int) {
	calls := 0
	return func(ctx context.Context, frame *entity.Frame) ([]entity.Detection, error) {
		if calls >= len(results) {
			calls++
			return nil, nil
		}
		r := results[calls]
		calls++
		return r.dets, r.err
	}, &calls
}

func always(dets ...entity.Detection) detectorFunc {
	return func(ctx context.Context, frame *entity.Frame) ([]entity.Detection, error) {
		return dets, nil
	}
}

type recordingNotifier struct {
	outcomes []entity.Outcome
	summary  *entity.Summary
	err      error
}

func (n *recordingNotifier) NotifyOutcome(ctx context.Context, o entity.Outcome) error {
	n.outcomes = append(n.outcomes, o)
	return n.err
}

func (n *recordingNotifier) NotifySummary(ctx context.Context, s entity.Summary) error {
	n.summary = &s
	return n.err
}

type brokenLog struct{}

func (brokenLog) RecordSuccess(ctx context.Context, line string) error {
	return errors.New("disk full")
}
func (brokenLog) RecordFailure(ctx context.Context, line string) error {
	return errors.New("disk full")
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 90, G: 140, B: 60, A: 255})
	require.NoError(t, imaging.Save(img, path))
}

type fixture struct {
	dir     string
	cropDir string
	log     *storage.MemoryOutcomeLog
	out     *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "images")
	require.NoError(t, os.Mkdir(dir, 0o755))
	return &fixture{
		dir:     dir,
		cropDir: filepath.Join(root, "cropped"),
		log:     storage.NewMemoryOutcomeLog(),
		out:     &bytes.Buffer{},
	}
}

func (f *fixture) service(detector detectorFunc, opts Options) *BatchService {
	return NewBatchService(detector, vision.NewPreparer(), imagefile.NewStore(f.cropDir, imagefile.FormatPNG), f.log, nil, opts, f.out, nil)
}

func defaultOptions() Options {
	return Options{RunID: "test", Threshold: 0.2, Selection: SelectFirst, Naming: NamingBase}
}

func TestBatchService_Example(t *testing.T) {
	f := newFixture(t)
	writeImage(t, filepath.Join(f.dir, "img01.jpg"), 300, 200)

	svc := f.service(always(bird(0.91, 0.1, 0.2, 0.5, 0.6)), defaultOptions())
	summary, err := svc.Run(context.Background(), f.dir)
	require.NoError(t, err)

	line := "img01: Bird detected with 91.0% confidence"
	require.Equal(t, []string{line}, f.log.Successes())
	require.Empty(t, f.log.Failures())
	require.Equal(t, line+"\n", f.out.String())
	require.Equal(t, entity.Summary{RunID: "test", Total: 1, Accepted: 1}, summary)

	crop, err := imaging.Open(filepath.Join(f.cropDir, "img01.png"))
	require.NoError(t, err)
	require.Equal(t, 95, crop.Bounds().Dx())
	require.Equal(t, 80, crop.Bounds().Dy())
}

func TestBatchService_MixedOutcomes(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a.png", "b.png", "d.png", "e.png"} {
		writeImage(t, filepath.Join(f.dir, name), 200, 200)
	}
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "c.txt"), []byte("notes"), 0o644))

	detector, calls := scripted(
		detectResult{dets: []entity.Detection{{ClassID: 15, Confidence: 0.99}}},
		detectResult{dets: []entity.Detection{bird(0.1234, 0.1, 0.1, 0.5, 0.5)}},
		detectResult{err: errors.New("backend crashed")},
		detectResult{dets: []entity.Detection{bird(0.5, 0.25, 0.25, 0.75, 0.75)}},
	)

	summary, err := f.service(detector, defaultOptions()).Run(context.Background(), f.dir)
	require.NoError(t, err)
	require.Equal(t, 4, *calls, "decode failure must not reach the detector")

	require.Equal(t, []string{
		"a: No bird detected",
		"b: Confidence below threshold at 12.34%",
		"c: Could not read image",
		"d: Detection failed",
	}, f.log.Failures())
	require.Equal(t, []string{"e: Bird detected with 50.0% confidence"}, f.log.Successes())
	require.Equal(t, entity.Summary{RunID: "test", Total: 5, Accepted: 1, Rejected: 2, Errors: 2}, summary)

	entries, err := os.ReadDir(f.cropDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "e.png", entries[0].Name())

	// 100×100 кадр, рамка (25,25,75,75) + 20px
	crop, err := imaging.Open(filepath.Join(f.cropDir, "e.png"))
	require.NoError(t, err)
	require.Equal(t, 90, crop.Bounds().Dx())
	require.Equal(t, 90, crop.Bounds().Dy())

	lines := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	require.Len(t, lines, 5)
	require.Equal(t, "a: No bird detected", lines[0])
	require.Equal(t, "e: Bird detected with 50.0% confidence", lines[4])
}

func TestBatchService_EmptyCropGoesToFailures(t *testing.T) {
	f := newFixture(t)
	writeImage(t, filepath.Join(f.dir, "edge.png"), 100, 100)

	svc := f.service(always(bird(0.9, 1.6, 0.1, 1.9, 0.3)), defaultOptions())
	summary, err := svc.Run(context.Background(), f.dir)
	require.NoError(t, err)

	require.Equal(t, []string{"edge: Crop region is empty at 90.0%"}, f.log.Failures())
	require.Empty(t, f.log.Successes())
	require.Equal(t, 1, summary.Rejected)

	entries, err := os.ReadDir(f.cropDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestBatchService_EmptyDirectory(t *testing.T) {
	f := newFixture(t)

	summary, err := f.service(always(), defaultOptions()).Run(context.Background(), f.dir)
	require.NoError(t, err)
	require.Zero(t, summary.Total)
	require.Empty(t, f.out.String())
	require.Empty(t, f.log.Successes())
	require.Empty(t, f.log.Failures())

	info, err := os.Stat(f.cropDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestBatchService_MissingDirectory(t *testing.T) {
	f := newFixture(t)

	_, err := f.service(always(), defaultOptions()).Run(context.Background(), filepath.Join(f.dir, "missing"))
	require.Error(t, err)
}

func TestBatchService_NoDetector(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(nil, vision.NewPreparer(), imagefile.NewStore(f.cropDir, imagefile.FormatPNG), f.log, nil, defaultOptions(), nil, nil)

	_, err := svc.Run(context.Background(), f.dir)
	require.EqualError(t, err, "detector is not configured")
}

func TestBatchService_NoPreparer(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(always(), nil, imagefile.NewStore(f.cropDir, imagefile.FormatPNG), f.log, nil, defaultOptions(), nil, nil)

	_, err := svc.Run(context.Background(), f.dir)
	require.EqualError(t, err, "frame preparer is not configured")
}

func TestBatchService_LogsLabelsAndCropSize(t *testing.T) {
	f := newFixture(t)
	writeImage(t, filepath.Join(f.dir, "img01.png"), 300, 200)

	core, logs := observer.New(zap.DebugLevel)
	dets := []entity.Detection{{ClassID: 8, Confidence: 0.6}, bird(0.91, 0.1, 0.2, 0.5, 0.6)}
	svc := NewBatchService(always(dets...), vision.NewPreparer(), imagefile.NewStore(f.cropDir, imagefile.FormatPNG), f.log, nil, defaultOptions(), nil, zap.New(core))

	_, err := svc.Run(context.Background(), f.dir)
	require.NoError(t, err)

	found := logs.FilterMessage("detections").All()
	require.Len(t, found, 1)
	require.Equal(t, []interface{}{"cat", "bird"}, found[0].ContextMap()["labels"])

	processed := logs.FilterMessage("image processed").All()
	require.Len(t, processed, 1)
	require.Equal(t, int64(95), processed[0].ContextMap()["crop_width"])
	require.Equal(t, int64(80), processed[0].ContextMap()["crop_height"])
}

func TestBatchService_RerunDuplicatesLogLines(t *testing.T) {
	f := newFixture(t)
	writeImage(t, filepath.Join(f.dir, "img01.png"), 120, 80)
	writeImage(t, filepath.Join(f.dir, "img02.png"), 120, 80)

	logDir := t.TempDir()
	fileLog := storage.NewFileOutcomeLog(filepath.Join(logDir, "successes.txt"), filepath.Join(logDir, "failures.txt"))
	detector, _ := scripted(
		detectResult{dets: []entity.Detection{bird(0.8, 0.2, 0.2, 0.6, 0.6)}},
		detectResult{},
		detectResult{dets: []entity.Detection{bird(0.8, 0.2, 0.2, 0.6, 0.6)}},
		detectResult{},
	)
	svc := NewBatchService(detector, vision.NewPreparer(), imagefile.NewStore(f.cropDir, imagefile.FormatPNG), fileLog, nil, defaultOptions(), nil, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Run(context.Background(), f.dir)
		require.NoError(t, err)
	}

	data, err := os.ReadFile(filepath.Join(logDir, "successes.txt"))
	require.NoError(t, err)
	require.Equal(t, "img01: Bird detected with 80.0% confidence\nimg01: Bird detected with 80.0% confidence\n", string(data))

	data, err = os.ReadFile(filepath.Join(logDir, "failures.txt"))
	require.NoError(t, err)
	require.Equal(t, "img02: No bird detected\nimg02: No bird detected\n", string(data))
}

func TestBatchService_BaseNamingOverwritesCollisions(t *testing.T) {
	f := newFixture(t)
	writeImage(t, filepath.Join(f.dir, "robin.jpg"), 200, 200)
	writeImage(t, filepath.Join(f.dir, "robin.png"), 100, 100)

	svc := f.service(always(bird(0.9, 0.25, 0.25, 0.5, 0.5)), defaultOptions())
	_, err := svc.Run(context.Background(), f.dir)
	require.NoError(t, err)
	require.Len(t, f.log.Successes(), 2)

	entries, err := os.ReadDir(f.cropDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// robin.png обработан последним и перезаписал обрезку robin.jpg
	crop, err := imaging.Open(filepath.Join(f.cropDir, "robin.png"))
	require.NoError(t, err)
	require.Equal(t, 45, crop.Bounds().Dx())
}

func TestBatchService_FullNamingKeepsBoth(t *testing.T) {
	f := newFixture(t)
	writeImage(t, filepath.Join(f.dir, "robin.jpg"), 200, 200)
	writeImage(t, filepath.Join(f.dir, "robin.png"), 100, 100)

	opts := defaultOptions()
	opts.Naming = NamingFull
	_, err := f.service(always(bird(0.9, 0.25, 0.25, 0.5, 0.5)), opts).Run(context.Background(), f.dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(f.cropDir, "robin_jpg.png"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(f.cropDir, "robin_png.png"))
	require.NoError(t, err)
}

func TestBatchService_HighestSelection(t *testing.T) {
	f := newFixture(t)
	writeImage(t, filepath.Join(f.dir, "flock.png"), 200, 200)
	dets := []entity.Detection{
		bird(0.15, 0.1, 0.1, 0.2, 0.2),
		bird(0.85, 0.5, 0.5, 0.7, 0.7),
	}

	_, err := f.service(always(dets...), defaultOptions()).Run(context.Background(), f.dir)
	require.NoError(t, err)
	require.Equal(t, []string{"flock: Confidence below threshold at 15.0%"}, f.log.Failures())

	g := newFixture(t)
	writeImage(t, filepath.Join(g.dir, "flock.png"), 200, 200)
	opts := defaultOptions()
	opts.Selection = SelectHighest
	_, err = g.service(always(dets...), opts).Run(context.Background(), g.dir)
	require.NoError(t, err)
	require.Equal(t, []string{"flock: Bird detected with 85.0% confidence"}, g.log.Successes())
}

func TestBatchService_CancelledBeforeNextImage(t *testing.T) {
	f := newFixture(t)
	writeImage(t, filepath.Join(f.dir, "a.png"), 40, 40)
	writeImage(t, filepath.Join(f.dir, "b.png"), 40, 40)

	ctx, cancel := context.WithCancel(context.Background())
	detector := detectorFunc(func(ctx context.Context, frame *entity.Frame) ([]entity.Detection, error) {
		cancel()
		return nil, nil
	})

	summary, err := f.service(detector, defaultOptions()).Run(ctx, f.dir)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, summary.Total)
	require.Equal(t, []string{"a: No bird detected"}, f.log.Failures())
}

func TestBatchService_LogFailureAborts(t *testing.T) {
	f := newFixture(t)
	writeImage(t, filepath.Join(f.dir, "a.png"), 40, 40)
	writeImage(t, filepath.Join(f.dir, "b.png"), 40, 40)

	detector, calls := scripted()
	svc := NewBatchService(detector, vision.NewPreparer(), imagefile.NewStore(f.cropDir, imagefile.FormatPNG), brokenLog{}, nil, defaultOptions(), nil, nil)

	_, err := svc.Run(context.Background(), f.dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
	require.Equal(t, 1, *calls)
}

func TestBatchService_Notifier(t *testing.T) {
	f := newFixture(t)
	writeImage(t, filepath.Join(f.dir, "a.png"), 100, 100)
	writeImage(t, filepath.Join(f.dir, "b.png"), 100, 100)

	detector, _ := scripted(
		detectResult{dets: []entity.Detection{bird(0.7, 0.2, 0.2, 0.4, 0.4)}},
	)
	notifier := &recordingNotifier{err: errors.New("telegram is down")}
	svc := NewBatchService(detector, vision.NewPreparer(), imagefile.NewStore(f.cropDir, imagefile.FormatPNG), f.log, notifier, defaultOptions(), nil, nil)

	summary, err := svc.Run(context.Background(), f.dir)
	require.NoError(t, err, "notification errors never fail the batch")
	require.Len(t, notifier.outcomes, 2)
	require.Equal(t, entity.OutcomeAccepted, notifier.outcomes[0].Kind)
	require.Equal(t, filepath.Join(f.cropDir, "a.png"), notifier.outcomes[0].CropPath)
	require.Equal(t, entity.OutcomeNoDetection, notifier.outcomes[1].Kind)
	require.NotNil(t, notifier.summary)
	require.Equal(t, summary, *notifier.summary)
}

func TestBatchService_ProcessFileSaveError(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.dir, "a.png")
	writeImage(t, path, 100, 100)

	// Каталог обрезок не создан: запись должна завершиться ошибкой
	svc := NewBatchService(always(bird(0.9, 0.1, 0.1, 0.5, 0.5)), vision.NewPreparer(), imagefile.NewStore(filepath.Join(f.cropDir, "nope"), imagefile.FormatPNG), f.log, nil, defaultOptions(), nil, nil)

	outcome := svc.ProcessFile(context.Background(), path)
	require.Equal(t, entity.OutcomeSaveError, outcome.Kind)
	require.Error(t, outcome.Err)
	require.Equal(t, "a: Could not save crop", outcome.Line())
}
