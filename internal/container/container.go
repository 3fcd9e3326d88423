package container

import (
	"io"

	"go.uber.org/zap"

	app "bird-crop/internal/application"
	"bird-crop/internal/domain/port"
)

type Container struct {
	BatchService *app.BatchService
}

func New(
	detector port.BirdDetector,
	preparer port.FramePreparer,
	images port.ImageStore,
	outcomes port.OutcomeLog,
	notifier port.Notifier,
	opts app.Options,
	out io.Writer,
	log *zap.Logger,
) *Container {
	batchService := app.NewBatchService(detector, preparer, images, outcomes, notifier, opts, out, log)

	return &Container{
		BatchService: batchService,
	}
}
