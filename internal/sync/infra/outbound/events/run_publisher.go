package events

import (
	"context"

	sharedBus "github.com/davicafu/possync/internal/shared/infra/platform/bus"
	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"go.uber.org/zap"
)

const RunCompleted = "possync.run.completed"

// RunPublisher publica el resumen de cada ejecución en el bus, con el run_id como clave.
type RunPublisher struct {
	bus sharedBus.EventBus
	log *zap.Logger
}

var _ syncDomain.RunObserver = (*RunPublisher)(nil)

func NewRunPublisher(bus sharedBus.EventBus, log *zap.Logger) *RunPublisher {
	return &RunPublisher{bus: bus, log: log}
}

func (p *RunPublisher) ObserveRun(ctx context.Context, summary syncDomain.RunSummary) error {
	evt, err := sharedBus.NewIntegrationEvent(RunCompleted, summary.RunID, summary.FinishedAt, summary)
	if err != nil {
		return err
	}
	if err := p.bus.Publish(ctx, evt); err != nil {
		return err
	}
	p.log.Info("📤 Run summary published", zap.String("run_id", summary.RunID), zap.String("status", string(summary.Status)))
	return nil
}
