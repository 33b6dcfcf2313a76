package service

import (
	"context"

	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/pkg/logger"
	"tutorhub.io/tutorhub/internal/pkg/worker"
)

// RegisterDeletionLog records every committed cascade at info level on the
// general pool, off the request path.
func RegisterDeletionLog(events *domain.EventDispatcher, pools DetachedSubmitter) {
	events.Register(domain.EventEntityDeleted, func(ctx context.Context, e *domain.DomainEvent) error {
		payload, err := domain.DecodeEntityDeleted(e)
		if err != nil {
			return err
		}
		log := logger.FromContext(ctx)
		return pools.SubmitDetached(worker.PoolGeneral, func(context.Context) {
			log.Info("Entity deleted",
				zap.String("event_id", e.EventID),
				zap.String("aggregate", e.AggregateType),
				zap.Int64("id", e.AggregateID),
				zap.Int64("partition", e.PartitionID),
				zap.Any("removed", payload.Removed),
			)
		})
	})
}
