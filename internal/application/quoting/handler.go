package quoting

import (
	"context"
	"time"

	"github.com/turtacn/RateCraft/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RateCraft/pkg/errors"
	dto "github.com/turtacn/RateCraft/pkg/types/rating"
)

// NewQuoteRequestHandler adapts the service to rating.quote.requested.
// Malformed events and client-side rating errors (validation, unknown
// state) are marked permanent so they are dead-lettered without retries;
// anything else is retried by the consumer.
func NewQuoteRequestHandler(svc Service, metrics *prometheus.AppMetrics, logger logging.Logger) kafka.MessageHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("quoting.worker")

	return func(ctx context.Context, msg *kafka.Message) (err error) {
		start := time.Now()
		defer func() {
			if metrics != nil {
				prometheus.RecordMessageProcessed(metrics, msg.Topic, time.Since(start), err)
			}
		}()

		env, err := kafka.MessageToEventEnvelope(msg)
		if err != nil {
			return kafka.Permanent(err)
		}
		if env.EventType != kafka.EventQuoteRequested {
			return kafka.Permanent(errors.Newf(errors.ErrCodeValidation, "unexpected event type %q", env.EventType))
		}
		var ev dto.QuoteRequestedEvent
		if err := env.DecodePayload(&ev); err != nil {
			return kafka.Permanent(err)
		}

		requestID := ev.RequestID
		if requestID == "" {
			requestID = env.RequestID
		}
		if requestID == "" {
			requestID = env.EventID
		}
		ctx = logging.WithRequestID(ctx, requestID)

		resp, err := svc.Calculate(ctx, &ev.Quote)
		if err != nil {
			if errors.IsClientError(errors.GetCode(err)) {
				return kafka.Permanent(err)
			}
			return err
		}
		logger.WithContext(ctx).Info("quote rated",
			logging.String("quote_id", resp.QuoteID),
			logging.String("final_premium", resp.FinalPremium.StringFixed(2)),
			logging.String("compliance", resp.Compliance.Status))
		return nil
	}
}

//Personal.AI order the ending
