package usecase

import (
	"context"

	"TopMover/internal/domain/errs"
	"TopMover/pkg/kafka"
	"TopMover/pkg/logger"
)

// InvocationHandler consumes invocation payloads from a Kafka topic.
// Malformed payloads and no-data outcomes are acknowledged; provider and
// store failures are returned so the consumer can retry or dead-letter them.
type InvocationHandler struct {
	topic string
	d     *Dispatcher
	log   *logger.Logger
}

func NewInvocationHandler(topic string, d *Dispatcher, log *logger.Logger) *InvocationHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &InvocationHandler{topic: topic, d: d, log: log}
}

func (h *InvocationHandler) Topic() string { return h.topic }

func (h *InvocationHandler) Handle(ctx context.Context, data []byte) error {
	log := h.log
	if id := kafka.RequestID(ctx); id != "" {
		log = log.With(logger.String("request_id", id))
	}

	inv, err := h.d.ParseJSON(data)
	if err != nil {
		log.Warn("invocation dropped", logger.Error(err))
		return nil
	}

	res, err := h.d.Run(ctx, inv)
	switch {
	case err == nil:
		log.Info("invocation handled",
			logger.String("run_id", res.RunID),
			logger.String("outcome", res.Outcome()),
		)
		return nil
	case errs.IsNoData(err), errs.IsInvalidInput(err):
		log.Info("invocation produced no data", logger.Error(err))
		return nil
	default:
		return err
	}
}
