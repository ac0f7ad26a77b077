package sms

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogGateway is the development Gateway: it logs the shaped request instead
// of speaking to a provider. The real per-provider wire clients live outside
// this module and are injected in their place.
type LogGateway struct {
	logger *slog.Logger
}

// NewLogGateway builds a gateway that only logs deliveries.
func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

// Deliver logs the request and reports every recipient as delivered.
func (g *LogGateway) Deliver(ctx context.Context, _ Credential, req DeliveryRequest) (DeliveryResult, error) {
	g.logger.InfoContext(ctx, "sms delivery (dev gateway)",
		"provider", req.Provider,
		"recipients", len(req.Recipients),
		"sign", req.SignName,
		"template", req.TemplateID,
	)
	return DeliveryResult{
		RequestID: uuid.NewString(),
		Delivered: req.Recipients,
	}, nil
}
