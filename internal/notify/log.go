package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes events to the structured log. The development default.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) {
	n.logger.InfoContext(ctx, "registration moved",
		"registration_id", event.RegistrationID.String(),
		"number", event.Number,
		"from", event.FromStatus,
		"to", event.ToStatus,
	)
}
