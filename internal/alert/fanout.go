package alert

import (
	"context"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/logger"
)

// Publisher broadcasts a violation set to one subscriber channel.
type Publisher interface {
	PublishViolations(ctx context.Context, violations []models.Violation) error
}

// Fanout publishes to several channels, delivering to all of them even
// when some fail. The last failure is returned.
type Fanout struct {
	publishers []Publisher
	log        *logger.Logger
}

// NewFanout creates a fanout over the given publishers.
func NewFanout(publishers ...Publisher) *Fanout {
	return &Fanout{
		publishers: publishers,
		log:        logger.GetLogger("alert.fanout"),
	}
}

// PublishViolations delivers the violations to every channel.
func (f *Fanout) PublishViolations(ctx context.Context, violations []models.Violation) error {
	var lastErr error
	for _, p := range f.publishers {
		if err := p.PublishViolations(ctx, violations); err != nil {
			f.log.Errorf("Alert publish failed: %v", err)
			lastErr = err
		}
	}
	return lastErr
}
