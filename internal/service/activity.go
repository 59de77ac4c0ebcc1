package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/eventos-api/internal/metrics"
	"github.com/iliyamo/eventos-api/internal/queue"
)

const publishTimeout = 2 * time.Second

// publish hands ev to p without letting a broker failure fail the
// request.  The request deadline is detached so a slow client does not
// cancel an in-flight publish.
func publish(ctx context.Context, p queue.Publisher, ev queue.ActivityEvent) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := p.Publish(pctx, ev)
	metrics.ActivityPublished.WithLabelValues(ev.Type, metrics.Outcome(err)).Inc()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("type", ev.Type).Uint64("resource_id", ev.ResourceID).
			Msg("activity publish failed")
	}
}
