package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job name of the sync.
const PushJob = "velov_sync"

// Push sends the metrics gathered by g to a Pushgateway. Batch runs exit
// before any scraper could reach them, so this is how their metrics survive.
func Push(ctx context.Context, url string, g prometheus.Gatherer) error {
	if err := push.New(url, PushJob).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
