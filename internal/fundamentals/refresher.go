package fundamentals

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher keeps the fundamentals cache warm for a watchlist of
// symbols by re-fetching them on a cron schedule. Without it, the first
// valuation after a cache expiry pays the full upstream round trip.
type Refresher struct {
	client  *Client
	symbols []string
	spec    string
	cron    *cron.Cron
	log     *logrus.Entry
}

// NewRefresher creates a refresher for the given watchlist. spec is a
// cron expression ("@every 15m" style specs are accepted).
func NewRefresher(client *Client, symbols []string, spec string) *Refresher {
	if spec == "" {
		spec = "@every 15m"
	}
	return &Refresher{
		client:  client,
		symbols: symbols,
		spec:    spec,
		cron:    cron.New(),
		log:     logrus.WithField("component", "refresher"),
	}
}

// Start schedules the refresh job and runs an immediate warm-up pass in
// the background.
func (r *Refresher) Start() error {
	if len(r.symbols) == 0 {
		r.log.Debug("no watchlist configured, refresher idle")
		return nil
	}
	if _, err := r.cron.AddFunc(r.spec, r.refreshAll); err != nil {
		return err
	}
	r.cron.Start()
	go r.refreshAll()
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Refresher) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, symbol := range r.symbols {
		r.client.Invalidate(symbol)
		if _, err := r.client.GetFundamentals(ctx, symbol); err != nil {
			r.log.WithField("symbol", symbol).WithError(err).Warn("refresh failed")
			continue
		}
		r.log.WithField("symbol", symbol).Debug("refreshed")
	}
}
