package ratelimit

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultSweepSpec is how often expired in-memory windows are dropped.
const DefaultSweepSpec = "@every 10m"

// StartSweeper schedules periodic Sweep calls on store until ctx is done.
// now should be the clock of the Limiter using store; nil means time.Now.
func StartSweeper(ctx context.Context, store *MemoryStore, spec string, now func() time.Time, log logrus.FieldLogger) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	if now == nil {
		now = time.Now
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := store.Sweep(now()); n > 0 {
			log.WithField("removed", n).Debug("ratelimit: swept expired windows")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
