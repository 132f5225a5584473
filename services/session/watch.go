package session

import (
	"context"

	"travelstore/services/credentials"
	"travelstore/utils"

	"go.uber.org/zap"
)

// Watch re-checks the session whenever another tab changes the shared
// credentials. Bursts of notifications collapse into one forced check,
// debounce after the last of them. The returned stop ends watching.
func (c *Cache) Watch(ctx context.Context) (stop func(), err error) {
	recheck := utils.NewDebouncer(c.clock, c.debounce, func() {
		st := c.CheckStatus(context.WithoutCancel(ctx), true)
		c.logger.Debug("credentials changed in another tab", zap.Bool("authenticated", st.Authenticated))
	})

	origin := c.store.Origin()
	unwatch, err := c.store.Watch(ctx, func(ch credentials.Change) {
		if ch.Origin == origin {
			return
		}
		recheck.Trigger()
	})
	if err != nil {
		recheck.Stop()
		return nil, err
	}
	return func() {
		unwatch()
		recheck.Stop()
	}, nil
}
