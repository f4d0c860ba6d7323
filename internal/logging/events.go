package logging

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/xvault/internal/chain"
)

// ForwardEvents logs every contract event emitted on c at debug level. The
// returned function unsubscribes.
func ForwardEvents(c *chain.Chain, l *zap.Logger) (func() error, error) {
	log := Module(l, "events")
	handler := func(ev chain.Log) {
		fields := make([]zap.Field, 0, len(ev.Fields)+2)
		fields = append(fields, zap.String("event", ev.Event), zap.Stringer("contract", ev.Address))
		for k, v := range ev.Fields {
			fields = append(fields, zap.String(k, v))
		}
		log.Debug("contract event", fields...)
	}
	if err := c.Subscribe(chain.TopicAllLogs, handler); err != nil {
		return nil, err
	}
	return func() error { return c.Unsubscribe(chain.TopicAllLogs, handler) }, nil
}
