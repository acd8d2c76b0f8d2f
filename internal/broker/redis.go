package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	requestChannelPrefix  = "ask:req:"
	responseChannelPrefix = "ask:resp:"
)

// RequestChannel names the pub/sub channel a frontend endpoint listens on.
func RequestChannel(endpoint string) string {
	return requestChannelPrefix + endpoint
}

// ResponseChannel names the pub/sub channel a frontend endpoint answers on.
func ResponseChannel(endpoint string) string {
	return responseChannelPrefix + endpoint
}

// RedisTransport carries broker envelopes over Redis pub/sub: requests go out
// on the endpoint's request channel, responses come back on its response
// channel and are fed to Broker.Deliver by Run.
type RedisTransport struct {
	cache  *redis.Client
	logger *slog.Logger
}

// NewRedisTransport builds a pub/sub transport.
func NewRedisTransport(cache *redis.Client, logger *slog.Logger) *RedisTransport {
	return &RedisTransport{cache: cache, logger: logger}
}

// Send publishes the envelope to the endpoint's request channel.
func (t *RedisTransport) Send(ctx context.Context, endpoint string, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return t.cache.Publish(ctx, RequestChannel(endpoint), payload).Err()
}

// Run pumps inbound responses into the broker until ctx ends. It subscribes
// to every response channel; Deliver drops anything without a matching
// outstanding ask, including late answers after a timeout.
func (t *RedisTransport) Run(ctx context.Context, b *Broker) error {
	sub := t.cache.PSubscribe(ctx, responseChannelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			endpoint := strings.TrimPrefix(msg.Channel, responseChannelPrefix)

			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				t.logger.Warn("discarding undecodable broker response", "endpoint", endpoint, "error", err)
				continue
			}
			if !b.Deliver(endpoint, env.CorrelationID, env.Payload) {
				t.logger.Debug("no outstanding ask for response", "endpoint", endpoint, "correlation_id", env.CorrelationID)
			}
		}
	}
}
