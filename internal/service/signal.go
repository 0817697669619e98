package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/mailfold/mailroom/internal/domain"
)

// SignalService fans intake acknowledgments out to realtime subscribers.
// Channels are per tenant, which is what keeps the feed inside the tenancy
// boundary: a subscriber only ever receives its own tenant's events.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func channelFor(tenantID string) string {
	return "intake:" + tenantID
}

func (s *SignalService) Publish(ctx context.Context, event domain.IntakeEvent) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, channelFor(event.TenantID), jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime streams the tenant's intake acknowledgments into output until ctx
// is done. Undecodable messages are dropped with a log line rather than
// killing the stream.
func (s *SignalService) Realtime(ctx context.Context, tenantID string, output chan<- domain.IntakeEvent) {

	pubsub := s.rdb.Subscribe(ctx, channelFor(tenantID))
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event domain.IntakeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(
					ctx, "Failed to decode intake event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case output <- event:
			}
		}
	}
}
