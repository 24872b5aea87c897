package service

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/robtrove/TroveCRM/internal/domain"
)

// SignalService fans change events through redis pub/sub.
type SignalService struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewSignalService(redisClient *redis.Client, log *zap.Logger) *SignalService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SignalService{
		rdb: redisClient,
		log: log.Named("signal"),
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event domain.ChangeEvent) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "encode change event")
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		return errors.Wrap(err, "publish change event")
	}

	return nil
}

// Realtime relays events of the collections last received on input to output.
// Each value on input replaces the previous subscription. It returns when ctx
// is done or input is closed.
func (s *SignalService) Realtime(ctx context.Context, input <-chan []string, output chan<- domain.ChangeEvent) {
	pubsub := s.rdb.Subscribe(ctx)
	defer pubsub.Close()

	messages := pubsub.Channel()
	var current []string

	for {
		select {
		case <-ctx.Done():
			return
		case collections, ok := <-input:
			if !ok {
				return
			}
			channels := SubscriptionChannels(collections)
			if len(current) > 0 {
				if err := pubsub.Unsubscribe(ctx, current...); err != nil {
					s.log.Warn("unsubscribe failed", zap.Strings("channels", current), zap.Error(err))
				}
			}
			current = nil
			if len(channels) == 0 {
				continue
			}
			if err := pubsub.Subscribe(ctx, channels...); err != nil {
				s.log.Error("subscribe failed", zap.Strings("channels", channels), zap.Error(err))
				continue
			}
			current = channels
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.log.Warn("dropping malformed change event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

// SubscriptionChannels maps collection names to their channels, skipping
// unknown collections and duplicates.
func SubscriptionChannels(collections []string) []string {
	seen := make(map[string]bool, len(collections))
	channels := make([]string, 0, len(collections))
	for _, c := range collections {
		if _, ok := domain.SchemaFor(c); !ok || seen[c] {
			continue
		}
		seen[c] = true
		channels = append(channels, domain.ChannelFor(c))
	}
	return channels
}
