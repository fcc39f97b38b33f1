package stream

import (
	"errors"
	"log/slog"

	"earthquery/pkg/config"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
)

// NewRedisSubscriber returns a Redis Streams subscriber bound to the
// configured consumer group and name.
func NewRedisSubscriber(cfg config.RedisConfig, log *slog.Logger) (message.Subscriber, error) {
	if cfg.Addr == "" {
		return nil, errors.New("channels.redis.addr is required")
	}
	if log == nil {
		log = slog.Default()
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})

	return redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
		ConsumerGroup: cfg.Group,
		Consumer:      cfg.Consumer,
	}, watermill.NewSlogLogger(log))
}

// NewRedisPublisher returns a Redis Streams publisher for injecting directive
// messages onto the stream, used by the send command.
func NewRedisPublisher(cfg config.RedisConfig, log *slog.Logger) (message.Publisher, error) {
	if cfg.Addr == "" {
		return nil, errors.New("channels.redis.addr is required")
	}
	if log == nil {
		log = slog.Default()
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})

	return redisstream.NewPublisher(redisstream.PublisherConfig{
		Client:     client,
		Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
	}, watermill.NewSlogLogger(log))
}
