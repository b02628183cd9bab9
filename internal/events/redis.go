package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes JSON-encoded events on Redis pub/sub channels
// named after the topic.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher connects to the Redis server at url
// (e.g. "redis://localhost:6379/0") and verifies the connection.
func NewRedisPublisher(ctx context.Context, url string) (*RedisPublisher, error) {
	client, err := newRedisClient(ctx, url)
	if err != nil {
		return nil, err
	}
	return &RedisPublisher{client: client}, nil
}

func newRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return p.client.Publish(ctx, topic, data).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// RedisSubscriber receives events from Redis pub/sub channels.
type RedisSubscriber struct {
	client *redis.Client
}

// NewRedisSubscriber connects to the Redis server at url.
func NewRedisSubscriber(ctx context.Context, url string) (*RedisSubscriber, error) {
	client, err := newRedisClient(ctx, url)
	if err != nil {
		return nil, err
	}
	return &RedisSubscriber{client: client}, nil
}

// Subscribe follows topic. Glob patterns such as "kplan.*" subscribe by
// pattern.
func (s *RedisSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	ctx := context.Background()
	var ps *redis.PubSub
	if isPattern(topic) {
		ps = s.client.PSubscribe(ctx, topic)
	} else {
		ps = s.client.Subscribe(ctx, topic)
	}
	// Wait for the confirmation so events published right after Subscribe
	// returns are not lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	sn := newSubscription()
	done := make(chan struct{})
	sn.stop = func() {
		close(done)
		_ = ps.Close()
	}
	go func() {
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					sn.cancel()
					return
				}
				sn.deliver(Message{Topic: msg.Channel, Data: []byte(msg.Payload)})
			}
		}
	}()
	return sn.ch, sn.cancel, nil
}

func (s *RedisSubscriber) Close() error {
	return s.client.Close()
}

func isPattern(topic string) bool {
	for _, r := range topic {
		switch r {
		case '*', '?', '[':
			return true
		}
	}
	return false
}
