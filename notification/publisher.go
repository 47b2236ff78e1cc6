package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// Publisher pushes stored notifications to realtime consumers.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}

// Event is the JSON published for each stored notification. Field names
// follow the inbox API.
type Event struct {
	ID          string          `json:"id"`
	RecipientID string          `json:"studentId"`
	Type        Type            `json:"type"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	Read        bool            `json:"read"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func NewEvent(n Notification) (Event, error) {
	data, err := EncodePayload(n.Payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Type:        n.Type,
		Title:       n.Title,
		Message:     n.Message,
		Data:        data,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}, nil
}

func marshalEvent(n Notification) ([]byte, error) {
	ev, err := NewEvent(n)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("notification: marshal event: %w", err)
	}
	return raw, nil
}

// redisClient is the subset of *goredis.Client the publisher uses.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Close() error
}

// RedisPublisher publishes each notification on a per-recipient channel
// "<prefix>:<student id>".
type RedisPublisher struct {
	rdb    redisClient
	prefix string
}

// NewRedisPublisher dials addr and checks it answers PING.
func NewRedisPublisher(ctx context.Context, addr, prefix string) (*RedisPublisher, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("notification: redis address required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("notification: redis ping: %w", err)
	}
	return newRedisPublisher(rdb, prefix), nil
}

func newRedisPublisher(rdb redisClient, prefix string) *RedisPublisher {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "notifications"
	}
	return &RedisPublisher{rdb: rdb, prefix: prefix}
}

// Channel is the channel a student's notifications are published on.
func (p *RedisPublisher) Channel(studentID string) string {
	return p.prefix + ":" + studentID
}

func (p *RedisPublisher) Publish(ctx context.Context, n Notification) error {
	raw, err := marshalEvent(n)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, p.Channel(n.RecipientID), raw).Err(); err != nil {
		return fmt.Errorf("notification: redis publish: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each notification to a topic keyed by recipient, so
// one student's notifications stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("notification: kafka brokers required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("notification: kafka topic required")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, n Notification) error {
	raw, err := marshalEvent(n)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.RecipientID),
		Value: raw,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(n.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("notification: kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
