package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	EventTypeRoomCreated      EventType = "room_created"
	EventTypeMemberJoined     EventType = "member_joined"
	EventTypeMemberLeft       EventType = "member_left"
	EventTypeSongAdded        EventType = "song_added"
	EventTypeSongRemoved      EventType = "song_removed"
	EventTypeVoteCast         EventType = "vote_cast"
	EventTypePlaybackAdvanced EventType = "playback_advanced"
	EventTypeTransportChanged EventType = "transport_changed"
)

type Event struct {
	Type      EventType       `json:"type"`
	RoomID    string          `json:"room_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Publisher{writer: writer}
}

func (p *Publisher) Publish(ctx context.Context, event *Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	messageJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(uuid.New().String()),
		Value: messageJSON,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
