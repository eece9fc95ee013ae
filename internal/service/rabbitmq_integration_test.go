//go:build integration
// +build integration

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ad-tracker/youtube-digest-go/internal/config"
	"github.com/ad-tracker/youtube-digest-go/internal/models"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRabbitMQ(t *testing.T) (*config.RabbitMQConfig, func()) {
	ctx := context.Background()

	rabbitmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start rabbitmq container: %v", err)
	}

	host, err := rabbitmqContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get host: %v", err)
	}

	port, err := rabbitmqContainer.MappedPort(ctx, "5672/tcp")
	if err != nil {
		t.Fatalf("Failed to get port: %v", err)
	}

	cfg := &config.RabbitMQConfig{
		Enabled:    true,
		Host:       host,
		Port:       port.Int(),
		User:       "guest",
		Password:   "guest",
		Exchange:   "test.digests",
		Queue:      "test.digests.completed",
		RoutingKey: "digest.completed",
	}

	cleanup := func() {
		if err := rabbitmqContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return cfg, cleanup
}

func sampleEvent() *models.DigestCompletedEvent {
	return &models.DigestCompletedEvent{
		ID:          uuid.New(),
		RunID:       uuid.New(),
		ChannelURL:  "https://www.youtube.com/@Chan/videos",
		ChannelName: "Chan",
		Status:      models.DigestStatusCompleted,
		VideoIDs:    []string{"dQw4w9WgXcQ"},
		CompletedAt: time.Now().UTC(),
	}
}

func TestMessagePublisher_PublishDigestCompleted(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	time.Sleep(2 * time.Second)

	mp, err := NewMessagePublisher(cfg)
	if err != nil {
		t.Fatalf("NewMessagePublisher() error = %v", err)
	}
	defer mp.Close()

	event := sampleEvent()
	if err := mp.PublishDigestCompleted(context.Background(), event); err != nil {
		t.Fatalf("PublishDigestCompleted() error = %v", err)
	}

	conn, err := amqp.Dial(fmt.Sprintf("amqp://guest:guest@%s:%d/", cfg.Host, cfg.Port))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		t.Fatalf("Channel() error = %v", err)
	}

	msg, ok, err := ch.Get(cfg.Queue, true)
	if err != nil || !ok {
		t.Fatalf("Get() ok = %v, error = %v", ok, err)
	}

	var got models.DigestCompletedEvent
	if err := json.Unmarshal(msg.Body, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.RunID != event.RunID {
		t.Errorf("RunID = %v, want %v", got.RunID, event.RunID)
	}
	if msg.MessageId != event.ID.String() {
		t.Errorf("MessageId = %q, want %q", msg.MessageId, event.ID.String())
	}
}

func TestMessagePublisher_IsHealthy(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	time.Sleep(2 * time.Second)

	mp, err := NewMessagePublisher(cfg)
	if err != nil {
		t.Fatalf("NewMessagePublisher() error = %v", err)
	}

	if !mp.IsHealthy() {
		t.Error("IsHealthy() = false, want true")
	}

	if err := mp.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if mp.IsHealthy() {
		t.Error("IsHealthy() after Close() = true, want false")
	}
}

func TestMessagePublisher_ClosedConnection(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg, cleanup := setupTestRabbitMQ(t)
	defer cleanup()

	time.Sleep(2 * time.Second)

	mp, err := NewMessagePublisher(cfg)
	if err != nil {
		t.Fatalf("NewMessagePublisher() error = %v", err)
	}
	defer mp.Close()

	_ = mp.conn.Close()

	if err := mp.PublishDigestCompleted(context.Background(), sampleEvent()); err == nil {
		t.Error("PublishDigestCompleted() on closed connection error = nil, want error")
	}
}
