package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/packlane/groupbuy-backend/pkg/config"
	"github.com/packlane/groupbuy-backend/pkg/db/models"
	"github.com/packlane/groupbuy-backend/pkg/enums"
	"github.com/packlane/groupbuy-backend/pkg/logger"
	"github.com/packlane/groupbuy-backend/pkg/outbox"
	"github.com/packlane/groupbuy-backend/pkg/outbox/registry"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminal(id uuid.UUID, err error, terminalAttempts int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeRegistry struct {
	err error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var envelope outbox.PayloadEnvelope
	_ = json.Unmarshal(event.Payload, &envelope)
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType: event.EventType,
			Topic:     "domain-topic",
		},
		Envelope: envelope,
	}, nil
}

type fakePublishResult struct {
	err error
}

func (r fakePublishResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "msg-1", nil
}

type fakePublisher struct {
	err       error
	published []*gcppubsub.Message
}

func (p *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	p.published = append(p.published, msg)
	return fakePublishResult{err: p.err}
}

type fakePinger struct{}

func (fakePinger) Ping(context.Context) error { return nil }

type fakePubSub struct{}

func (fakePubSub) Ping(context.Context) error            { return nil }
func (fakePubSub) Publisher(string) *gcppubsub.Publisher { return nil }

func sampleEvent(t *testing.T) models.OutboxEvent {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{"group_order_id":"` + uuid.NewString() + `"}`),
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventGroupOrderCreated,
		AggregateType: enums.AggregateGroupOrder,
		AggregateID:   uuid.New(),
		Payload:       raw,
	}
}

func newTestService(t *testing.T, repo *fakeRepo, reg registryResolver, pub *fakePublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         fakePinger{},
		PubSub:     fakePubSub{},
		Repository: repo,
		Registry:   reg,
		PublisherFactory: func(topic string) publisher {
			return pub
		},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	event := sampleEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, &fakeRegistry{}, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.published))
	}
	msg := pub.published[0]
	if msg.Attributes["event_type"] != string(enums.EventGroupOrderCreated) {
		t.Fatalf("unexpected event_type attribute %q", msg.Attributes["event_type"])
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event marked published, got %v", repo.published)
	}
}

func TestProcessBatchMarksFailedOnRetryableError(t *testing.T) {
	event := sampleEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{err: errors.New("broker unavailable")}
	svc := newTestService(t, repo, &fakeRegistry{}, pub)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if len(repo.failed) != 1 || repo.failed[0] != event.ID {
		t.Fatalf("expected event marked failed, got %v", repo.failed)
	}
	if len(repo.terminal) != 0 {
		t.Fatalf("retryable errors must not park the event, got %v", repo.terminal)
	}
}

func TestProcessBatchParksNonRetryableError(t *testing.T) {
	event := sampleEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{err: registry.NewNonRetryableError(errors.New("payload rejected"))}
	svc := newTestService(t, repo, &fakeRegistry{}, pub)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected event parked, got %v", repo.terminal)
	}
}

func TestProcessBatchParksUnresolvableEvent(t *testing.T) {
	event := sampleEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	reg := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("unknown event type"))}
	svc := newTestService(t, repo, reg, &fakePublisher{})

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if len(repo.terminal) != 1 {
		t.Fatalf("expected unresolvable event parked, got %v", repo.terminal)
	}
}

func TestProcessBatchReportsIdle(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, &fakeRegistry{}, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
}
