package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/blackinsure/rainyday/internal/core/domain"
	"github.com/blackinsure/rainyday/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T, asyncProducer sarama.AsyncProducer) *EventPublisher {
	t.Helper()

	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "rainyday",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	return NewEventPublisher(producer, config.AppSettings{
		Name: "rainyday-api",
		Env:  "test",
	}, zaptest.NewLogger(t))
}

func TestPublishPolicyCreated(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	createdAt := time.Date(2018, 6, 1, 12, 0, 0, 0, time.UTC)
	event := domain.PolicyCreatedEvent{
		EventID:        "event-123",
		PolicyID:       "policy-456",
		PolicyHolderID: "holder-789",
		CoveredCity:    "Rotterdam",
		StartDate:      createdAt,
		EndDate:        time.Date(2018, 11, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:      createdAt,
	}

	if err := publisher.PublishPolicyCreated(context.Background(), event); err != nil {
		t.Fatalf("PublishPolicyCreated returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "rainyday.policy.created" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_id"]; got != event.EventID {
			t.Fatalf("unexpected event_id: %v", got)
		}

		if got := envelope["event_type"]; got != "policy.created" {
			t.Fatalf("unexpected event_type: %v", got)
		}

		if got := envelope["policy_holder_id"]; got != event.PolicyHolderID {
			t.Fatalf("unexpected policy_holder_id: %v", got)
		}

		if got := envelope["version"]; got != "1.0" {
			t.Fatalf("unexpected version: %v", got)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		if got := payload["policy_id"]; got != event.PolicyID {
			t.Fatalf("unexpected policy_id: %v", got)
		}

		if got := payload["covered_city"]; got != event.CoveredCity {
			t.Fatalf("unexpected covered_city: %v", got)
		}

		metadata, ok := envelope["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
		}

		if metadata["service"] != "rainyday-api" {
			t.Fatalf("unexpected metadata service: %v", metadata["service"])
		}

		if metadata["environment"] != "test" {
			t.Fatalf("unexpected metadata environment: %v", metadata["environment"])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishPayoutAddressBound(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	boundAt := time.Date(2018, 7, 15, 9, 30, 0, 0, time.UTC)
	event := domain.PayoutAddressBoundEvent{
		EventID:         "evt-001",
		PolicyID:        "policy-456",
		EthereumAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		BoundAt:         boundAt,
	}

	if err := publisher.PublishPayoutAddressBound(context.Background(), event); err != nil {
		t.Fatalf("PublishPayoutAddressBound returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "rainyday.policy.payout_address.bound" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		timestamp, ok := envelope["timestamp"].(string)
		if !ok {
			t.Fatalf("timestamp not a string: %T", envelope["timestamp"])
		}

		parsed, err := time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			t.Fatalf("failed to parse timestamp: %v", err)
		}
		if !parsed.Equal(boundAt) {
			t.Fatalf("unexpected timestamp: %s", timestamp)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		if got := payload["ethereum_address"]; got != event.EthereumAddress {
			t.Fatalf("unexpected ethereum_address: %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishGeneratesEventIDWhenMissing(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	event := domain.PolicyConfirmedEvent{
		PolicyID:       "policy-456",
		PolicyHolderID: "holder-789",
		ConfirmedAt:    time.Date(2018, 6, 2, 0, 0, 0, 0, time.UTC),
	}

	if err := publisher.PublishPolicyConfirmed(context.Background(), event); err != nil {
		t.Fatalf("PublishPolicyConfirmed returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		id, ok := envelope["event_id"].(string)
		if !ok || id == "" {
			t.Fatalf("expected generated event_id, got %v", envelope["event_id"])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}
