package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

// DomainEvent is what services hand to the outbox inside their own
// transaction. Data is marshalled into the envelope's data field.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

// Emitter is the surface domain services use to queue events.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event DomainEvent) error
}

type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit queues event in tx; it publishes only if tx commits.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	_, err := s.queue(ctx, tx, event, false)
	return err
}

// EmitIfNotExists is Emit for once-per-order events (order_created,
// order_paid, order_expired): a second event of the same type for the same
// aggregate is dropped by ux_outbox_events_event_aggregate.
func (s *Service) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	_, err := s.queue(ctx, tx, event, true)
	return err
}

func (s *Service) queue(ctx context.Context, tx *gorm.DB, event DomainEvent, once bool) (bool, error) {
	if tx == nil {
		return false, errors.New("outbox: transaction required")
	}
	if !event.EventType.IsValid() || !event.AggregateType.IsValid() {
		return false, fmt.Errorf("outbox: unknown event %q on aggregate %q", event.EventType, event.AggregateType)
	}
	row, envelope, err := s.encode(event)
	if err != nil {
		return false, err
	}

	queued := true
	if once {
		queued, err = s.repo.InsertOnce(tx, row)
	} else {
		err = s.repo.Insert(tx, row)
	}
	if err != nil {
		return false, fmt.Errorf("queue %s: %w", event.EventType, err)
	}

	if s.logg != nil {
		msg := "outbox event queued"
		if !queued {
			msg = "outbox event already queued"
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event_id":       envelope.EventID,
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID.String(),
		}), msg)
	}
	return queued, nil
}

func (s *Service) encode(event DomainEvent) (models.OutboxEvent, PayloadEnvelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("encode %s data: %w", event.EventType, err)
	}
	envelope := PayloadEnvelope{
		Version:    max(event.Version, 1),
		EventID:    uuid.NewString(),
		OccurredAt: event.OccurredAt,
		Actor:      event.Actor,
		Data:       data,
	}
	if envelope.OccurredAt.IsZero() {
		envelope.OccurredAt = s.now().UTC()
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("encode %s envelope: %w", event.EventType, err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}, envelope, nil
}
