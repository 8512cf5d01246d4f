// Package events публикует события жизненного цикла назначений после фиксации транзакции.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Type - тип события, он же routing key
type Type string

const (
	AssignmentCreated    Type = "assignment.created"
	AssignmentActivated  Type = "assignment.activated"
	AssignmentTerminated Type = "assignment.terminated"
	AssignmentCompleted  Type = "assignment.completed"
	AssignmentCancelled  Type = "assignment.cancelled"
	TerminationScheduled Type = "assignment.termination_scheduled"
	ReassignmentCreated  Type = "reassignment.created"
	HistoryRolledBack    Type = "history.rolled_back"
	AttendanceRestored   Type = "attendance.restored"
)

// Event - сообщение, уходящее в брокер
type Event struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	OccurredAt   time.Time `json:"occurred_at"`
	AssignmentID int64     `json:"assignment_id,omitempty"`
	HistoryID    int64     `json:"history_id,omitempty"`
	Actor        string    `json:"actor,omitempty"`
}

// New заполняет идентификатор и время события
func New(t Type, assignmentID, historyID int64, actor string, at time.Time) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         t,
		OccurredAt:   at.UTC(),
		AssignmentID: assignmentID,
		HistoryID:    historyID,
		Actor:        actor,
	}
}

// Publisher отправляет события. Ошибка публикации не отменяет уже
// зафиксированное изменение, вызывающий только логирует её.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// NopPublisher используется, когда брокер не настроен
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }

// AMQPPublisher публикует события в topic exchange RabbitMQ
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	timeout  time.Duration
	mu       sync.Mutex
}

// NewAMQPPublisher подключается к брокеру и объявляет exchange
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open rabbitmq channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %q", exchange)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, timeout: 5 * time.Second}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, events ...Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return errors.Wrap(err, "marshal event")
		}

		pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err = p.ch.PublishWithContext(pubCtx, p.exchange, string(e.Type), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID,
			Timestamp:    e.OccurredAt,
			Type:         string(e.Type),
			Body:         body,
		})
		cancel()
		if err != nil {
			return errors.Wrapf(err, "publish %s", e.Type)
		}
	}
	return nil
}

// Close закрывает канал и соединение
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// Emit публикует события и логирует ошибку вместо возврата
func Emit(ctx context.Context, pub Publisher, log *zap.Logger, events ...Event) {
	if pub == nil || len(events) == 0 {
		return
	}
	if err := pub.Publish(ctx, events...); err != nil {
		log.Warn("failed to publish events", zap.Int("count", len(events)), zap.Error(err))
	}
}

// Recorder запоминает опубликованные события, используется в тестах
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, events...)
	return nil
}

// Types возвращает типы опубликованных событий по порядку
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// Events возвращает копию опубликованных событий
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
