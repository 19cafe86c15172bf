// Package events forwards activity records to RabbitMQ so other services can
// react to registrations, password resets and questionnaire submissions.
//
// Publishing is best-effort. Callers log a failed publish and carry on; the
// activity row in MariaDB stays the source of truth.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is the JSON body published for one activity record. The routing
// key is Kind, so consumers can bind to patterns such as "password_reset.*".
type Message struct {
	ID         int64          `json:"id"`
	Kind       string         `json:"kind"`
	UserID     string         `json:"userId"`
	SubjectID  string         `json:"subjectId,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Publisher sends messages to a broker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// NopPublisher drops every message. Used when AMQP_URL is empty.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Message) error { return nil }
func (NopPublisher) Close() error                          { return nil }

// AMQPPublisher publishes persistent JSON messages to a durable topic
// exchange over a single connection.
type AMQPPublisher struct {
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher dials url and declares the exchange. The declaration is
// idempotent, so every instance can run it on startup.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declaring exchange %q: %w", exchange, err)
	}

	return &AMQPPublisher{exchange: exchange, conn: conn, ch: ch}, nil
}

// Publish sends msg with Kind as the routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, msg Message) error {
	pub, err := encode(msg)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx,
		p.exchange, // exchange
		msg.Kind,   // routing key
		false,      // mandatory
		false,      // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publishing %s: %w", msg.Kind, err)
	}
	return nil
}

// Close shuts the channel and connection down.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.ch.Close()
	return p.conn.Close()
}

func encode(msg Message) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshaling event: %w", err)
	}
	ts := msg.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ts,
		Type:         msg.Kind,
		Body:         body,
	}, nil
}

// Activity kinds. The kind doubles as the AMQP routing key.
const (
	KindUserRegistered           = "user.registered"
	KindAdminCreated             = "admin.created"
	KindUsernameRegenerated      = "username.regenerated"
	KindPasswordResetRequested   = "password_reset.requested"
	KindPasswordResetCompleted   = "password_reset.completed"
	KindEmployeeCreated          = "employee.created"
	KindFolderCreated            = "folder.created"
	KindProcessCreated           = "process.created"
	KindDocumentStatusChanged    = "document.status_changed"
	KindPendingUserStatusChanged = "pending_user.status_changed"
	KindQuestionnaireSent        = "questionnaire.sent"
	KindQuestionnaireViewed      = "questionnaire.viewed"
	KindQuestionnaireSubmitted   = "questionnaire.submitted"
	KindMessageSent              = "message.sent"
)

// Recorder receives activity from the feature plugins. Recording never fails
// the caller's operation, so Record has no error result.
type Recorder interface {
	Record(ctx context.Context, userID, kind, subjectID string, details map[string]any)
}

// NopRecorder discards activity. Used in tests and by callers built
// without the events plugin.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, string, string, string, map[string]any) {}
