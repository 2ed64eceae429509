package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/guttosm/fxpulse/internal/domain/models"
	"github.com/guttosm/fxpulse/internal/logger"
)

// RecordMessage is one persisted record on the wire.
type RecordMessage struct {
	Pair           string  `json:"pair"`
	LongPercent    string  `json:"long_percent"`
	ShortPercent   string  `json:"short_percent"`
	LongShare      *string `json:"long_share,omitempty"`
	ShortShare     *string `json:"short_share,omitempty"`
	LotsLong       string  `json:"lots_long"`
	LotsShort      string  `json:"lots_short"`
	PositionsLong  string  `json:"positions_long"`
	PositionsShort string  `json:"positions_short"`
}

// BatchMessage is the body of one published message: every record persisted by a run.
type BatchMessage struct {
	RunID     string          `json:"run_id"`
	Timestamp string          `json:"timestamp"`
	Records   []RecordMessage `json:"records"`
}

// channel is the subset of *amqp.Channel used by Publisher.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher fans persisted batches out on a RabbitMQ exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	mu       sync.Mutex
}

// Dial connects to url and declares a durable fanout exchange.
func Dial(url, exchange string) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if exchange == "" {
		return nil, errors.New("exchange name cannot be empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends one message carrying records.
func (p *Publisher) Publish(ctx context.Context, runID string, capturedAt time.Time, records []models.SentimentRecord) error {
	body, err := json.Marshal(NewBatchMessage(runID, capturedAt, records))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    runID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.exchange, err)
	}
	l := logger.With("broker")
	l.Debug().Str("run_id", runID).Int("records", len(records)).Str("exchange", p.exchange).Msg("batch published")
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	l := logger.With("broker")
	if err := p.ch.Close(); err != nil {
		l.Error().Err(err).Msg("close rabbitmq channel")
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			l.Error().Err(err).Msg("close rabbitmq connection")
		}
	}
}

// NewBatchMessage builds the wire form of a batch. Percent shares are included
// when the scraped text parses as a number.
func NewBatchMessage(runID string, capturedAt time.Time, records []models.SentimentRecord) BatchMessage {
	msg := BatchMessage{
		RunID:     runID,
		Timestamp: capturedAt.Format(models.TimestampLayout),
		Records:   make([]RecordMessage, 0, len(records)),
	}
	for _, r := range records {
		rm := RecordMessage{
			Pair:           string(r.Instrument),
			LongPercent:    r.LongPercent,
			ShortPercent:   r.ShortPercent,
			LotsLong:       r.LotsLong,
			LotsShort:      r.LotsShort,
			PositionsLong:  r.PositionsLong,
			PositionsShort: r.PositionsShort,
		}
		if d, err := models.ParsePercent(r.LongPercent); err == nil {
			s := d.String()
			rm.LongShare = &s
		}
		if d, err := models.ParsePercent(r.ShortPercent); err == nil {
			s := d.String()
			rm.ShortShare = &s
		}
		msg.Records = append(msg.Records, rm)
	}
	return msg
}
