package events

import (
	"encoding/json"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/go-bookshop/internal/kafka"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventCustomerRegistered = "CustomerRegistered"
)

const (
	TopicOrderPlaced        = "bookshop.order.placed"
	TopicCustomerRegistered = "bookshop.customer.registered"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderLine struct {
	BookID     int64           `json:"book_id"`
	Title      string          `json:"title"`
	Qty        int             `json:"qty"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

type OrderPlacedPayload struct {
	OrderID    int64           `json:"order_id"`
	CustomerID int64           `json:"customer_id"`
	CartID     int64           `json:"cart_id"`
	Email      string          `json:"email"`
	FirstName  string          `json:"first_name"`
	BuyingType string          `json:"buying_type"`
	Lines      []OrderLine     `json:"lines"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

// CustomerRegisteredPayload carries the verification link parts; the mailer
// joins them with its base URL.
type CustomerRegisteredPayload struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	UID       string `json:"uid"`
	Token     string `json:"token"`
}

// Publisher is satisfied by *kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// PartitionKey keeps all events of one aggregate on one partition.
func PartitionKey(id int64) []byte { return []byte(strconv.FormatInt(id, 10)) }

func New(eventType, producer, correlationID, traceID string, payload any) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
}

func Emit(p Publisher, key []byte, env Envelope) {
	p.Publish(key, kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}
