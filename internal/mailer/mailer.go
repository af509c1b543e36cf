// Package mailer turns bookshop events into customer e-mails.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-bookshop/internal/events"
	kafkax "github.com/ariefcatur/go-bookshop/internal/kafka"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Deduper is satisfied by *redisx.Dedup.
type Deduper interface {
	First(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

type Service struct {
	Sender  Sender
	Dedup   Deduper
	BaseURL string
	Log     zerolog.Logger
}

// Handle is the consumer handler for both mailer topics. Each event is mailed
// at most once. A failed send clears the dedup mark and returns the error, so
// the consumer retries the same message before committing anything after it.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Error().Err(err).Int64("offset", m.Offset).Msg("drop malformed event")
		return nil
	}
	log := s.Log.With().Str("event_id", env.EventID).Str("event_type", env.EventType).Str("trace_id", env.TraceID).Logger()

	var build func(json.RawMessage) (Message, error)
	switch env.EventType {
	case events.EventCustomerRegistered:
		build = s.verificationMail
	case events.EventOrderPlaced:
		build = s.orderMail
	default:
		return nil
	}

	first, err := s.Dedup.First(ctx, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		log.Debug().Msg("duplicate event skipped")
		return nil
	}

	msg, err := build(env.Payload)
	if err != nil {
		log.Error().Err(err).Msg("drop undecodable payload")
		return nil
	}
	if err := s.Sender.Send(ctx, msg); err != nil {
		if ferr := s.Dedup.Forget(ctx, env.EventID); ferr != nil {
			log.Warn().Err(ferr).Msg("dedup forget")
		}
		return fmt.Errorf("send %s mail: %w", env.EventType, err)
	}
	log.Info().Str("to", msg.To).Msg("mail sent")
	return nil
}

// VerifyLink is the absolute activation URL for a registration.
func (s *Service) VerifyLink(uid, token string) string {
	return fmt.Sprintf("%s/verify_email/%s/%s", s.BaseURL, uid, token)
}

func (s *Service) verificationMail(raw json.RawMessage) (Message, error) {
	p, err := kafkax.UnwrapPayload[events.CustomerRegisteredPayload](raw)
	if err != nil {
		return Message{}, err
	}
	body := fmt.Sprintf("Hi %s,\n\nPlease follow the link below to activate your account:\n%s\n",
		p.FirstName, s.VerifyLink(p.UID, p.Token))
	return Message{To: p.Email, Subject: "Confirm your e-mail", Body: body}, nil
}

func (s *Service) orderMail(raw json.RawMessage) (Message, error) {
	p, err := kafkax.UnwrapPayload[events.OrderPlacedPayload](raw)
	if err != nil {
		return Message{}, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your order #%d.\n\n", p.FirstName, p.OrderID)
	for _, l := range p.Lines {
		fmt.Fprintf(&b, "%s x%d: %s\n", l.Title, l.Qty, l.FinalPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", p.FinalPrice.StringFixed(2))
	if p.BuyingType == "delivery" {
		b.WriteString("We will deliver it to the address you gave us.\n")
	} else {
		b.WriteString("You can pick it up in the shop once it is ready.\n")
	}
	return Message{To: p.Email, Subject: fmt.Sprintf("Order #%d", p.OrderID), Body: b.String()}, nil
}
