package orders

import (
	"context"

	"github.com/rs/zerolog"
)

// Service is the back-office side of orders.
type Service struct {
	store    Store
	statuses StatusCache
	log      zerolog.Logger
}

// NewService builds the order service. statuses may be nil.
func NewService(store Store, statuses StatusCache, log zerolog.Logger) *Service {
	return &Service{store: store, statuses: statuses, log: log}
}

func (s *Service) CustomerOrders(ctx context.Context, customerID int64) ([]Order, error) {
	return s.store.CustomerOrders(ctx, customerID)
}

func (s *Service) Order(ctx context.Context, id int64) (*Order, error) {
	return s.store.Order(ctx, id)
}

// Status reads through the status cache.
func (s *Service) Status(ctx context.Context, id int64) (Status, error) {
	if s.statuses != nil {
		st, ok, err := s.statuses.Get(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Int64("order_id", id).Msg("order status cache read")
		} else if ok {
			return st, nil
		}
	}
	o, err := s.store.Order(ctx, id)
	if err != nil {
		return "", err
	}
	s.cache(ctx, o)
	return o.Status, nil
}

// AdvanceStatus moves an order forward. Moving backwards or sideways fails
// with ErrInvalidTransition.
func (s *Service) AdvanceStatus(ctx context.Context, id int64, to Status) (*Order, error) {
	o, err := s.store.Order(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, ErrInvalidTransition
	}
	if err := s.store.UpdateStatus(ctx, id, o.Status, to); err != nil {
		return nil, err
	}
	s.log.Info().Int64("order_id", id).Str("from", string(o.Status)).Str("to", string(to)).Msg("order status advanced")
	o.Status = to
	s.cache(ctx, o)
	return o, nil
}

func (s *Service) cache(ctx context.Context, o *Order) {
	if s.statuses == nil {
		return
	}
	if err := s.statuses.Put(ctx, o.ID, o.Status); err != nil {
		s.log.Warn().Err(err).Int64("order_id", o.ID).Msg("order status cache write")
	}
}
