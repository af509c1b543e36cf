package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/ariefcatur/go-bookshop/internal/identity"
)

func (s *Store) CreateUser(ctx context.Context, u *identity.User) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("CreateUser"); err != nil {
		return err
	}
	for _, other := range s.t.users {
		if strings.EqualFold(other.Username, u.Username) {
			return identity.ErrUsernameTaken
		}
		if strings.EqualFold(other.Email, u.Email) {
			return identity.ErrEmailTaken
		}
	}
	u.ID = s.t.next("users")
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.t.users[u.ID] = *u
	return nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*identity.User, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	u, ok := s.t.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*identity.User, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	for _, u := range s.t.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (s *Store) ActivateUser(ctx context.Context, id int64) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("ActivateUser"); err != nil {
		return err
	}
	u, ok := s.t.users[id]
	if !ok {
		return identity.ErrUserNotFound
	}
	u.IsActive = true
	s.t.users[id] = u
	return nil
}

// SetStaff grants or revokes back-office access.
func (s *Store) SetStaff(id int64, staff bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.t.users[id]; ok {
		u.IsStaff = staff
		s.t.users[id] = u
	}
}

func (s *Store) CreateCustomer(ctx context.Context, c *identity.Customer) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("CreateCustomer"); err != nil {
		return err
	}
	c.ID = s.t.next("customers")
	s.t.customers[c.ID] = *c
	return nil
}

func (s *Store) CustomerByUserID(ctx context.Context, userID int64) (*identity.Customer, error) {
	s.rlock(ctx)
	defer s.runlock(ctx)
	for _, c := range s.t.customers {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, identity.ErrCustomerNotFound
}

func (s *Store) ActivateCustomer(ctx context.Context, id int64) error {
	s.wlock(ctx)
	defer s.wunlock(ctx)
	if err := s.fail("ActivateCustomer"); err != nil {
		return err
	}
	c, ok := s.t.customers[id]
	if !ok {
		return identity.ErrCustomerNotFound
	}
	c.IsActive = true
	s.t.customers[id] = c
	return nil
}
