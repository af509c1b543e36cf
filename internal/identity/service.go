package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-bookshop/internal/events"
	"github.com/ariefcatur/go-bookshop/internal/forms"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInactive            = errors.New("account is not verified")
	ErrInvalidVerification = errors.New("invalid or expired verification link")
)

type Store interface {
	// CreateUser fails with ErrUsernameTaken or ErrEmailTaken on duplicates.
	CreateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id int64) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
	ActivateUser(ctx context.Context, id int64) error
	CreateCustomer(ctx context.Context, c *Customer) error
	CustomerByUserID(ctx context.Context, userID int64) (*Customer, error)
	ActivateCustomer(ctx context.Context, id int64) error
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	store    Store
	tx       Transactor
	tokens   *Tokens
	pub      events.Publisher
	service  string
	hashCost int
	log      zerolog.Logger
}

func NewService(store Store, tx Transactor, tokens *Tokens, pub events.Publisher, service string, log zerolog.Logger) *Service {
	return &Service{store: store, tx: tx, tokens: tokens, pub: pub, service: service, hashCost: bcrypt.DefaultCost, log: log}
}

// Register creates an inactive user and customer and asks the mailer to send
// the verification link.
func (s *Service) Register(ctx context.Context, f RegistrationForm) (*User, *Customer, error) {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Phone = strings.TrimSpace(f.Phone)
	if err := forms.Validate(f); err != nil {
		return nil, nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), s.hashCost)
	if err != nil {
		return nil, nil, err
	}

	u := &User{
		Username:     f.Username,
		Email:        f.Email,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		PasswordHash: string(hash),
	}
	c := &Customer{Phone: f.Phone}
	var token string
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.CreateUser(ctx, u); err != nil {
			switch {
			case errors.Is(err, ErrUsernameTaken):
				return forms.FieldError("username", err.Error())
			case errors.Is(err, ErrEmailTaken):
				return forms.FieldError("email", err.Error())
			}
			return err
		}
		c.UserID = u.ID
		if err := s.store.CreateCustomer(ctx, c); err != nil {
			return err
		}
		token, err = s.tokens.Issue(u.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("customer registered")
	env := events.New(events.EventCustomerRegistered, s.service, strconv.FormatInt(u.ID, 10), events.TraceID(ctx), events.CustomerRegisteredPayload{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		UID:       EncodeUID(u.ID),
		Token:     token,
	})
	events.Emit(s.pub, events.PartitionKey(u.ID), env)
	return u, c, nil
}

// Verify activates the user and customer behind a verification link. Any
// broken, foreign or expired link yields ErrInvalidVerification. Verifying an
// already active account succeeds again.
func (s *Service) Verify(ctx context.Context, uidb64, token string) (*User, *Customer, error) {
	id, err := DecodeUID(uidb64)
	if err != nil {
		s.log.Debug().Err(err).Msg("verification rejected")
		return nil, nil, ErrInvalidVerification
	}
	u, err := s.store.UserByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil, ErrInvalidVerification
	}
	if err != nil {
		return nil, nil, err
	}
	if err := s.tokens.Check(u.ID, token); err != nil {
		s.log.Debug().Err(err).Int64("user_id", u.ID).Msg("verification rejected")
		return nil, nil, ErrInvalidVerification
	}

	var c *Customer
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.ActivateUser(ctx, u.ID); err != nil {
			return err
		}
		var err error
		if c, err = s.store.CustomerByUserID(ctx, u.ID); err != nil {
			return err
		}
		return s.store.ActivateCustomer(ctx, c.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	u.IsActive, c.IsActive = true, true
	s.log.Info().Int64("user_id", u.ID).Msg("customer verified")
	return u, c, nil
}

// Login checks the credentials and refuses customers that have not verified
// their e-mail yet.
func (s *Service) Login(ctx context.Context, f LoginForm) (*User, *Customer, error) {
	f.Username = strings.TrimSpace(f.Username)
	if err := forms.Validate(f); err != nil {
		return nil, nil, err
	}
	u, err := s.store.UserByUsername(ctx, f.Username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(f.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	c, err := s.store.CustomerByUserID(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	if !c.IsActive {
		return nil, nil, ErrInactive
	}
	return u, c, nil
}

func (s *Service) Account(ctx context.Context, userID int64) (*User, *Customer, error) {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.store.CustomerByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return u, c, nil
}
