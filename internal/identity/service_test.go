package identity_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ariefcatur/go-bookshop/internal/events"
	"github.com/ariefcatur/go-bookshop/internal/forms"
	"github.com/ariefcatur/go-bookshop/internal/identity"
	kafkax "github.com/ariefcatur/go-bookshop/internal/kafka"
	"github.com/ariefcatur/go-bookshop/internal/memstore"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct{ values [][]byte }

func (p *published) Publish(_, value []byte, _ ...kafkago.Header) {
	p.values = append(p.values, value)
}

func newService(t *testing.T) (*identity.Service, *memstore.Store, *published) {
	t.Helper()
	st := memstore.New()
	pub := &published{}
	svc := identity.NewService(st, memstore.NewTx(st), identity.NewTokens("secret", time.Hour), pub, "bookshop", zerolog.Nop())
	return svc, st, pub
}

func registration() identity.RegistrationForm {
	return identity.RegistrationForm{
		Username:        "ann",
		Email:           " Ann@Example.com ",
		FirstName:       "Ann",
		LastName:        "Lee",
		Phone:           "+100200300",
		Password:        "correct horse",
		ConfirmPassword: "correct horse",
	}
}

// registered returns the verification link parts from the emitted event.
func registered(t *testing.T, pub *published) events.CustomerRegisteredPayload {
	t.Helper()
	require.NotEmpty(t, pub.values)
	var env events.Envelope
	require.NoError(t, json.Unmarshal(pub.values[len(pub.values)-1], &env))
	require.Equal(t, events.EventCustomerRegistered, env.EventType)
	p, err := kafkax.UnwrapPayload[events.CustomerRegisteredPayload](env.Payload)
	require.NoError(t, err)
	return p
}

func TestRegisterCreatesInactiveCustomer(t *testing.T) {
	ctx := context.Background()
	svc, st, pub := newService(t)

	u, c, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.False(t, c.IsActive)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	stored, err := st.CustomerByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, stored.ID)

	p := registered(t, pub)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, identity.EncodeUID(u.ID), p.UID)
	assert.NotEmpty(t, p.Token)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	_, _, err := svc.Register(ctx, registration())
	require.NoError(t, err)

	dup := registration()
	dup.Email = "other@example.com"
	_, _, err = svc.Register(ctx, dup)
	var verr *forms.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")

	dup = registration()
	dup.Username = "bob"
	_, _, err = svc.Register(ctx, dup)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Len(t, pub.values, 1)
}

func TestRegisterValidates(t *testing.T) {
	svc, _, pub := newService(t)
	f := registration()
	f.ConfirmPassword = "something else"
	f.Email = "not-an-email"
	_, _, err := svc.Register(context.Background(), f)
	var verr *forms.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "confirm_password")
	assert.Contains(t, verr.Fields, "email")
	assert.Empty(t, pub.values)
}

func TestVerifyActivatesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, st, pub := newService(t)
	u, _, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	p := registered(t, pub)

	for i := 0; i < 2; i++ {
		gotU, gotC, err := svc.Verify(ctx, p.UID, p.Token)
		require.NoError(t, err, "attempt %d", i)
		assert.True(t, gotU.IsActive)
		assert.True(t, gotC.IsActive)
	}

	stored, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	c, err := st.CustomerByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, c.IsActive)
}

func TestVerifyRejectsBadLinks(t *testing.T) {
	ctx := context.Background()
	svc, st, pub := newService(t)
	u, _, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	p := registered(t, pub)

	other := registration()
	other.Username, other.Email = "bob", "bob@example.com"
	bob, _, err := svc.Register(ctx, other)
	require.NoError(t, err)

	cases := map[string][2]string{
		"garbage uid":   {"%%%", p.Token},
		"unknown user":  {identity.EncodeUID(999), p.Token},
		"foreign token": {identity.EncodeUID(bob.ID), p.Token},
		"bad token":     {p.UID, "not-a-token"},
	}
	for name, c := range cases {
		_, _, err := svc.Verify(ctx, c[0], c[1])
		assert.ErrorIs(t, err, identity.ErrInvalidVerification, name)
	}

	stored, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	_, _, err := svc.Register(ctx, registration())
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, identity.LoginForm{Username: "ann", Password: "correct horse"})
	assert.ErrorIs(t, err, identity.ErrInactive)

	p := registered(t, pub)
	_, _, err = svc.Verify(ctx, p.UID, p.Token)
	require.NoError(t, err)

	u, c, err := svc.Login(ctx, identity.LoginForm{Username: " ann ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)
	assert.True(t, c.IsActive)

	_, _, err = svc.Login(ctx, identity.LoginForm{Username: "ann", Password: "wrong password"})
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, identity.LoginForm{Username: "nobody", Password: "correct horse"})
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, identity.LoginForm{})
	var verr *forms.ValidationError
	assert.ErrorAs(t, err, &verr)
}
