package identity

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
}

// Customer is the shop-side profile of a user. It starts inactive and is
// activated once, by e-mail verification.
type Customer struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	IsActive bool   `json:"is_active"`
	Phone    string `json:"phone"`
}

type RegistrationForm struct {
	Username        string `form:"username" json:"username" validate:"required,alphanum,min=3,max=150"`
	Email           string `form:"email" json:"email" validate:"required,email,max=254"`
	FirstName       string `form:"first_name" json:"first_name" validate:"required,max=150"`
	LastName        string `form:"last_name" json:"last_name" validate:"required,max=150"`
	Phone           string `form:"phone" json:"phone" validate:"required,max=20"`
	Password        string `form:"password" json:"-" validate:"required,min=8,max=72"`
	ConfirmPassword string `form:"confirm_password" json:"-" validate:"required,eqfield=Password"`
}

type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"-" validate:"required"`
}
