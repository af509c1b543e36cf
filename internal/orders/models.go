package orders

import "time"

type Order struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customer_id"`
	CartID     int64      `json:"cart_id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Phone      string     `json:"phone"`
	Address    string     `json:"address"`
	BuyingType BuyingType `json:"buying_type"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Form is the checkout form as posted to /make-order/.
type Form struct {
	FirstName  string `form:"first_name" json:"first_name" validate:"required,max=255"`
	LastName   string `form:"last_name" json:"last_name" validate:"required,max=255"`
	Phone      string `form:"phone" json:"phone" validate:"required,max=20"`
	Address    string `form:"address" json:"address" validate:"required,max=1024"`
	BuyingType string `form:"buying_type" json:"buying_type" validate:"required,oneof=self delivery"`
}

// Buyer identifies who is checking out.
type Buyer struct {
	CustomerID int64
	Email      string
}
