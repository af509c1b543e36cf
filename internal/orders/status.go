package orders

import "fmt"

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "is_ready"
	StatusCompleted  Status = "completed"
)

// Status only moves forward; back office may skip steps (a pickup order can
// go straight from is_ready to completed, or new to completed).
var validNext = map[Status]map[Status]bool{
	StatusNew:        {StatusInProgress: true, StatusReady: true, StatusCompleted: true},
	StatusInProgress: {StatusReady: true, StatusCompleted: true},
	StatusReady:      {StatusCompleted: true},
	StatusCompleted:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := validNext[st]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

type BuyingType string

const (
	BuyingSelf     BuyingType = "self"
	BuyingDelivery BuyingType = "delivery"
)
