package clients

import (
	"strings"
	"time"
)

// Client es un cliente del taller (sin login propio).
type Client struct {
	ID     string
	ShopID string

	FirstName string
	LastName  string
	Email     string
	Phone     string

	MailingAddress string
	Notes          string

	AcceptEmail bool
	AcceptSMS   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
