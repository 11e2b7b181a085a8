package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Delivery is one received message awaiting acknowledgement.
type Delivery struct {
	ID           string
	Body         string
	ReceiveCount int
	handle       string
}

// Receiver pulls deliveries from a queue backend. Deliveries that are not
// deleted become visible again and are redelivered.
type Receiver interface {
	Receive(ctx context.Context) ([]Delivery, error)
	Delete(ctx context.Context, d Delivery) error
}
