package queue

import (
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrAlreadySettled is returned when a message is acked or nacked twice
var ErrAlreadySettled = errors.New("message already settled")

// Message pairs a decoded job with the delivery it arrived on. It can be settled once.
type Message struct {
	job      *Job
	delivery amqp.Delivery

	mu      sync.Mutex
	settled bool
}

var _ MessageInterface = (*Message)(nil)

func newMessage(job *Job, delivery amqp.Delivery) *Message {
	return &Message{job: job, delivery: delivery}
}

// Ack confirms the job is done
func (m *Message) Ack() error {
	return m.settle(func() error { return m.delivery.Ack(false) })
}

// Nack rejects the job; without requeue the broker dead-letters it
func (m *Message) Nack(requeue bool) error {
	return m.settle(func() error { return m.delivery.Nack(false, requeue) })
}

// GetJob returns the decoded job
func (m *Message) GetJob() *Job {
	return m.job
}

// Redelivered reports whether the broker delivered this message before
func (m *Message) Redelivered() bool {
	return m.delivery.Redelivered
}

func (m *Message) settle(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled {
		return ErrAlreadySettled
	}
	if err := fn(); err != nil {
		return err
	}
	m.settled = true
	return nil
}
