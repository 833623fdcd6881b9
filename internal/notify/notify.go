package notify

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Message is a single alert notification
type Message struct {
	Subject   string
	Body      string
	Recipient string
}

// Notifier delivers alert notifications through an external transport
type Notifier interface {
	Name() string
	Send(ctx context.Context, m Message) error
}

// Multi sends every message through all of its notifiers
type Multi []Notifier

func (m Multi) Name() string { return "multi" }

// Send delivers to each notifier in order. A failing notifier does not stop the others.
func (m Multi) Send(ctx context.Context, msg Message) error {
	var err error
	for _, n := range m {
		if sendErr := n.Send(ctx, msg); sendErr != nil {
			err = multierr.Append(err, errors.Wrap(sendErr, n.Name()))
		}
	}
	return err
}
