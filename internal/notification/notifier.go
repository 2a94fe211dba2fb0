package notification

import (
	"context"
	"fmt"

	"storefront-be/internal/order"
)

// Notifier turns order and payment changes into customer emails.
type Notifier struct {
	mailer Mailer
}

func NewNotifier(mailer Mailer) *Notifier {
	if mailer == nil {
		mailer = NopMailer{}
	}
	return &Notifier{mailer: mailer}
}

func (n *Notifier) OrderPlaced(ctx context.Context, o *order.Order) error {
	return n.send(ctx, "order_placed", o)
}

// OrderStatusChanged mails only for statuses the customer cares about.
func (n *Notifier) OrderStatusChanged(ctx context.Context, o *order.Order) error {
	switch o.Status {
	case order.StatusShipped:
		return n.send(ctx, "order_shipped", o)
	case order.StatusDelivered:
		return n.send(ctx, "order_delivered", o)
	case order.StatusCancelled:
		return n.send(ctx, "order_cancelled", o)
	default:
		return nil
	}
}

func (n *Notifier) PaymentSucceeded(ctx context.Context, o *order.Order) error {
	return n.send(ctx, "payment_succeeded", o)
}

func (n *Notifier) PaymentFailed(ctx context.Context, o *order.Order) error {
	return n.send(ctx, "payment_failed", o)
}

func (n *Notifier) send(ctx context.Context, name string, o *order.Order) error {
	html, err := render(name, o)
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return n.mailer.Send(ctx, Message{
		To:      o.Customer.Email,
		Subject: fmt.Sprintf("%s #%s", subjects[name], o.ID.String()[:8]),
		HTML:    html,
	})
}
