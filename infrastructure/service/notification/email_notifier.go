package notification

import (
	"context"

	"github.com/refferq/refferq/application/port/outbound"
)

// EmailNotifier renders templates and hands them to a Mailer.
type EmailNotifier struct {
	mailer Mailer
}

var _ outbound.Notifier = (*EmailNotifier)(nil)

func NewEmailNotifier(mailer Mailer) *EmailNotifier {
	return &EmailNotifier{mailer: mailer}
}

func (n *EmailNotifier) SendWelcome(ctx context.Context, msg outbound.WelcomeMessage) error {
	r, err := renderWelcome(msg)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, msg.Email, r.Subject, r.Body)
}

func (n *EmailNotifier) SendLoginCode(ctx context.Context, msg outbound.LoginCodeMessage) error {
	r, err := renderLoginCode(msg)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, msg.Email, r.Subject, r.Body)
}
