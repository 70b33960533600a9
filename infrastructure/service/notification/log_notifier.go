package notification

import (
	"context"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

// LogNotifier stands in for SMTP in development. Codes are printed only when
// revealCodes is set.
type LogNotifier struct {
	log         logger.Logger
	revealCodes bool
}

var _ outbound.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log logger.Logger, revealCodes bool) *LogNotifier {
	return &LogNotifier{
		log:         log.WithFields(map[string]interface{}{"component": "log_notifier"}),
		revealCodes: revealCodes,
	}
}

func (n *LogNotifier) SendWelcome(ctx context.Context, msg outbound.WelcomeMessage) error {
	n.log.Info(ctx, "Welcome email", map[string]interface{}{
		"to":        msg.Email,
		"role":      msg.Role,
		"login_url": msg.LoginURL,
	})
	return nil
}

func (n *LogNotifier) SendLoginCode(ctx context.Context, msg outbound.LoginCodeMessage) error {
	fields := map[string]interface{}{
		"to":         msg.Email,
		"expires_in": msg.ExpiresIn.String(),
	}
	if n.revealCodes {
		fields["code"] = msg.Code
	}
	n.log.Info(ctx, "Login code email", fields)
	return nil
}
