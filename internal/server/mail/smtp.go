package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPNotifier sends mail through an SMTP relay using go-mail.
type SMTPNotifier struct {
	client *gomail.Client
	from   string
}

// NewSMTPNotifier dials nothing up front; the connection is established per
// send. User and password may be empty for an unauthenticated relay (e.g. a
// local dev catcher).
func NewSMTPNotifier(host string, port int, user, password, from string) (*SMTPNotifier, error) {
	opts := []gomail.Option{gomail.WithPort(port)}
	if user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(user),
			gomail.WithPassword(password),
		)
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client init: %w", err)
	}

	return &SMTPNotifier{client: client, from: from}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
