// Package mail delivers transactional email for the credential flows:
// invitation magic links and password-reset links.
package mail

import (
	"context"
	"fmt"
	"net/url"
)

// Notifier sends one HTML email. Transport failures are wrapped into
// common.ErrNotificationFailed by the caller-facing services.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// InvitationBody builds the magic-link invitation email body. The token is
// embedded in a link to the frontend registration page.
func InvitationBody(baseURL, name, email, token string) string {
	link := fmt.Sprintf("%s/register?email=%s&token=%s",
		baseURL, url.QueryEscape(email), url.QueryEscape(token))
	return fmt.Sprintf(
		`<p>Hi %s,</p>
<p>You have been invited to join your coach's training platform. Click the link below to set up your account. The link is valid for 48 hours and can be used once.</p>
<p><a href="%s">Complete your registration</a></p>`,
		name, link)
}

// PasswordResetBody builds the password-reset email body.
func PasswordResetBody(baseURL, email, token string) string {
	link := fmt.Sprintf("%s/reset-password?email=%s&token=%s",
		baseURL, url.QueryEscape(email), url.QueryEscape(token))
	return fmt.Sprintf(
		`<p>We received a request to reset your password.</p>
<p><a href="%s">Choose a new password</a></p>
<p>The link expires in one hour. If you did not request this, you can ignore this message.</p>`,
		link)
}
