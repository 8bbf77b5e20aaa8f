package notification

import "context"

// EmailProvider delivers a rendered message. Implementations must be safe for
// concurrent use.
type EmailProvider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}
