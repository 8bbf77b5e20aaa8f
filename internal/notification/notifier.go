// Package notification delivers fire-and-forget provider notifications.
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Assignment carries what a provider needs to know about a lead they just
// received.
type Assignment struct {
	ProviderEmail string
	ProviderName  string
	LeadID        string
	NicheName     string
	PriceCharged  int64
}

// Notifier tells providers about new assignments. Failures are logged and
// swallowed; a notification must never affect the charge it follows.
type Notifier interface {
	AssignmentCreated(ctx context.Context, assignment Assignment)
}

type notifier struct {
	provider EmailProvider
	log      *zap.Logger
}

func NewNotifier(provider EmailProvider, log *zap.Logger) Notifier {
	return &notifier{
		provider: provider,
		log:      log.Named("notification"),
	}
}

func (n *notifier) AssignmentCreated(ctx context.Context, assignment Assignment) {
	if assignment.ProviderEmail == "" {
		return
	}
	subject := fmt.Sprintf("New lead in %s", assignment.NicheName)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>You received a new lead (ref %s). Your account was charged %d.</p>",
		assignment.ProviderName,
		assignment.LeadID,
		assignment.PriceCharged,
	)
	if err := n.provider.Send(ctx, []string{assignment.ProviderEmail}, subject, body); err != nil {
		n.log.Warn("assignment notification failed",
			zap.String("lead_id", assignment.LeadID),
			zap.String("provider_email", assignment.ProviderEmail),
			zap.Error(err),
		)
	}
}
