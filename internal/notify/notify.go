// Package notify delivers price drop notifications over one or more channels.
package notify

import (
	"context"
	stderrors "errors"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ticket-price-tracker/internal/types"
)

// Channel is a single delivery mechanism such as email or Telegram.
type Channel interface {
	Name() string
	Notify(ctx context.Context, n types.Notification) error
}

// Multi sends every notification to all of its channels.
type Multi struct {
	channels []Channel
}

// NewMulti fans out to channels in the given order.
func NewMulti(channels ...Channel) *Multi {
	return &Multi{channels: channels}
}

// Notify tries every channel even if an earlier one fails and returns the
// joined errors.
func (m *Multi) Notify(ctx context.Context, n types.Notification) error {
	var errs []error
	for _, c := range m.channels {
		if err := c.Notify(ctx, n); err != nil {
			errs = append(errs, errors.Wrapf(err, "%s channel", c.Name()))
			continue
		}
		log.WithFields(log.Fields{"channel": c.Name(), "id": n.ItemID}).Debug("Notification delivered")
	}
	return stderrors.Join(errs...)
}
