package interfaces

import (
	"context"

	"github.com/hyperdocs/hyperdocs/internal/model"
)

// Notifier delivers a pipeline failure report to the site operators.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}
