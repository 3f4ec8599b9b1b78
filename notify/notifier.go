// Package notify delivers registration and results events to interested
// parties after a change has been committed.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/federation-registry/models"
)

// Notifier publishes committed events. Callers log failures and carry on:
// a lost notification never undoes a stored change.
type Notifier interface {
	Publish(ctx context.Context, event models.Event) error
}

// Multi fans one event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, event models.Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, models.Event) error { return nil }

// CategoryRoom names the hub room and redis list for a tournament category.
func CategoryRoom(categoryID int) string {
	return fmt.Sprintf("category:%d", categoryID)
}
