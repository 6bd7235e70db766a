package decision

import (
	"context"
	"errors"
	"fmt"

	"github.com/breeze-rmm/driverwatch/internal/notify"
)

// ErrNotify wraps failures to hand the prompt to the OS.
var ErrNotify = errors.New("show notification")

// Check decides and, for an Available decision only, shows the prompt.
func Check(ctx context.Context, e *Engine, n notify.Notifier) (Decision, error) {
	d, err := e.Decide(ctx)
	if err != nil {
		return Decision{}, err
	}

	prompt, ok := d.Notification()
	if !ok {
		return d, nil
	}
	if err := n.Show(ctx, prompt); err != nil {
		return d, fmt.Errorf("%w: %w", ErrNotify, err)
	}
	return d, nil
}
