package notify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"hiremate-backend/internal/shared/metrics"
	"hiremate-backend/internal/shared/telemetry"
)

const defaultTimeout = 10 * time.Second

// Contacts resolves a user id to an email address and display name.
type Contacts interface {
	Contact(ctx context.Context, userID string) (email, name string, err error)
}

// Dispatcher is the single place notifications leave the process. Every
// Notify call delivers at most one email and one event in the background.
type Dispatcher struct {
	Mailer      Mailer
	Sink        Sink
	Contacts    Contacts
	FrontendURL string
	Timeout     time.Duration

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Notify schedules delivery for a change and returns immediately. It is
// safe on a nil Dispatcher.
func (d *Dispatcher) Notify(ctx context.Context, c Change) {
	if d == nil || d.closed.Load() {
		return
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("notify.panic", map[string]any{
					"application_id": c.ApplicationID,
					"kind":           string(c.Kind),
					"error":          fmt.Sprint(rec),
				})
			}
		}()
		sendCtx, cancel := context.WithTimeout(base, timeout)
		defer cancel()
		d.deliver(sendCtx, c)
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, c Change) {
	var wg sync.WaitGroup
	if d.Mailer != nil && emailFor(c) != emailNone {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.sendEmail(ctx, c)
		}()
	}
	if d.Sink != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.publish(ctx, c)
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) sendEmail(ctx context.Context, c Change) {
	fields := map[string]any{
		"application_id": c.ApplicationID,
		"kind":           string(c.Kind),
		"to_status":      c.To,
	}
	if d.Contacts == nil {
		telemetry.Warn("notify.email.skipped", fields)
		return
	}
	addr, name, err := d.Contacts.Contact(ctx, c.CandidateID)
	if err != nil {
		fields["error"] = err
		telemetry.Warn("notify.email.no_contact", fields)
		metrics.IncNotificationFailed("email")
		return
	}
	msg, ok := composeEmail(c, addr, name, d.FrontendURL)
	if !ok {
		return
	}
	if err := d.Mailer.Send(ctx, msg); err != nil {
		fields["error"] = err
		telemetry.Error("notify.email.failed", fields)
		metrics.IncNotificationFailed("email")
		return
	}
	metrics.IncNotificationSent("email")
}

func (d *Dispatcher) publish(ctx context.Context, c Change) {
	ev := EventFor(c)
	if err := d.Sink.Publish(ctx, ev); err != nil {
		telemetry.Error("notify.event.failed", map[string]any{
			"application_id": c.ApplicationID,
			"event_type":     string(ev.Type),
			"sink":           d.Sink.Name(),
			"error":          err,
		})
		metrics.IncNotificationFailed(d.Sink.Name())
		return
	}
	metrics.IncNotificationSent(d.Sink.Name())
}

// Wait blocks until every scheduled delivery has finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// Close stops accepting work and waits for in-flight deliveries or ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	d.closed.Store(true)
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
