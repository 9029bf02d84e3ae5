// Package notify delivers verification codes to users out of band.
//
// Delivery is best effort. Dispatcher runs every send on its own goroutine
// with its own deadline; callers never wait on it and never see its errors,
// since a user who misses a code can always request another.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"moneta/internal/logger"
)

// Sender delivers a single code to one address.
type Sender interface {
	Send(ctx context.Context, to, code string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, to, code string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, to, code string) error {
	return f(ctx, to, code)
}

// Dispatcher sends codes asynchronously through a Sender.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher wraps sender. Each send is abandoned after timeout.
func NewDispatcher(sender Sender, timeout time.Duration) *Dispatcher {
	return &Dispatcher{sender: sender, timeout: timeout}
}

// Dispatch schedules delivery of code to email and returns immediately.
func (d *Dispatcher) Dispatch(email, code string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.send(ctx, email, code); err != nil {
			logger.Named("notify").Warnw("verification code delivery failed",
				"to", email,
				"error", err,
			)
		}
	}()
}

func (d *Dispatcher) send(ctx context.Context, email, code string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panicked: %v", r)
		}
	}()
	return d.sender.Send(ctx, email, code)
}

// Wait blocks until every dispatched send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// LogSender writes the code to the application log instead of mailing it.
// Meant for local development.
type LogSender struct{}

// Send logs the code.
func (LogSender) Send(_ context.Context, to, code string) error {
	logger.Named("notify").Infow("verification code issued", "to", to, "code", code)
	return nil
}
