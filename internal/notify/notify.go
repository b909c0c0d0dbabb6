// Package notify sends operator notifications through shoutrrr service URLs.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/rs/zerolog"
)

// DefaultWait bounds how long Notify blocks before returning.
const DefaultWait = 5 * time.Second

// Sender abstracts message dispatch so callers can be tested without hitting
// real services.
type Sender interface {
	Send(url, message string) error
}

// ShoutrrrSender dispatches via the shoutrrr library.
type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

type Notifier struct {
	logger zerolog.Logger
	urls   []string
	sender Sender
	wait   time.Duration
}

// New returns a notifier for urls. With no urls every call is a no-op.
func New(logger zerolog.Logger, urls []string, sender Sender) *Notifier {
	if sender == nil {
		sender = ShoutrrrSender{}
	}
	return &Notifier{
		logger: logger.With().Str("component", "notify").Logger(),
		urls:   append([]string(nil), urls...),
		sender: sender,
		wait:   DefaultWait,
	}
}

func (n *Notifier) Enabled() bool { return n != nil && len(n.urls) > 0 }

// Notify sends message to every configured URL in parallel. It waits at most
// the notifier's wait time or until ctx ends; sends still in flight after that
// keep running and are only logged.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	if !n.Enabled() {
		return nil
	}
	done := make(chan error, 1)
	go func() {
		var (
			mu   sync.Mutex
			wg   sync.WaitGroup
			errs []error
		)
		for i, u := range n.urls {
			wg.Add(1)
			go func(i int, u string) {
				defer wg.Done()
				if err := n.sender.Send(u, message); err != nil {
					n.logger.Warn().Err(err).Int("target", i).Msg("notification failed")
					mu.Lock()
					errs = append(errs, fmt.Errorf("target %d: %w", i, err))
					mu.Unlock()
				}
			}(i, u)
		}
		wg.Wait()
		done <- errors.Join(errs...)
	}()

	timer := time.NewTimer(n.wait)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		n.logger.Warn().Dur("wait", n.wait).Msg("notification still pending")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
