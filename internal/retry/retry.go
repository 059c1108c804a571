// Package retry waits for a backing service to answer a ping, backing off
// exponentially between attempts.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/logger"
)

// Policy defines connection retry behavior.
type Policy struct {
	ConnectTimeout time.Duration // Total time allowed for connection attempts (ex: 30s)
	RetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	MaxWait        time.Duration // max wait between retries (ex: 10s)
	PingTimeout    time.Duration // timeout for each ping attempt (ex: 2s)
	WarnThreshold  int           // warn after this many attempts
}

// Validate ensures all policy values are usable.
func (p Policy) Validate() error {
	if p.ConnectTimeout <= 0 {
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", p.ConnectTimeout)
	}
	if p.RetryInterval <= 0 {
		return fmt.Errorf("RetryInterval must be > 0, got %v", p.RetryInterval)
	}
	if p.MaxWait <= 0 {
		return fmt.Errorf("MaxWait must be > 0, got %v", p.MaxWait)
	}
	if p.PingTimeout <= 0 {
		return fmt.Errorf("PingTimeout must be > 0, got %v", p.PingTimeout)
	}
	if p.WarnThreshold < 0 {
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", p.WarnThreshold)
	}
	return nil
}

// PingFunc is one connection attempt.
type PingFunc func(ctx context.Context) error

// Target names what is being connected to, for logs and errors.
type Target struct {
	Service string // ex: "redis", "postgres"
	Addr    string
}

// connectionLogger handles all connection logging.
type connectionLogger struct {
	logger logger.Logger
	target Target
}

func (cl *connectionLogger) logConnectionStart(timeout time.Duration) {
	cl.logger.Info("connecting to "+cl.target.Service,
		logger.String("addr", cl.target.Addr),
		logger.Duration("timeout", timeout))
}

func (cl *connectionLogger) logSuccess(attempts int, elapsed time.Duration) {
	if attempts > 1 {
		cl.logger.Warn("connected to "+cl.target.Service+" after retry",
			logger.String("addr", cl.target.Addr),
			logger.Int("attempts", attempts),
			logger.Duration("elapsed", elapsed))
	} else {
		cl.logger.Info("connected to "+cl.target.Service,
			logger.String("addr", cl.target.Addr))
	}
}

func (cl *connectionLogger) logTimeout(attempts int, timeout time.Duration, err error) {
	cl.logger.Error(cl.target.Service+" unavailable - failed to connect after timeout",
		logger.String("addr", cl.target.Addr),
		logger.Int("attempts", attempts),
		logger.Duration("timeout", timeout),
		logger.Error(err))
}

func (cl *connectionLogger) logRetry(attempt int, remaining, nextRetry time.Duration, warnThreshold int, err error) {
	switch {
	case remaining < 10*time.Second:
		cl.logger.Error(cl.target.Service+" still down - retrying but timeout approaching",
			logger.String("addr", cl.target.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("remaining", remaining),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	case attempt <= warnThreshold:
		cl.logger.Warn(cl.target.Service+" connection failed, retrying",
			logger.String("addr", cl.target.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	default:
		cl.logger.Error(cl.target.Service+" still unavailable - connection attempts failing",
			logger.String("addr", cl.target.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	}
}

// Connect calls ping until it succeeds or the policy's ConnectTimeout
// elapses, doubling the wait between attempts up to MaxWait.
func Connect(ctx context.Context, target Target, policy Policy, ping PingFunc, log logger.Logger) error {
	if err := policy.Validate(); err != nil {
		log.Error("invalid retry policy", logger.String("service", target.Service), logger.Error(err))
		return err
	}
	cl := &connectionLogger{logger: log, target: target}

	ctx, cancel := context.WithTimeout(ctx, policy.ConnectTimeout)
	defer cancel()

	cl.logConnectionStart(policy.ConnectTimeout)
	attempt := 0
	wait := policy.RetryInterval

	for {
		attempt++

		pingCtx, pingCancel := context.WithTimeout(ctx, policy.PingTimeout)
		err := ping(pingCtx)
		pingCancel()

		if err == nil {
			elapsed := policy.ConnectTimeout - timeLeft(ctx)
			cl.logSuccess(attempt, elapsed)
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			cl.logTimeout(attempt, policy.ConnectTimeout, err)
			return fmt.Errorf("%s unavailable at %s after %d attempts (timeout: %v): %w",
				target.Service, target.Addr, attempt, policy.ConnectTimeout, err)

		case <-timer.C:
			cl.logRetry(attempt, timeLeft(ctx), wait, policy.WarnThreshold, err)
			// Exponential backoff with cap
			wait *= 2
			if wait > policy.MaxWait {
				wait = policy.MaxWait
			}
		}
	}
}

// timeLeft returns the remaining time before context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
