// Package retry runs store operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config defines retry behavior with exponential backoff.
type Config struct {
	MaxRetries       int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	Multiplier       float64
	JitterFactor     float64 // 0.0-1.0, +/- fraction applied to each delay
	MaxSameErrorType int     // consecutive failures of one kind before giving up; 0 disables
}

// DefaultConfig suits the startup lexicon refresh: the store may still be
// coming up alongside the service.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:       5,
		InitialDelay:     250 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		Multiplier:       2.0,
		JitterFactor:     0.1,
		MaxSameErrorType: 5,
	}
}

func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

func (c *Config) next(delay time.Duration) time.Duration {
	delay = time.Duration(float64(delay) * c.Multiplier)
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// Do calls fn until it succeeds or MaxRetries is exhausted, returning the last error.
// Context cancellation during a wait returns ctx.Err().
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	return run(ctx, cfg, nil, func(error) bool { return true }, fn)
}

// DoIfRetryable behaves like Do but returns immediately on errors IsRetryable
// rejects, and gives up once MaxSameErrorType consecutive errors share a kind.
// Each retried failure is logged at WARN when logger is non-nil.
func DoIfRetryable(ctx context.Context, cfg *Config, logger *zap.Logger, fn func() error) error {
	return run(ctx, cfg, logger, IsRetryable, fn)
}

func run(ctx context.Context, cfg *Config, logger *zap.Logger, retryable func(error) bool, fn func() error) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	var lastKind string
	sameKind := 0
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}

		kind := classify(err)
		if kind == lastKind {
			sameKind++
			if cfg.MaxSameErrorType > 0 && sameKind >= cfg.MaxSameErrorType {
				return fmt.Errorf("repeated error (%d times, kind=%s): %w", sameKind, kind, err)
			}
		} else {
			sameKind = 1
			lastKind = kind
		}

		if attempt == cfg.MaxRetries {
			break
		}

		wait := applyJitter(delay, cfg.JitterFactor)
		if logger != nil {
			logger.Warn("Retrying after transient error",
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait),
				zap.String("kind", kind),
				zap.Error(err))
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			delay = cfg.next(delay)
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return lastErr
}

// IsRetryable reports whether err looks transient: a dropped or refused
// connection, a busy or locked database, or a timeout. Context cancellation is
// never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var r interface{ IsRetryable() bool }
	if errors.As(err, &r) {
		return r.IsRetryable()
	}

	return classify(err) != "unknown"
}

var errorKinds = []struct {
	kind     string
	patterns []string
}{
	{"connection", []string{"connection refused", "connection reset", "broken pipe", "no such host", "network is unreachable", "server closed the connection", "unexpected eof"}},
	{"timeout", []string{"timeout", "timed out", "deadline exceeded"}},
	{"busy", []string{"too many connections", "too many clients", "database is locked", "database is busy", "deadlock", "the database system is starting up", "temporary failure"}},
	{"unavailable", []string{"429", "502", "503", "504", "service unavailable", "too many requests", "rate limit"}},
}

// classify maps an error to a coarse kind used to detect repeated failures.
func classify(err error) string {
	msg := strings.ToLower(err.Error())
	for _, k := range errorKinds {
		for _, p := range k.patterns {
			if strings.Contains(msg, p) {
				return k.kind
			}
		}
	}
	return "unknown"
}
