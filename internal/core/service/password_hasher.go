package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/agileflow/user-service/internal/api/metrics"
	"github.com/agileflow/user-service/internal/core/domain"
)

const (
	DefaultBcryptCost = 10
	maxPasswordBytes  = 72 // bcrypt limit
)

// Runner executes fn somewhere other than the calling goroutine and waits for
// it. queue.Dispatcher satisfies it.
type Runner interface {
	Run(ctx context.Context, fn func()) error
}

// BcryptHasher implements ports.PasswordHasher. When a Runner is set, bcrypt
// work is bounded by the runner's worker count.
type BcryptHasher struct {
	cost   int
	runner Runner
}

// NewBcryptHasher returns a hasher with the given cost. Costs outside bcrypt's
// range fall back to DefaultBcryptCost. runner may be nil to hash inline.
func NewBcryptHasher(cost int, runner Runner) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost, runner: runner}
}

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password exceeds %d bytes", domain.ErrValidation, maxPasswordBytes)
	}

	var (
		out     []byte
		hashErr error
	)
	err := h.run(ctx, "hash", func() {
		out, hashErr = bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	})
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if hashErr != nil {
		return "", fmt.Errorf("hash password: %w", hashErr)
	}
	return string(out), nil
}

func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	var match bool
	err := h.run(ctx, "verify", func() {
		match = bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
	})
	if err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}
	return match, nil
}

func (h *BcryptHasher) run(ctx context.Context, op string, fn func()) error {
	timed := func() {
		start := time.Now()
		fn()
		metrics.PasswordHashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
	if h.runner == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		timed()
		return nil
	}
	return h.runner.Run(ctx, timed)
}
