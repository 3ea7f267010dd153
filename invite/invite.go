// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package invite

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"

	"github.com/danielhkuo/swivo/apperr"
)

// Alphabet has 32 symbols and leaves out 0/O and 1/I so codes survive
// being read aloud or typed from a screenshot.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	DefaultLength = 8
	MaxAttempts   = 5
)

// ErrCollision is returned by an allocation attempt when the code is
// already taken.
var ErrCollision = errors.New("invite code collision")

type Generator struct {
	length int
	rand   io.Reader
}

func NewGenerator(length int) *Generator {
	return NewGeneratorFrom(length, rand.Reader)
}

// NewGeneratorFrom draws symbols from r instead of crypto/rand.
func NewGeneratorFrom(length int, r io.Reader) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length, rand: r}
}

// Generate returns a fresh random code. Each symbol carries 5 bits, so
// the default length draws from 2^40 codes.
func (g *Generator) Generate() (string, error) {
	b := make([]byte, g.length)
	if _, err := io.ReadFull(g.rand, b); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}
	for i := range b {
		// 256 is a multiple of 32, so masking keeps the draw uniform.
		b[i] = Alphabet[b[i]&31]
	}
	return string(b), nil
}

// Valid reports whether code could have been produced by a Generator of
// any length.
func Valid(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !isSymbol(code[i]) {
			return false
		}
	}
	return true
}

func isSymbol(c byte) bool {
	for i := 0; i < len(Alphabet); i++ {
		if Alphabet[i] == c {
			return true
		}
	}
	return false
}

// Allocate draws codes and hands each to try until try succeeds. try must
// return ErrCollision when the code is already in use; any other error
// aborts immediately. After MaxAttempts collisions Allocate fails with
// apperr.ErrInviteSpaceExhausted.
func Allocate(ctx context.Context, g *Generator, try func(code string) error) (string, error) {
	var (
		code     string
		fatal    error
		attempts int
	)

	op := func() error {
		attempts++
		c, err := g.Generate()
		if err != nil {
			fatal = err
			return nil
		}
		err = try(c)
		if errors.Is(err, ErrCollision) {
			slog.Warn("invite code collision", "attempt", attempts)
			return err
		}
		if err != nil {
			fatal = err
			return nil
		}
		code = c
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, MaxAttempts-1), ctx)
	if err := backoff.Retry(op, b); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", apperr.Transient(ctxErr, "invite code allocation interrupted")
		}
		slog.Error("invite code space exhausted", "attempts", attempts)
		return "", errors.Wrapf(apperr.ErrInviteSpaceExhausted, "%d collisions", attempts)
	}
	if fatal != nil {
		return "", fatal
	}
	return code, nil
}
