// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package invite

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danielhkuo/swivo/apperr"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantLen int
	}{
		{"default", 0, DefaultLength},
		{"short", 4, 4},
		{"long", 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := NewGenerator(tt.length).Generate()
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(code) != tt.wantLen {
				t.Errorf("Generate() length = %d, want %d", len(code), tt.wantLen)
			}
			if !Valid(code) {
				t.Errorf("Generate() produced invalid code %q", code)
			}
		})
	}
}

func TestGenerate_NoAmbiguousSymbols(t *testing.T) {
	g := NewGenerator(DefaultLength)
	for i := 0; i < 500; i++ {
		code, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if strings.ContainsAny(code, "01IO") {
			t.Fatalf("Generate() produced ambiguous code %q", code)
		}
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	g := NewGenerator(DefaultLength)
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		code, _ := g.Generate()
		if seen[code] {
			t.Fatalf("Generate() produced duplicate %q after %d codes (extremely unlikely)", code, i)
		}
		seen[code] = true
	}
}

func TestGenerate_MapsEveryByte(t *testing.T) {
	// Bytes 0..31 map onto the alphabet in order, 32..63 wrap around.
	src := make([]byte, 64)
	for i := range src {
		src[i] = byte(i)
	}
	g := NewGeneratorFrom(64, bytes.NewReader(src))

	code, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if code != Alphabet+Alphabet {
		t.Errorf("Generate() = %q, want alphabet twice", code)
	}
}

func TestGenerate_RandomFailure(t *testing.T) {
	g := NewGeneratorFrom(8, bytes.NewReader(nil))
	if _, err := g.Generate(); err == nil {
		t.Error("Generate() should fail when the random source is empty")
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ABCDEFGH", true},
		{"23456789", true},
		{"ZZZZ", true},
		{"", false},
		{"abcdefgh", false},
		{"ABCD0FGH", false},
		{"ABCDOFGH", false},
		{"ABCD1FGH", false},
		{"ABCDIFGH", false},
		{"ABCD-FGH", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := Valid(tt.code); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestAllocate(t *testing.T) {
	t.Run("first attempt succeeds", func(t *testing.T) {
		calls := 0
		code, err := Allocate(context.Background(), NewGenerator(DefaultLength), func(code string) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
		if !Valid(code) {
			t.Errorf("Allocate() returned invalid code %q", code)
		}
		if calls != 1 {
			t.Errorf("expected 1 attempt, got %d", calls)
		}
	})

	t.Run("retries collisions", func(t *testing.T) {
		var tried []string
		code, err := Allocate(context.Background(), NewGenerator(DefaultLength), func(code string) error {
			tried = append(tried, code)
			if len(tried) < 3 {
				return ErrCollision
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
		if len(tried) != 3 {
			t.Errorf("expected 3 attempts, got %d", len(tried))
		}
		if code != tried[2] {
			t.Errorf("Allocate() = %q, want the code of the successful attempt %q", code, tried[2])
		}
	})

	t.Run("exhausted after max attempts", func(t *testing.T) {
		calls := 0
		_, err := Allocate(context.Background(), NewGenerator(DefaultLength), func(code string) error {
			calls++
			return ErrCollision
		})
		if !errors.Is(err, apperr.ErrInviteSpaceExhausted) {
			t.Fatalf("Allocate() error = %v, want ErrInviteSpaceExhausted", err)
		}
		if apperr.KindOf(err) != apperr.KindExhausted {
			t.Errorf("expected KindExhausted, got %s", apperr.KindOf(err))
		}
		if calls != MaxAttempts {
			t.Errorf("expected %d attempts, got %d", MaxAttempts, calls)
		}
	})

	t.Run("other errors abort", func(t *testing.T) {
		boom := errors.New("insert failed")
		calls := 0
		_, err := Allocate(context.Background(), NewGenerator(DefaultLength), func(code string) error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("Allocate() error = %v, want %v", err, boom)
		}
		if calls != 1 {
			t.Errorf("expected 1 attempt, got %d", calls)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := Allocate(ctx, NewGenerator(DefaultLength), func(code string) error {
			calls++
			cancel()
			return ErrCollision
		})
		if !apperr.Retryable(err) {
			t.Errorf("expected a retryable error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 attempt, got %d", calls)
		}
	})
}
