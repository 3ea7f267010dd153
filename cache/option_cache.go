// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package cache holds Redis-backed read-through caches.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/swivo/catalog"
	"github.com/danielhkuo/swivo/models"
)

const DefaultTTL = 6 * time.Hour

// OptionCache is a read-through Redis cache for option labels in front of
// a catalog. Catalog data is immutable, so entries only expire to bound
// memory. Redis failures fall through to the catalog.
type OptionCache struct {
	client *redis.Client
	next   catalog.Catalog
	ttl    time.Duration
}

var _ catalog.Catalog = (*OptionCache)(nil)

// NewOptionCache wraps next with a label cache.
func NewOptionCache(client *redis.Client, next catalog.Catalog, ttl time.Duration) *OptionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &OptionCache{client: client, next: next, ttl: ttl}
}

func (c *OptionCache) key(optionID string) string {
	return fmt.Sprintf("option:%s:label", optionID)
}

func (c *OptionCache) OptionLabel(ctx context.Context, optionID string) (string, error) {
	label, err := c.client.Get(ctx, c.key(optionID)).Result()
	if err == nil {
		return label, nil
	}
	if err != redis.Nil {
		slog.Warn("option cache read failed", "option_id", optionID, "error", err)
	}

	label, err = c.next.OptionLabel(ctx, optionID)
	if err != nil {
		return "", err
	}
	if err := c.client.Set(ctx, c.key(optionID), label, c.ttl).Err(); err != nil {
		slog.Warn("option cache write failed", "option_id", optionID, "error", err)
	}
	return label, nil
}

func (c *OptionCache) CategoryOptionIDs(ctx context.Context, categoryID string) ([]string, error) {
	return c.next.CategoryOptionIDs(ctx, categoryID)
}

// Options reads through to the catalog and warms the label cache.
func (c *OptionCache) Options(ctx context.Context, ids []string) ([]models.Option, error) {
	options, err := c.next.Options(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return options, nil
	}

	pipe := c.client.Pipeline()
	for _, opt := range options {
		pipe.Set(ctx, c.key(opt.ID), opt.Label, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("option cache warm failed", "count", len(options), "error", err)
	}
	return options, nil
}

// Ping checks that Redis is reachable.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
