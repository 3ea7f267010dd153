// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package catalog reads categories and their candidate options.
package catalog

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/danielhkuo/swivo/apperr"
	"github.com/danielhkuo/swivo/models"
)

// Catalog is the read-only view of categories and their candidate options.
type Catalog interface {
	// CategoryOptionIDs returns the option ids of a category in deck order.
	// An unknown or empty category yields apperr.ErrNotFound.
	CategoryOptionIDs(ctx context.Context, categoryID string) ([]string, error)
	// Options returns the options with the given ids, in the same order.
	// Unknown ids are skipped.
	Options(ctx context.Context, ids []string) ([]models.Option, error)
	// OptionLabel returns the display label of one option.
	OptionLabel(ctx context.Context, optionID string) (string, error)
}

// SQLCatalog reads the category and option tables.
type SQLCatalog struct {
	db *sql.DB
}

func NewSQLCatalog(db *sql.DB) *SQLCatalog {
	return &SQLCatalog{db: db}
}

func (c *SQLCatalog) CategoryOptionIDs(ctx context.Context, categoryID string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id FROM option WHERE category_id = $1 ORDER BY label, id
	`, categoryID)
	if err != nil {
		return nil, apperr.Transient(err, "failed to query category options")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Transient(err, "failed to scan option id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient(err, "failed to iterate options")
	}
	if len(ids) == 0 {
		return nil, &apperr.Error{
			Kind:    apperr.KindNotFound,
			Code:    apperr.ErrNotFound.Code,
			Message: "Category not found or has no options",
			Err:     apperr.ErrNotFound,
		}
	}
	return ids, nil
}

func (c *SQLCatalog) Options(ctx context.Context, ids []string) ([]models.Option, error) {
	if len(ids) == 0 {
		return []models.Option{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, category_id, label, image_url
		FROM option
		WHERE id IN (`+strings.Join(placeholders, ", ")+`)
	`, args...)
	if err != nil {
		return nil, apperr.Transient(err, "failed to query options")
	}
	defer rows.Close()

	byID := make(map[string]models.Option, len(ids))
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.ID, &opt.CategoryID, &opt.Label, &opt.ImageURL); err != nil {
			return nil, apperr.Transient(err, "failed to scan option")
		}
		byID[opt.ID] = opt
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient(err, "failed to iterate options")
	}

	options := make([]models.Option, 0, len(ids))
	for i, id := range ids {
		opt, ok := byID[id]
		if !ok {
			continue
		}
		opt.OrderIndex = i
		options = append(options, opt)
	}
	return options, nil
}

func (c *SQLCatalog) OptionLabel(ctx context.Context, optionID string) (string, error) {
	var label string
	err := c.db.QueryRowContext(ctx, `SELECT label FROM option WHERE id = $1`, optionID).Scan(&label)
	if err == sql.ErrNoRows {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", apperr.Transient(err, "failed to query option label")
	}
	return label, nil
}
