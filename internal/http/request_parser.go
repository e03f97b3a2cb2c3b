// Package http provides the JSON view server.
//
// This file implements utilities for parsing and validating query parameters.

package http

import (
	"errors"
	"net/url"
	"unicode/utf8"

	"cruce/internal/core"
)

// maxNameLength bounds declarant names and suggestion queries, in runes.
const maxNameLength = 200

var ErrNameTooLong = errors.New("name too long")

// ParseName extracts a declarant name from the query. Blank is
// core.ErrEmptyName.
func ParseName(query url.Values, key string) (string, error) {
	name := sanitizeInput(query.Get(key))
	if name == "" {
		return "", core.ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// ParseSuggestQuery extracts the partial name typed so far. Overlong input is
// cut to maxNameLength runes.
func ParseSuggestQuery(query url.Values) string {
	q := sanitizeInput(query.Get("query"))
	if utf8.RuneCountInString(q) > maxNameLength {
		q = string([]rune(q)[:maxNameLength])
	}
	return q
}

// ParseSortKey reads sort_by. Blank defaults to amount.
func ParseSortKey(query url.Values) (core.SortKey, error) {
	return core.ParseSortKey(query.Get("sort_by"))
}
