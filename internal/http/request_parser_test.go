package http

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"cruce/internal/core"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		want    string
		wantErr error
	}{
		{name: "trimmed", values: url.Values{"nombre": {"  Ana Pérez "}}, want: "Ana Pérez"},
		{name: "control characters removed", values: url.Values{"nombre": {"Ana\x00 Pérez"}}, want: "Ana Pérez"},
		{name: "missing", values: url.Values{}, wantErr: core.ErrEmptyName},
		{name: "blank", values: url.Values{"nombre": {"   "}}, wantErr: core.ErrEmptyName},
		{name: "too long", values: url.Values{"nombre": {strings.Repeat("ñ", 201)}}, wantErr: ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseName(tt.values, "nombre")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseName() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSuggestQuery(t *testing.T) {
	if got := ParseSuggestQuery(url.Values{"query": {" ma "}}); got != "ma" {
		t.Errorf("ParseSuggestQuery() = %q, want ma", got)
	}
	long := ParseSuggestQuery(url.Values{"query": {strings.Repeat("á", 300)}})
	if n := utf8.RuneCountInString(long); n != maxNameLength {
		t.Errorf("long query cut to %d runes", n)
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		raw     string
		want    core.SortKey
		wantErr bool
	}{
		{raw: "", want: core.SortByAmount},
		{raw: "monto", want: core.SortByAmount},
		{raw: "CONTRATOS", want: core.SortByCount},
		{raw: "fecha", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseSortKey(url.Values{"sort_by": {tt.raw}})
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortKey(%q) error = %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("ParseSortKey(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
