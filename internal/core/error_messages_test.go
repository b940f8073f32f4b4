package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "wrapped source unavailable",
			err:         &LoadError{Selection: Selection{Year: 2024, Round: 1}, Err: fmt.Errorf("%w: open db/2024/data-2024-1.db", ErrSourceUnavailable)},
			wantCode:    "SRC001",
			wantMessage: "The dataset could not be opened",
		},
		{
			name:        "schema mismatch",
			err:         fmt.Errorf("%w: data.crank missing", ErrSchemaMismatch),
			wantCode:    "SRC002",
			wantMessage: "The dataset is missing expected columns",
		},
		{
			name:        "invalid selection",
			err:         Selection{Year: 2015, Round: 1}.Validate(),
			wantCode:    "SEL001",
			wantMessage: "That year and round are not published",
		},
		{
			name:        "not loaded",
			err:         ErrNotLoaded,
			wantCode:    "SEL002",
			wantMessage: "No dataset has been loaded yet",
		},
		{
			name:        "too many loads",
			err:         &LoadError{Err: ErrTooManyLoads},
			wantCode:    "LOAD001",
			wantMessage: "Another dataset is still loading",
		},
		{
			name:        "deadline",
			err:         context.DeadlineExceeded,
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "invalid rank range",
			err:         func() error { _, err := ParseRankRange("x:1", EmptyRange()); return err }(),
			wantCode:    "FLT002",
			wantMessage: "The rank range could not be read",
		},
		{
			name:        "invalid sort",
			err:         func() error { _, err := ParseSort("sideways"); return err }(),
			wantCode:    "FLT003",
			wantMessage: "Unknown sort order",
		},
		{
			name:        "bad request",
			err:         fmt.Errorf("bad request: body: unexpected EOF"),
			wantCode:    "REQ003",
			wantMessage: "The request could not be understood",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("SCHEMA MISMATCH in institutes"),
			wantCode:    "SRC002",
			wantMessage: "The dataset is missing expected columns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrStaleLoad)

	expected := "The dataset changed since this page was rendered (Code: SEL003). Reload the page and apply the filter again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrUnknownFacetValue, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
