// Package core provides the filtered ranked dataset engine.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Error codes are grouped by category:
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source unavailable: The dataset file or database could not be opened
//	         Action: Pick a different year and round, or check the data directory
//	         Patterns: "source unavailable"
//
//	SRC002 - Schema mismatch: The dataset is missing expected columns
//	         Action: The dataset file is damaged or from an unsupported release
//	         Patterns: "schema mismatch"
//
//	SRC003 - Unknown driver: The configured source driver does not exist
//	         Action: Set SOURCE_DRIVER to one of the registered drivers
//	         Patterns: "unknown source driver"
//
// # Selection Errors (SEL001-SEL099)
//
//	SEL001 - Invalid selection: Year or round is not published
//	         Action: Pick a year between 2016 and 2024 and a round listed for it
//	         Patterns: "invalid selection"
//
//	SEL002 - Not loaded: No dataset has been loaded yet
//	         Action: Load a year and round first
//	         Patterns: "dataset not loaded"
//
//	SEL003 - Stale load: The dataset changed since the page was rendered
//	         Action: Reload the page and apply the filter again
//	         Patterns: "stale load"
//
// # Filter Errors (FLT001-FLT099)
//
//	FLT001 - Unknown facet value: The value does not occur in the loaded data
//	         Action: Refresh the facet list
//	         Patterns: "unknown facet value"
//
//	FLT002 - Invalid range: A rank range could not be parsed
//	         Action: Use <start>:<end> with whole numbers
//	         Patterns: "invalid rank range"
//
//	FLT003 - Invalid sort: The requested sort does not exist
//	         Action: Use opening-asc, opening-desc, closing-asc or closing-desc
//	         Patterns: "invalid sort"
//
// # Load Errors (LOAD001-LOAD099)
//
//	LOAD001 - System busy: Another load is still running
//	          Action: Wait a moment and try again
//	          Patterns: "too many loads"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check the application logs
// for the technical error.
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so more specific patterns come first.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (lowercase) to user messages.
// Order matters: the first matching pattern wins.
var errorPatterns = []errorPattern{
	// Source errors
	{
		pattern: "source unavailable",
		msg: UserMessage{
			Message: "The dataset could not be opened",
			Action:  "Pick a different year and round, or check the data directory",
			Code:    "SRC001",
		},
	},
	{
		pattern: "schema mismatch",
		msg: UserMessage{
			Message: "The dataset is missing expected columns",
			Action:  "The dataset file is damaged or from an unsupported release",
			Code:    "SRC002",
		},
	},
	{
		pattern: "unknown source driver",
		msg: UserMessage{
			Message: "The configured source driver does not exist",
			Action:  "Set SOURCE_DRIVER to one of the registered drivers",
			Code:    "SRC003",
		},
	},

	// Selection errors
	{
		pattern: "invalid selection",
		msg: UserMessage{
			Message: "That year and round are not published",
			Action:  "Pick a year between 2016 and 2024 and a round listed for it",
			Code:    "SEL001",
		},
	},
	{
		pattern: "dataset not loaded",
		msg: UserMessage{
			Message: "No dataset has been loaded yet",
			Action:  "Load a year and round first",
			Code:    "SEL002",
		},
	},
	{
		pattern: "stale load",
		msg: UserMessage{
			Message: "The dataset changed since this page was rendered",
			Action:  "Reload the page and apply the filter again",
			Code:    "SEL003",
		},
	},

	// Filter errors
	{
		pattern: "unknown facet value",
		msg: UserMessage{
			Message: "That value does not occur in the loaded data",
			Action:  "Refresh the facet list",
			Code:    "FLT001",
		},
	},
	{
		pattern: "invalid rank range",
		msg: UserMessage{
			Message: "The rank range could not be read",
			Action:  "Use <start>:<end> with whole numbers",
			Code:    "FLT002",
		},
	},
	{
		pattern: "invalid sort",
		msg: UserMessage{
			Message: "Unknown sort order",
			Action:  "Use opening-asc, opening-desc, closing-asc or closing-desc",
			Code:    "FLT003",
		},
	},

	// Load errors
	{
		pattern: "too many loads",
		msg: UserMessage{
			Message: "Another dataset is still loading",
			Action:  "Please wait a moment and try again",
			Code:    "LOAD001",
		},
	},

	// Request errors
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try again; large datasets can take a while to load",
			Code:    "REQ002",
		},
	},
	{
		pattern: "bad request",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the request body and query parameters",
			Code:    "REQ003",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError formats an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
