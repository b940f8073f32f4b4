package web

// This file contains shared utilities and helper functions used across handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/rankview/internal/core"
)

// MaxBodySize is the maximum accepted JSON request body (64KB).
const MaxBodySize = 64 * 1024

// decodeJSON decodes the request body into v, rejecting unknown fields,
// trailing data and oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseSelectionForm reads the year and round fields of a form post.
func parseSelectionForm(w http.ResponseWriter, r *http.Request) (core.Selection, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := r.ParseForm(); err != nil {
		return core.Selection{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	year, round := r.PostForm.Get("year"), r.PostForm.Get("round")
	if year == "" || round == "" {
		return core.Selection{}, fmt.Errorf("%w: year and round are required", errBadRequest)
	}
	return core.ParseSelection(year + "/" + round)
}
