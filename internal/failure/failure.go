// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package failure defines the error kinds shared by the resolver, extractor,
// planner, coordinator, and adapters. Call sites branch on Kind instead of
// matching error strings.
package failure

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindExtraction
	KindResolution
	KindPlanning
	KindNetwork
	KindTimeout
	KindRegistry
	KindAdapter
)

func (k Kind) String() string {
	switch k {
	case KindExtraction:
		return "extraction"
	case KindResolution:
		return "resolution"
	case KindPlanning:
		return "planning"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindRegistry:
		return "registry"
	case KindAdapter:
		return "adapter"
	default:
		return "unknown"
	}
}

// ErrNoMatch reports that an identifier was looked up and matched no taxon.
// It is a confirmed absence, not a lookup failure.
var ErrNoMatch = &Error{Kind: KindResolution, Message: "no matching taxon"}

// Error is a classified failure. Op names the operation that failed
// (e.g. "namematch.search"); Message is safe to show a user.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String() + " failure"
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Kind and Message, so wrapped
// copies of ErrNoMatch still satisfy errors.Is(err, ErrNoMatch).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message && t.Op == "" && t.Err == nil
}

// New builds a classified error.
func New(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// NoMatch returns an ErrNoMatch-compatible error naming the identifier.
func NoMatch(op, identifier string) *Error {
	return &Error{Kind: KindResolution, Op: op, Message: ErrNoMatch.Message, Err: fmt.Errorf("identifier %q", identifier)}
}

// FromTransport classifies a transport-level error from an HTTP or LLM call.
// Deadline errors become KindTimeout; cancellation is returned unchanged so
// callers can propagate it; anything else becomes KindNetwork.
func FromTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return New(KindTimeout, op, "request timed out", err)
	}
	return New(KindNetwork, op, "request failed", err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage returns non-technical text for err, suitable for the reply.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindTimeout:
		return "The request timed out. Try a narrower query."
	case KindNetwork:
		return "The Atlas of Living Australia could not be reached. Please try again shortly."
	case KindRegistry:
		return "Internal error: a planned capability is not implemented."
	case KindExtraction:
		var fe *Error
		errors.As(err, &fe)
		if fe.Message != "" {
			return "I could not understand the query: " + fe.Message + "."
		}
		return "I could not understand the query."
	case KindResolution:
		return "I could not identify that species."
	default:
		return "Something went wrong while handling the request."
	}
}
