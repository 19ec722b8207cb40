/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package crew

import (
	"errors"
	"fmt"

	"chainguard.dev/srecrew/issuetracker"
)

// ErrInvalidRequest is wrapped by every Request validation fault.
var ErrInvalidRequest = errors.New("invalid request")

// Request identifies the issue to resolve.
type Request struct {
	// Repository is "owner/name".
	Repository string
	// IssueNumber is the issue to resolve; it must be positive.
	IssueNumber int
	// Guidance is optional operator advice added to every step.
	Guidance string
}

// Validate checks the request before any attempt is made.
func (r Request) Validate() error {
	if _, _, err := issuetracker.SplitRepository(r.Repository); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if r.IssueNumber < 1 {
		return fmt.Errorf("%w: issue number must be positive, got %d", ErrInvalidRequest, r.IssueNumber)
	}
	return nil
}
