/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package issuetracker exposes the GitHub operations the crew needs as tools.
//
// Every operation answers with text and never returns an error: faults are
// reported as "Error fetching issue: ...", "Error creating PR: ..." or
// "Error posting comment: ..." so the model can read them and carry on.
package issuetracker
