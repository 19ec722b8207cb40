/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package params provides parameter extraction and error formatting for tool
// handlers shared by every model backend.
package params
