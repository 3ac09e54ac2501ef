// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE validation utilities.
//
// The config package validates user configuration files against an embedded
// CUE schema; this package supplies the error formatting that turns raw CUE
// errors into user-facing messages with JSON-path locations, plus the file
// size guard applied before parsing.
package cueutil
