// SPDX-License-Identifier: MPL-2.0

// Package platform provides runtime-environment detection utilities.
//
// This package contains helpers for identifying the execution environment,
// such as the operating system and whether the process is running inside a
// container (and under which container runtime).
package platform
