// SPDX-License-Identifier: MPL-2.0

package platform

// OS name constants for runtime.GOOS comparisons, used when picking the
// per-OS configuration directory.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)
