// SPDX-License-Identifier: MPL-2.0

// Package serverbase provides the state machine and lifecycle plumbing shared
// by long-running server components: atomic state reads, CAS-protected
// transitions, WaitGroup tracking of background goroutines, and context-based
// cancellation. Concrete servers embed Base and drive the transitions from
// their Start and Stop methods.
package serverbase
