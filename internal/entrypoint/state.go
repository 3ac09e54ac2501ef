// SPDX-License-Identifier: MPL-2.0

package entrypoint

const (
	// StateInit indicates the orchestrator has been created but not run.
	StateInit State = iota
	// StateDaemonStarting indicates the SSH daemon is being brought up.
	StateDaemonStarting
	// StateWorkloadRunning indicates the workload command is executing.
	StateWorkloadRunning
	// StateIdling indicates the workload finished and the process is held
	// alive waiting for a shutdown signal.
	StateIdling
	// StateTerminated indicates the bootstrap sequence completed (terminal state).
	StateTerminated
	// StateFailed indicates a fatal bootstrap error (terminal state).
	StateFailed
)

// State represents the lifecycle state of the bootstrap sequence.
type State int32

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateDaemonStarting:
		return "daemon-starting"
	case StateWorkloadRunning:
		return "workload-running"
	case StateIdling:
		return "idling"
	case StateTerminated:
		return "terminated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
