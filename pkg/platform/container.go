// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

// Container runtime constants.
const (
	// ContainerNone indicates no container environment detected.
	ContainerNone ContainerRuntime = ""
	// ContainerDocker indicates a Docker-created container.
	ContainerDocker ContainerRuntime = "docker"
	// ContainerPodman indicates a Podman-created container.
	ContainerPodman ContainerRuntime = "podman"
	// ContainerKubernetes indicates a pod managed by Kubernetes.
	ContainerKubernetes ContainerRuntime = "kubernetes"
)

// detectOnce caches the container detection result for the lifetime of the
// process. Detection is performed once on first access using real OS lookups.
//
// INVARIANT: detectContainerFrom MUST NOT panic. sync.OnceValue propagates a
// panic on every subsequent call, which would turn a single detection failure
// into a persistent crash condition.
// The container environment is immutable during process lifetime, making
// process-wide caching safe.
var detectOnce = sync.OnceValue(func() ContainerRuntime {
	return detectContainerFrom(os.Getenv, statFile)
})

// ContainerRuntime identifies the container runtime the process runs under,
// if any.
type ContainerRuntime string

// DetectContainer returns the container runtime the current process is
// running in. The result is cached after the first call.
//
// Detection methods:
//   - Kubernetes: KUBERNETES_SERVICE_HOST environment variable
//   - Podman: existence of /run/.containerenv
//   - Docker: existence of /.dockerenv
func DetectContainer() ContainerRuntime {
	return detectOnce()
}

// InContainer returns true if the current process is running inside a container.
func InContainer() bool {
	return DetectContainer() != ContainerNone
}

// detectContainerFrom performs container detection using the provided lookup
// functions. Accepting lookupEnv and statFile as parameters allows tests to
// inject custom behavior without mutating process-wide state.
func detectContainerFrom(lookupEnv func(string) string, statFile func(string) error) ContainerRuntime {
	// Kubernetes pods also carry the marker file of their underlying
	// runtime, so the service host variable is checked first.
	if lookupEnv("KUBERNETES_SERVICE_HOST") != "" {
		return ContainerKubernetes
	}

	// Podman writes /run/.containerenv for every container it creates.
	if err := statFile("/run/.containerenv"); err == nil {
		return ContainerPodman
	}

	// Docker creates /.dockerenv at container root.
	if err := statFile("/.dockerenv"); err == nil {
		return ContainerDocker
	}

	return ContainerNone
}

// statFile checks for the existence of a file at the given path.
// This is the production adapter for the statFile parameter of
// detectContainerFrom, wrapping os.Stat to match the func(string) error
// signature.
func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}
