// Package version exposes the running build's identity for logging and the
// health endpoint.
package version

import "runtime/debug"

// AppName is the application name used in version strings and logging.
const AppName = "deepsearch"

// GitCommit is the short git commit hash (8 chars) from build info.
// Set to "dev" when build info is unavailable (e.g., `go test`, non-git builds).
var GitCommit = initGitCommit()

func initGitCommit() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 8 {
				return s.Value[:8]
			}
			return s.Value
		}
	}
	return "dev"
}

// Full returns "deepsearch/<commit>" for use in user-agent strings, logging, etc.
func Full() string {
	return AppName + "/" + GitCommit
}

// Info is the payload the health endpoint reports: the build identity
// alongside the runtime's actual checkpoint backend, so an operator
// querying a live instance can tell which storage it's durable against
// without cross-referencing deployment configuration.
type Info struct {
	Version           string `json:"version"`
	CheckpointBackend string `json:"checkpoint_backend"`
}

// Report builds the health-endpoint payload for the given checkpoint
// backend name ("postgres" or "memory").
func Report(checkpointBackend string) Info {
	return Info{Version: Full(), CheckpointBackend: checkpointBackend}
}
