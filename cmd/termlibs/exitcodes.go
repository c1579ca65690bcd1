package main

import "os"

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitUnknownApp indicates the app is not in the registry
	ExitUnknownApp = 3

	// ExitReleaseNotFound indicates the release or tag was not found
	ExitReleaseNotFound = 4

	// ExitNetwork indicates the release source could not be reached
	ExitNetwork = 5

	// ExitNoMatch indicates the release has no asset for the target
	ExitNoMatch = 6
)

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
