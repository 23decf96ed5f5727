//go:build unix

package signals

import (
	"os"
	"syscall"
)

// ShutdownSignals returns the list of signals that stop the server.
// On Unix this includes SIGTERM (e.g. from an MCP client closing the
// process) and SIGHUP (the controlling terminal went away).
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
}
