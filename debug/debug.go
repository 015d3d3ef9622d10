// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go - cold-path diagnostics (zero-fmt)
//
// Purpose:
//   - Logs infrequent events: pool startup, capacity drops, attempt summaries.
//   - Terminates the process on unrecoverable worker failures after logging.
//
// Notes:
//   - Avoids fmt.Sprintf to minimize footprint and latency.
//   - One line per call, written straight to stderr.
//
// ⚠️ Never invoke in the search loop - use only in failure diagnostics.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import (
	"os"

	"cuckminer/utils"
)

// exit is swapped by tests so DropFatal can be observed without terminating.
var exit = os.Exit

// DropError logs "<prefix>: <error>", or just the prefix when err is nil.
//
//go:nosplit
//go:inline
//go:registerparams
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
		return
	}
	utils.PrintWarning(prefix + "\n")
}

// DropMessage logs "<prefix>: <message>".
// Used for cold-path diagnostics, pool state changes, and infrequent events.
//
//go:nosplit
//go:inline
//go:registerparams
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}

// DropFatal logs the failure and terminates the process with status 1.
// Reserved for corruption of shared compute state, where no partial
// result may be salvaged.
func DropFatal(prefix string, err error) {
	DropError("FATAL "+prefix, err)
	exit(1)
}
