// Package secval provides the secval-go toolkit version and version compatibility check.
package secval

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Version is the current release of secval-go.
const Version = "1.2.0"

var majorVersionAsserted bool

// RequireMajor crashes the process if the secval-go major version does not
// match the required version. Services must call this at the top of main()
// before using any other secval module.
func RequireMajor(required int) {
	majorVersionAsserted = true
	parts := strings.SplitN(Version, ".", 2)
	actual, _ := strconv.Atoi(parts[0])
	if actual != required {
		fmt.Fprintf(os.Stderr,
			"FATAL: Service requires secval v%d but v%s is installed.\n"+
				"Review the v%d migration guide and update your RequireMajor(%d) call.\n",
			required, Version, actual, actual)
		os.Exit(1)
	}
}

// AssertVersionChecked crashes if RequireMajor has not been called yet.
// Other secval modules call this at their entry points. The core jsonval
// package is exempt: it has no cross-module dependencies and stays usable
// from contexts that never touch the toolkit lifecycle.
func AssertVersionChecked() {
	if !majorVersionAsserted {
		fmt.Fprintf(os.Stderr,
			"FATAL: secval.RequireMajor() must be called before using any secval module.\n"+
				"Add secval.RequireMajor(1) to main() before any other secval calls.\n")
		os.Exit(1)
	}
}

// ResetVersionCheck is for testing only — resets the version assertion state.
func ResetVersionCheck() {
	majorVersionAsserted = false
}
