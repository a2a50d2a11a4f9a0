// Package robot holds the non-interactive surface of pi: JSON outputs for
// scripts and the terminal guard that keeps those outputs clean.
package robot

import (
	"os"
	"strings"
)

// init runs before Bubble Tea acquires the terminal.
//
// Lipgloss/Termenv background detection can emit OSC/DSR control sequences
// to stdout. Those are harmless in a real terminal but break JSON parsers
// reading robot output, so robot invocations set CI=1 early; Termenv skips
// TTY probing when CI is set.
func init() {
	if os.Getenv("CI") != "" {
		return
	}

	if !shouldSuppressTTYQueries(os.Args, os.Getenv("PI_ROBOT") == "1", os.Getenv("PI_TEST_MODE") != "") {
		return
	}

	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envRobot, envTest bool) bool {
	if envRobot || envTest {
		return true
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, "--robot-") || strings.HasPrefix(arg, "-robot-") {
			return true
		}
		switch arg {
		case "--version", "--help", "--check":
			return true
		}
	}

	return false
}
