package util

import (
	"os"

	"github.com/fatih/color"
)

// IsTTY reports whether stdout is a terminal. The picker and the download
// progress bar only run when it is.
func IsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// InitColor turns off colored status lines when --no-color is set or when
// vertexctl output is piped.
func InitColor(noColor bool) {
	if noColor || !IsTTY() {
		color.NoColor = true
	}
}
