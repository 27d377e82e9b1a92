package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseGameID parses a decimal game id in the range 0-255.
func ParseGameID(s string) (uint8, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid game id %q: must be a number between 0 and 255", s)
	}
	return uint8(n), nil
}
