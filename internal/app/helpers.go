package app

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// parseID parses a positive numeric id given on the command line.
func parseID(what, raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

// openURL opens a URL in the default browser.
func openURL(url string) error {
	var cmdName string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmdName = "open"
		args = []string{url}
	case "windows":
		cmdName = "cmd"
		args = []string{"/c", "start", "", url}
	default: // linux, freebsd, etc.
		cmdName = "xdg-open"
		args = []string{url}
	}

	c := exec.Command(cmdName, args...)
	if err := c.Start(); err != nil {
		return fmt.Errorf("opening %s with %q: %w", url, cmdName, err)
	}
	return nil
}
