package shared

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// EnsureScheme prepends https:// when the URL has no scheme. Tidal's device
// flow hands back verification URIs like "link.tidal.com/XXXXX" that won't
// open without one.
func EnsureScheme(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

// OpenBrowser opens the default system browser to the given URL, adding a
// scheme if the URL lacks one. Supports macOS, Linux, and Windows.
func OpenBrowser(url string) error {
	url = EnsureScheme(url)

	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
