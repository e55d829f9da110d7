package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// browserCommand returns the program and arguments that open url on goos.
// A non-empty $BROWSER wins on every platform.
func browserCommand(goos, browserEnv, url string) ([]string, error) {
	if fields := strings.Fields(browserEnv); len(fields) > 0 {
		return append(fields, url), nil
	}
	switch goos {
	case "darwin":
		return []string{"open", url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"xdg-open", url}, nil
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", url}, nil
	default:
		return nil, fmt.Errorf("%w: no browser launcher for %s", ErrUnsupportedPlatform, goos)
	}
}

// OpenBrowser starts the user's browser on url without waiting for it to exit.
func OpenBrowser(url string) error {
	argv, err := browserCommand(runtime.GOOS, os.Getenv("BROWSER"), url)
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
