package main

import (
	"context"
	"os/exec"
	"runtime"
)

// viewerCommand returns the platform command that shows path and does not
// return until the viewer is closed, where the platform allows it.
func viewerCommand(goos, path string) []string {
	switch goos {
	case "darwin":
		return []string{"open", "-W", path}
	case "windows":
		return []string{"cmd", "/c", "start", "/wait", "", path}
	default:
		return []string{"xdg-open", path}
	}
}

func openViewer(ctx context.Context, path string) error {
	argv := viewerCommand(runtime.GOOS, path)
	return exec.CommandContext(ctx, argv[0], argv[1:]...).Run()
}
