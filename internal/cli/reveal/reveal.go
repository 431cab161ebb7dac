// Package reveal opens final output files in the platform file manager.
// Pure side effect; failures are reported but never affect the run outcome.
package reveal

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Open reveals the directories containing the given paths, one file-manager
// window per distinct directory.
func Open(paths []string) error {
	seen := make(map[string]struct{})
	for _, p := range paths {
		dir := filepath.Dir(p)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		if err := openDir(dir); err != nil {
			return fmt.Errorf("cannot open %q in file manager: %w", dir, err)
		}
	}
	return nil
}

func openDir(dir string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", dir)
	case "windows":
		cmd = exec.Command("explorer", dir)
	default:
		cmd = exec.Command("xdg-open", dir)
	}
	return cmd.Start()
}
