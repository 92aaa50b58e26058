package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Exposure describes how git sees a file holding a plaintext secret
type Exposure struct {
	IsRepo  bool
	Tracked bool // committed or staged, the worst case
	Ignored bool
}

// Risky reports whether the file could end up in a commit
func (e Exposure) Risky() bool {
	return e.IsRepo && (e.Tracked || !e.Ignored)
}

// Warning returns a user-facing warning, or an empty string when the file is safe
func (e Exposure) Warning(path string) string {
	switch {
	case !e.IsRepo:
		return ""
	case e.Tracked:
		return fmt.Sprintf("warning: %s is tracked by git, the secret may be committed", path)
	case !e.Ignored:
		return fmt.Sprintf("warning: %s is not in .gitignore", path)
	default:
		return ""
	}
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckExposure inspects a file that is about to receive a plaintext secret
func CheckExposure(workDir, path string) Exposure {
	if !IsGitRepo(workDir) {
		return Exposure{}
	}
	path = filepath.ToSlash(path)
	return Exposure{
		IsRepo:  true,
		Tracked: IsTracked(workDir, path),
		Ignored: IsIgnored(workDir, path),
	}
}
