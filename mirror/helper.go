package mirror

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/utilitywarehouse/lohr/internal/utils"
)

var gitExecutablePath string

func init() {
	gitExecutablePath = exec.Command("git").String()
}

// runGitCommand runs git command with given arguments on given CWD
func runGitCommand(ctx context.Context, log *slog.Logger, envs []string, cwd string, args ...string) (string, error) {
	return utils.RunCommand(ctx, log, envs, cwd, gitExecutablePath, args...)
}

// usesLFS returns true if .gitattributes at HEAD configures git-lfs filter
func usesLFS(ctx context.Context, log *slog.Logger, repoName, repoDir string) bool {
	content, found, err := readFileAtHead(ctx, log, repoName, repoDir, ".gitattributes")
	if err != nil {
		log.Debug("unable to read .gitattributes", "err", err)
		return false
	}
	return found && strings.Contains(content, "filter=lfs")
}
