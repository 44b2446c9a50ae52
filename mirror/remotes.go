package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utilitywarehouse/lohr/giturl"
	"github.com/utilitywarehouse/lohr/internal/utils"
	"github.com/utilitywarehouse/lohr/settings"
)

// ControlFile is the name of the file committed in the mirrored repository
// which lists push targets of the repository, one per line.
const ControlFile = ".lohr"

// ResolveRemotes returns ordered list of push targets for the mirror of
// repoName (full name) at localPath.
//  1. if `.lohr` at HEAD has any non blank lines those lines are the remotes
//  2. otherwise each of default remotes stems is expanded with repository name
//  3. additional remotes stems are expanded and appended in both cases
//
// duplicates are kept and empty list is valid.
func ResolveRemotes(ctx context.Context, log *slog.Logger, repoName, localPath string, s *settings.Settings) ([]string, error) {
	if log == nil {
		log = slog.Default()
	}
	if s == nil {
		s = &settings.Settings{}
	}

	_, name := utils.SplitAbs(localPath)

	content, found, err := readFileAtHead(ctx, log, repoName, localPath, ControlFile)
	if err != nil {
		return nil, &RemoteResolutionError{Path: localPath, Err: err}
	}

	var remotes []string
	if found {
		remotes = parseControlFile(content)
	}

	if len(remotes) > 0 {
		log.Debug("using remotes from control file", "file", ControlFile, "count", len(remotes))
	} else {
		for _, stem := range s.DefaultRemotes {
			remotes = append(remotes, expandStem(stem, name))
		}
	}

	for _, stem := range s.AdditionalRemotes {
		remotes = append(remotes, expandStem(stem, name))
	}

	for _, remote := range remotes {
		// remote is passed to git as an argument
		if strings.HasPrefix(remote, "-") {
			return nil, &RemoteResolutionError{Path: localPath, Err: fmt.Errorf("invalid remote %q", giturl.Redact(remote))}
		}
	}

	return remotes, nil
}

// parseControlFile returns non blank lines of the control file in order
func parseControlFile(content string) []string {
	var remotes []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		remotes = append(remotes, line)
	}
	return remotes
}

// expandStem appends repository name to the stem
func expandStem(stem, name string) string {
	if !strings.HasSuffix(stem, "/") {
		stem += "/"
	}
	return stem + name
}

// readFileAtHead returns content of the file committed at HEAD of the bare
// repository. found is false if the branch HEAD points to doesn't exist yet
// or file doesn't exist at HEAD.
func readFileAtHead(ctx context.Context, log *slog.Logger, repoName, repoDir, file string) (content string, found bool, err error) {
	unborn, err := isUnbornHead(ctx, log, repoName, repoDir)
	if err != nil {
		return "", false, err
	}
	if unborn {
		return "", false, nil
	}

	// git rev-parse --verify --quiet HEAD^{commit}
	// ref exists so it must resolve to a commit
	if _, err := runGitCommand(ctx, log, nil, repoDir, "rev-parse", "--verify", "--quiet", "HEAD^{commit}"); err != nil {
		return "", false, &ProcessError{Op: OpReadControlFile, Repo: repoName, Err: fmt.Errorf("HEAD does not resolve to a commit err:%v", err)}
	}

	// git ls-tree HEAD -- <file>
	out, err := runGitCommand(ctx, log, nil, repoDir, "ls-tree", "HEAD", "--", file)
	if err != nil {
		return "", false, &ProcessError{Op: OpReadControlFile, Repo: repoName, Err: err}
	}
	if out == "" {
		return "", false, nil
	}

	// <mode> SP <type> SP <object> TAB <file>
	fields := strings.Fields(out)
	if len(fields) < 4 {
		return "", false, fmt.Errorf("unable to parse ls-tree output:%q", out)
	}
	if fields[1] != "blob" {
		return "", false, fmt.Errorf("%s is a %s not a file", file, fields[1])
	}

	// git cat-file blob <object>
	content, err = runGitCommand(ctx, log, nil, repoDir, "cat-file", "blob", fields[2])
	if err != nil {
		return "", false, &ProcessError{Op: OpReadControlFile, Repo: repoName, Err: err}
	}
	return content, true, nil
}

// isUnbornHead returns true only if HEAD is a symbolic ref to a branch which
// doesn't exist, ie repository doesn't have any commits yet. A branch which
// exists but points to a missing object is not unborn.
func isUnbornHead(ctx context.Context, log *slog.Logger, repoName, repoDir string) (bool, error) {
	var cmdErr *utils.CommandError

	// git symbolic-ref -q HEAD
	ref, err := runGitCommand(ctx, log, nil, repoDir, "symbolic-ref", "-q", "HEAD")
	if err != nil {
		// exit code 1 means detached HEAD which always names an object
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
			return false, nil
		}
		return false, &ProcessError{Op: OpReadControlFile, Repo: repoName, Err: err}
	}

	// without peeling rev-parse only reads the ref, object is not looked up
	// git rev-parse --verify --quiet <ref>
	if _, err := runGitCommand(ctx, log, nil, repoDir, "rev-parse", "--verify", "--quiet", ref); err != nil {
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
			return true, nil
		}
		return false, &ProcessError{Op: OpReadControlFile, Repo: repoName, Err: err}
	}
	return false, nil
}
