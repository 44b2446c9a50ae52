package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/utilitywarehouse/lohr/auth"
	"github.com/utilitywarehouse/lohr/giturl"
	"github.com/utilitywarehouse/lohr/settings"
)

const loadCredsScript = `#!/bin/sh

case "$1" in
  Username*) echo "$REPO_USERNAME" ;;
  Password*) echo "$REPO_PASSWORD" ;;
esac
`

// Credentials provides environment variables which configure git
// authentication for a given remote URL. with zero config no envs are
// returned and git is expected to be pre-authenticated.
// Credentials is owned by the worker and is not safe for concurrent use.
type Credentials struct {
	auth   settings.Auth
	dir    string // dir where askpass script is written
	tokens map[string]*auth.GithubAppToken
	log    *slog.Logger
}

// NewCredentials returns Credentials for the given auth config. dir must
// be writable, askpass script is created there when required.
func NewCredentials(a settings.Auth, dir string, log *slog.Logger) *Credentials {
	if log == nil {
		log = slog.Default()
	}
	return &Credentials{
		auth:   a,
		dir:    dir,
		tokens: make(map[string]*auth.GithubAppToken),
		log:    log,
	}
}

// Env returns envs required by git to authenticate against given remote
func (c *Credentials) Env(ctx context.Context, remote string) []string {
	if c == nil {
		return nil
	}

	transport := giturl.TransportOf(remote)

	if transport == giturl.TransportSSH {
		if c.auth.SSHKeyPath == "" {
			return nil
		}
		return []string{c.gitSSHCommand()}
	}

	// nothing to set for local and other remotes
	if transport != giturl.TransportHTTPS {
		return nil
	}

	var username, password string
	switch {
	// if username & password is set use that
	case c.auth.Username != "" && c.auth.Password != "":
		username = c.auth.Username
		password = c.auth.Password

	// if only password (token) is set use that
	case c.auth.Password != "":
		username = "-" // username is required
		password = c.auth.Password

	// if github app config is set use that token
	case c.auth.HasGithubApp():
		gitURL, err := giturl.ParseHTTPS(remote)
		if err != nil || gitURL.Host != "github.com" {
			return nil
		}
		token, err := c.githubAppToken(ctx, gitURL)
		if err != nil {
			c.log.Error("unable to get github app token", "remote", remote, "err", err)
			return nil
		}
		username = "-" // username is required
		password = token

	default:
		return nil
	}

	loadCredsScript, err := c.ensureCredsLoader()
	if err != nil {
		c.log.Error("unable to write load creds script file", "err", err)
		return nil
	}

	return []string{
		fmt.Sprintf(`GIT_ASKPASS=%s`, loadCredsScript),
		fmt.Sprintf(`REPO_USERNAME=%s`, username),
		fmt.Sprintf(`REPO_PASSWORD=%s`, password),
	}
}

func (c *Credentials) ensureCredsLoader() (string, error) {
	credsLoader := filepath.Join(c.dir, ".lohr-creds-loader.sh")

	_, err := os.Stat(credsLoader)
	switch {
	case os.IsNotExist(err):
		if err := os.WriteFile(credsLoader, []byte(loadCredsScript), 0750); err != nil {
			return "", err
		}
	case err != nil:
		return "", fmt.Errorf("unable to check if script file exits err:%w", err)
	}

	return credsLoader, nil
}

// gitSSHCommand returns the environment variable to be used for configuring
// git over ssh.
func (c *Credentials) gitSSHCommand() string {
	knownHostsOptions := "-o UserKnownHostsFile=/dev/null -o StrictHostKeyChecking=no"
	if c.auth.SSHKnownHostsPath != "" {
		knownHostsOptions = fmt.Sprintf("-o UserKnownHostsFile=%s", c.auth.SSHKnownHostsPath)
	}
	return fmt.Sprintf(`GIT_SSH_COMMAND=ssh -q -F none -o IdentitiesOnly=yes -o IdentityFile=%s %s`, c.auth.SSHKeyPath, knownHostsOptions)
}

func (c *Credentials) githubAppToken(ctx context.Context, gitURL *giturl.URL) (string, error) {
	// github matches repo name without `.git` for permission for token req
	key := gitURL.Owner + "/" + gitURL.Repo

	// return token if current token is valid for next 10 min
	if t, ok := c.tokens[key]; ok && t.ExpiresAt.After(time.Now().UTC().Add(10*time.Minute)) {
		return t.Token, nil
	}

	token, err := auth.GithubAppInstallationToken(ctx,
		c.auth.GithubAppID, c.auth.GithubAppInstallationID, c.auth.GithubAppPrivateKeyPath,
		auth.PushPermissions(gitURL.Repo))
	if err != nil {
		return "", err
	}

	c.tokens[key] = token
	c.log.Debug("new github app access token created", "repo", key)

	return token.Token, nil
}
