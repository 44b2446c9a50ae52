// Package settings holds the daemon wide configuration shared by the webhook
// handler and the mirror worker. Settings are loaded once at startup and
// must be treated as read-only afterwards.
package settings

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinJobTimeout is the shortest job timeout accepted when one is set
const MinJobTimeout = time.Second

// Settings is the global configuration of the mirror daemon.
// zero value is valid and results in no remotes and no blacklist.
type Settings struct {
	// DefaultRemotes is the list of remote stems to use when repository
	// doesn't have a `.lohr` control file
	DefaultRemotes []string `yaml:"default_remotes"`

	// AdditionalRemotes is the list of remote stems pushed to for every
	// repository, regardless of `.lohr` control file
	AdditionalRemotes []string `yaml:"additional_remotes"`

	// Blacklist is the list of regular expressions, if a repository's full
	// name matches any of them it is not mirrored
	Blacklist Blacklist `yaml:"blacklist"`

	// Auth config used for fetching sources and pushing to remotes.
	// by default git is expected to be pre-authenticated
	Auth Auth `yaml:"auth"`

	// JobTimeout is the total time allowed for a single mirror job.
	// 0 means jobs never time out
	JobTimeout time.Duration `yaml:"job_timeout"`
}

// Auth represents authentication config used by git commands
type Auth struct {
	// username to use for basic or token based authentication
	Username string `yaml:"username"`

	// password or personal access token to use for authentication
	Password string `yaml:"password"`

	// SSH Details
	// path to the ssh key used to fetch and push
	SSHKeyPath string `yaml:"ssh_key_path"`

	// path to the known hosts of the remote hosts
	SSHKnownHostsPath string `yaml:"ssh_known_hosts_path"`

	// Github APP Details
	// The application id or the client ID of the Github app
	GithubAppID string `yaml:"github_app_id"`
	// The installation id of the app (in the organization).
	GithubAppInstallationID string `yaml:"github_app_installation_id"`
	// path to the github app private key
	GithubAppPrivateKeyPath string `yaml:"github_app_private_key_path"`
}

// HasGithubApp returns true if github app credentials are configured
func (a Auth) HasGithubApp() bool {
	return a.GithubAppID != "" && a.GithubAppInstallationID != "" && a.GithubAppPrivateKeyPath != ""
}

// Blacklist is a list of compiled repository name patterns
type Blacklist []*regexp.Regexp

// CompileBlacklist compiles given patterns into Blacklist
func CompileBlacklist(patterns ...string) (Blacklist, error) {
	var bl Blacklist
	for _, p := range patterns {
		rgx, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid blacklist pattern %q: %w", p, err)
		}
		bl = append(bl, rgx)
	}
	return bl, nil
}

// UnmarshalYAML decodes list of pattern strings and compiles them
func (b *Blacklist) UnmarshalYAML(value *yaml.Node) error {
	var patterns []string
	if err := value.Decode(&patterns); err != nil {
		return err
	}
	bl, err := CompileBlacklist(patterns...)
	if err != nil {
		return err
	}
	*b = bl
	return nil
}

// Match reports whether given repository name matches any of the patterns.
// the first matching pattern is returned for logging.
func (b Blacklist) Match(name string) (string, bool) {
	for _, rgx := range b {
		if rgx.MatchString(name) {
			return rgx.String(), true
		}
	}
	return "", false
}

// Validate verifies settings
func (s *Settings) Validate() error {
	var errs []error

	for i, stem := range s.DefaultRemotes {
		if strings.TrimSpace(stem) == "" {
			errs = append(errs, fmt.Errorf("default_remotes[%d] cannot be empty", i))
		}
	}

	for i, stem := range s.AdditionalRemotes {
		if strings.TrimSpace(stem) == "" {
			errs = append(errs, fmt.Errorf("additional_remotes[%d] cannot be empty", i))
		}
	}

	if s.JobTimeout < 0 || (s.JobTimeout != 0 && s.JobTimeout < MinJobTimeout) {
		errs = append(errs, fmt.Errorf("provided job timeout is too short (%s), must be >= %s", s.JobTimeout, MinJobTimeout))
	}

	// if any of the github app config is set all should be set
	if s.Auth.GithubAppID != "" ||
		s.Auth.GithubAppInstallationID != "" ||
		s.Auth.GithubAppPrivateKeyPath != "" {
		if !s.Auth.HasGithubApp() {
			errs = append(errs, fmt.Errorf("all of the Github app attribute is required"))
		}
	}

	if s.Auth.SSHKnownHostsPath != "" && s.Auth.SSHKeyPath == "" {
		errs = append(errs, fmt.Errorf("ssh_known_hosts_path requires ssh_key_path"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", errs)
	}

	return nil
}
