// Package giturl tells which transport git will use for a remote so the
// matching credentials can be set.
package giturl

import (
	"fmt"
	"net/url"
	"strings"
)

// Transport is the way git connects to a remote
type Transport string

const (
	TransportSSH   Transport = "ssh"
	TransportHTTPS Transport = "https"
	// local paths, file:// and any other scheme git supports
	TransportOther Transport = "other"
)

// TransportOf returns transport of the remote the way git picks it.
//   - ssh://[user@]host.xz[:port]/path/to/repo.git
//   - [user@]host.xz:path/to/repo.git (scp-like, no slash before the colon)
//   - https://host.xz[:port]/path/to/repo.git
func TransportOf(remote string) Transport {
	remote = strings.TrimSpace(remote)

	if scheme, _, ok := strings.Cut(remote, "://"); ok {
		switch strings.ToLower(scheme) {
		case "ssh", "git+ssh", "ssh+git":
			return TransportSSH
		case "https":
			return TransportHTTPS
		}
		return TransportOther
	}

	colon := strings.Index(remote, ":")
	if colon <= 0 {
		return TransportOther
	}
	if slash := strings.Index(remote, "/"); slash >= 0 && slash < colon {
		return TransportOther
	}
	return TransportSSH
}

// URL is a parsed https remote
type URL struct {
	Host  string // lower case host without port
	Owner string // path to the repository, ie org or group/subgroup
	Repo  string // repository name without .git suffix
}

// ParseHTTPS parses https remote into host, owner and repository name.
func ParseHTTPS(remote string) (*URL, error) {
	u, err := url.Parse(strings.TrimSpace(remote))
	if err != nil {
		return nil, fmt.Errorf("unable to parse remote err:%w", err)
	}
	if u.Scheme != "https" {
		return nil, fmt.Errorf("remote scheme must be https got %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("remote host cannot be empty")
	}

	path := strings.Trim(u.Path, "/")
	slash := strings.LastIndex(path, "/")
	if slash <= 0 {
		return nil, fmt.Errorf("remote path must be <owner>/<repo> got %q", u.Path)
	}

	repo := strings.TrimSuffix(path[slash+1:], ".git")
	if repo == "" {
		return nil, fmt.Errorf("repo name is invalid")
	}

	return &URL{
		Host:  strings.ToLower(u.Hostname()),
		Owner: path[:slash],
		Repo:  repo,
	}, nil
}

// Redact replaces password of the URL's user info if present so that
// remote can be logged. URLs which can't be parsed are returned as is.
func Redact(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	return u.Redacted()
}
