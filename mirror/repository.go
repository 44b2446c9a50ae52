package mirror

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Repository is the canonical record of a repository received via webhook
type Repository struct {
	// Name is the leaf name of the repository ie "repo"
	Name string
	// FullName is the unique qualified name ie "owner/repo". it determines
	// location of the mirror on disk.
	FullName string
	// SourceURL is the URL the mirror is cloned and updated from
	SourceURL string
}

// Validate verifies repository record is usable for mirroring
func (r Repository) Validate() error {
	if r.FullName == "" {
		return fmt.Errorf("repository full name cannot be empty")
	}
	if filepath.IsAbs(r.FullName) || strings.HasPrefix(r.FullName, "/") {
		return fmt.Errorf("repository full name %q must be relative", r.FullName)
	}
	for _, segment := range strings.Split(r.FullName, "/") {
		switch segment {
		case "", ".", "..":
			return fmt.Errorf("repository full name %q contains invalid path segment", r.FullName)
		}
	}
	if r.Name == "" || strings.Contains(r.Name, "/") {
		return fmt.Errorf("repository name %q is invalid", r.Name)
	}
	if strings.TrimSpace(r.SourceURL) == "" {
		return fmt.Errorf("repository %s source url cannot be empty", r.FullName)
	}
	if strings.HasPrefix(r.SourceURL, "-") {
		return fmt.Errorf("repository %s source url %q is invalid", r.FullName, r.SourceURL)
	}
	return nil
}

// LocalPath returns path of the mirror of the given repository. home must
// be absolute and the returned path is guaranteed to be absolute and
// inside home.
func LocalPath(home, fullName string) (string, error) {
	if !filepath.IsAbs(home) {
		return "", fmt.Errorf("home dir '%s' must be absolute", home)
	}

	localPath := filepath.Join(home, fullName)
	if !filepath.IsAbs(localPath) {
		return "", fmt.Errorf("mirror path '%s' must be absolute", localPath)
	}

	rel, err := filepath.Rel(home, localPath)
	if err != nil {
		return "", fmt.Errorf("unable to verify mirror path '%s' err:%w", localPath, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("mirror path '%s' must be inside home dir '%s'", localPath, home)
	}

	return localPath, nil
}
