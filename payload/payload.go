// Package payload converts webhook request bodies into mirror.Repository.
//
// Webhook senders have used different field names for the clone URL over
// time, each known body layout is a shape. Shapes are tried newest first and
// the first one which yields a source URL wins, so adding a shape doesn't
// affect the rest of the pipeline.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/utilitywarehouse/lohr/mirror"
)

var (
	ErrInvalidJSON  = errors.New("invalid json payload")
	ErrNoRepository = errors.New("payload doesn't contain repository")
	ErrNoSourceURL  = errors.New("payload doesn't contain repository source url")
)

// repository is the part of the body common to all shapes
type repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	SSHURL   string `json:"ssh_url"`
	CloneURL string `json:"clone_url"`
}

type webhook struct {
	Repository *repository `json:"repository"`
}

// shape is a known body layout, sourceURL returns empty string if the
// repository doesn't match it
type shape struct {
	version   string
	sourceURL func(r *repository) string
}

// shapes in order of preference
var shapes = []shape{
	{version: "v2", sourceURL: func(r *repository) string { return r.SSHURL }},
	{version: "v1", sourceURL: func(r *repository) string { return r.CloneURL }},
}

// Parse decodes body and returns validated repository record. unknown
// fields are ignored.
func Parse(body []byte) (mirror.Repository, error) {
	var hook webhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return mirror.Repository{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if hook.Repository == nil {
		return mirror.Repository{}, ErrNoRepository
	}

	repo, err := normalise(hook.Repository)
	if err != nil {
		return mirror.Repository{}, err
	}
	if err := repo.Validate(); err != nil {
		return mirror.Repository{}, err
	}
	return repo, nil
}

func normalise(r *repository) (mirror.Repository, error) {
	repo := mirror.Repository{
		Name:     strings.TrimSpace(r.Name),
		FullName: strings.TrimSpace(r.FullName),
	}
	if repo.FullName == "" {
		return mirror.Repository{}, fmt.Errorf("payload repository full_name cannot be empty")
	}
	if repo.Name == "" {
		repo.Name = repo.FullName[strings.LastIndex(repo.FullName, "/")+1:]
	}

	for _, s := range shapes {
		if u := strings.TrimSpace(s.sourceURL(r)); u != "" {
			repo.SourceURL = u
			return repo, nil
		}
	}
	return mirror.Repository{}, ErrNoSourceURL
}
