package mirror

import (
	"testing"
)

func TestRepository_Validate(t *testing.T) {
	tests := []struct {
		name    string
		repo    Repository
		wantErr bool
	}{
		{"valid", Repository{Name: "repo", FullName: "owner/repo", SourceURL: "git@h:owner/repo.git"}, false},
		{"valid-nested", Repository{Name: "repo", FullName: "org/team/repo", SourceURL: "https://h/org/team/repo.git"}, false},
		{"empty-full-name", Repository{Name: "repo", SourceURL: "git@h:owner/repo.git"}, true},
		{"abs-full-name", Repository{Name: "repo", FullName: "/owner/repo", SourceURL: "git@h:owner/repo.git"}, true},
		{"dot-dot", Repository{Name: "repo", FullName: "../repo", SourceURL: "git@h:owner/repo.git"}, true},
		{"dot-dot-middle", Repository{Name: "repo", FullName: "owner/../../repo", SourceURL: "git@h:owner/repo.git"}, true},
		{"dot", Repository{Name: "repo", FullName: "owner/./repo", SourceURL: "git@h:owner/repo.git"}, true},
		{"double-slash", Repository{Name: "repo", FullName: "owner//repo", SourceURL: "git@h:owner/repo.git"}, true},
		{"empty-name", Repository{FullName: "owner/repo", SourceURL: "git@h:owner/repo.git"}, true},
		{"name-with-slash", Repository{Name: "o/repo", FullName: "owner/repo", SourceURL: "git@h:owner/repo.git"}, true},
		{"empty-source", Repository{Name: "repo", FullName: "owner/repo"}, true},
		{"option-source", Repository{Name: "repo", FullName: "owner/repo", SourceURL: "--upload-pack=touch /tmp/x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.repo.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		name     string
		home     string
		fullName string
		want     string
		wantErr  bool
	}{
		{"valid", "/var/lib/lohr", "owner/repo", "/var/lib/lohr/owner/repo", false},
		{"clean", "/var/lib/lohr/", "owner/./repo", "/var/lib/lohr/owner/repo", false},
		{"relative-home", "lohr", "owner/repo", "", true},
		{"escape", "/var/lib/lohr", "../etc", "", true},
		{"escape-nested", "/var/lib/lohr", "owner/../../etc", "", true},
		{"home-itself", "/var/lib/lohr", "owner/..", "", true},
		{"empty", "/var/lib/lohr", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocalPath(tt.home, tt.fullName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LocalPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("LocalPath() got = %v, want %v", got, tt.want)
			}
		})
	}
}
