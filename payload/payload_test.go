package payload

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/utilitywarehouse/lohr/mirror"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    mirror.Repository
		wantErr error
	}{
		{
			name: "v2",
			body: `{"repository":{"name":"repo","full_name":"owner/repo","ssh_url":"git@gitea.example.com:owner/repo.git","clone_url":"https://gitea.example.com/owner/repo.git"}}`,
			want: mirror.Repository{Name: "repo", FullName: "owner/repo", SourceURL: "git@gitea.example.com:owner/repo.git"},
		},
		{
			name: "v1",
			body: `{"repository":{"name":"repo","full_name":"owner/repo","clone_url":"https://gitea.example.com/owner/repo.git"}}`,
			want: mirror.Repository{Name: "repo", FullName: "owner/repo", SourceURL: "https://gitea.example.com/owner/repo.git"},
		},
		{
			name: "empty-v2-field-falls-back",
			body: `{"repository":{"full_name":"owner/repo","ssh_url":" ","clone_url":"https://gitea.example.com/owner/repo.git"}}`,
			want: mirror.Repository{Name: "repo", FullName: "owner/repo", SourceURL: "https://gitea.example.com/owner/repo.git"},
		},
		{
			name: "name-from-full-name",
			body: `{"repository":{"full_name":"org/team/repo","ssh_url":"git@gitea.example.com:org/team/repo.git"}}`,
			want: mirror.Repository{Name: "repo", FullName: "org/team/repo", SourceURL: "git@gitea.example.com:org/team/repo.git"},
		},
		{
			name: "unknown-fields-ignored",
			body: `{"ref":"refs/heads/main","pusher":{"login":"user"},"repository":{"id":1,"full_name":"owner/repo","ssh_url":"git@h:owner/repo.git","private":true}}`,
			want: mirror.Repository{Name: "repo", FullName: "owner/repo", SourceURL: "git@h:owner/repo.git"},
		},
		{
			name:    "invalid-json",
			body:    `{"repository":`,
			wantErr: ErrInvalidJSON,
		},
		{
			name:    "wrong-type",
			body:    `{"repository":{"full_name":1}}`,
			wantErr: ErrInvalidJSON,
		},
		{
			name:    "no-repository",
			body:    `{"ref":"refs/heads/main"}`,
			wantErr: ErrNoRepository,
		},
		{
			name:    "no-source-url",
			body:    `{"repository":{"full_name":"owner/repo"}}`,
			wantErr: ErrNoSourceURL,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_invalidRepository(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty-full-name", `{"repository":{"full_name":"","ssh_url":"git@h:owner/repo.git"}}`},
		{"escaping-full-name", `{"repository":{"full_name":"../../etc","ssh_url":"git@h:owner/repo.git"}}`},
		{"absolute-full-name", `{"repository":{"full_name":"/etc/repo","ssh_url":"git@h:owner/repo.git"}}`},
		{"trailing-slash", `{"repository":{"full_name":"owner/","ssh_url":"git@h:owner/repo.git"}}`},
		{"option-source-url", `{"repository":{"full_name":"owner/repo","ssh_url":"--upload-pack=id"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.body)); err == nil {
				t.Errorf("expected error for payload %s", tt.body)
			}
		})
	}
}
