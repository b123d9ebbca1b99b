package publish

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

func TestMetadataValidate(t *testing.T) {
	tests := []struct {
		name     string
		meta     Metadata
		wantCode kiinerrors.Code
	}{
		{
			name: "valid",
			meta: Metadata{Title: "Five tips", Privacy: "private"},
		},
		{
			name:     "blank title",
			meta:     Metadata{Title: "   ", Privacy: "private"},
			wantCode: kiinerrors.CodeInvalidInput,
		},
		{
			name:     "title too long",
			meta:     Metadata{Title: strings.Repeat("a", 101), Privacy: "private"},
			wantCode: kiinerrors.CodeInvalidInput,
		},
		{
			name:     "description too long",
			meta:     Metadata{Title: "ok", Description: strings.Repeat("d", 5001), Privacy: "public"},
			wantCode: kiinerrors.CodeInvalidInput,
		},
		{
			name:     "unknown privacy",
			meta:     Metadata{Title: "ok", Privacy: "secret"},
			wantCode: kiinerrors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !kiinerrors.HasCode(err, tt.wantCode) {
				t.Errorf("Validate() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestFillAppliesStandingSettings(t *testing.T) {
	u := New(config.PublishConfig{
		Privacy:    "unlisted",
		CategoryID: "22",
		Tags:       []string{"shorts", "tips"},
	}, nil)

	meta := u.fill(Metadata{Title: "t", Tags: []string{"communication", "shorts"}})
	if meta.Privacy != "unlisted" {
		t.Errorf("Privacy = %q, want unlisted", meta.Privacy)
	}
	if meta.CategoryID != "22" {
		t.Errorf("CategoryID = %q, want 22", meta.CategoryID)
	}
	want := []string{"communication", "shorts", "tips"}
	if len(meta.Tags) != len(want) {
		t.Fatalf("Tags = %v, want %v", meta.Tags, want)
	}
	for i := range want {
		if meta.Tags[i] != want[i] {
			t.Errorf("Tags[%d] = %q, want %q", i, meta.Tags[i], want[i])
		}
	}

	// explicit metadata wins over config
	meta = u.fill(Metadata{Title: "t", Privacy: "public", CategoryID: "27"})
	if meta.Privacy != "public" || meta.CategoryID != "27" {
		t.Errorf("fill overwrote explicit values: privacy %q category %q", meta.Privacy, meta.CategoryID)
	}
}

func TestMergeTagsSkipsBlanks(t *testing.T) {
	got := mergeTags([]string{" a ", "", "b"}, []string{"b", "c"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("mergeTags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mergeTags[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv(EnvClientID, "id")
	t.Setenv(EnvClientSecret, "secret")
	t.Setenv(EnvRefreshToken, "token")

	creds, err := credentialsFromEnv()
	if err != nil {
		t.Fatalf("credentialsFromEnv() error = %v", err)
	}
	if creds.clientID != "id" || creds.clientSecret != "secret" || creds.refreshToken != "token" {
		t.Errorf("credentials = %+v", creds)
	}

	t.Setenv(EnvClientSecret, "")
	_, err = credentialsFromEnv()
	if !kiinerrors.HasCode(err, kiinerrors.CodeMissingConfig) {
		t.Fatalf("error = %v, want CodeMissingConfig", err)
	}
	if !strings.Contains(err.Error(), EnvClientSecret) {
		t.Errorf("error %q does not name the missing variable", err.Error())
	}
}

func TestUploadDisabled(t *testing.T) {
	u := New(config.PublishConfig{Enabled: false}, nil)
	_, _, err := u.Upload(context.Background(), "video.mp4", Metadata{Title: "t", Privacy: "private"})
	if !kiinerrors.HasCode(err, kiinerrors.CodeConfig) {
		t.Errorf("Upload() error = %v, want CodeConfig", err)
	}
}

func TestUploadMissingFile(t *testing.T) {
	t.Setenv(EnvClientID, "id")
	t.Setenv(EnvClientSecret, "secret")
	t.Setenv(EnvRefreshToken, "token")

	u := New(config.PublishConfig{Enabled: true, Privacy: "private", CategoryID: "22"}, nil)
	_, _, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"), Metadata{Title: "t"})
	if !kiinerrors.HasCode(err, kiinerrors.CodePublish) {
		t.Errorf("Upload() error = %v, want CodePublish", err)
	}
}

func TestBuildVideoMapsMetadata(t *testing.T) {
	video := buildVideo(Metadata{
		Title:       "Five tips",
		Description: "desc",
		Tags:        []string{"a", "b"},
		CategoryID:  "22",
		Privacy:     "unlisted",
	})
	if video.Snippet.Title != "Five tips" || video.Snippet.CategoryId != "22" {
		t.Errorf("snippet = %+v", video.Snippet)
	}
	if len(video.Snippet.Tags) != 2 {
		t.Errorf("tags = %v", video.Snippet.Tags)
	}
	if video.Status.PrivacyStatus != "unlisted" {
		t.Errorf("privacy = %q, want unlisted", video.Status.PrivacyStatus)
	}
}
