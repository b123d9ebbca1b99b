// Package publish uploads finished videos to YouTube through the Data
// API v3. Nothing in the pipeline publishes implicitly; only the
// publish command constructs an Uploader.
package publish

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/logging"
)

// Environment variables holding the OAuth2 refresh-token credentials.
// Credentials never live in the config file.
const (
	EnvClientID     = "KIIN_YT_CLIENT_ID"
	EnvClientSecret = "KIIN_YT_CLIENT_SECRET"
	EnvRefreshToken = "KIIN_YT_REFRESH_TOKEN"
)

// YouTube metadata limits: 100 characters of title, 5000 bytes of
// description.
const (
	maxTitleRunes       = 100
	maxDescriptionBytes = 5000
)

// Metadata describes one upload
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     string
}

// Validate checks the metadata against the API limits
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return kiinerrors.New("upload needs a title").
			WithCode(kiinerrors.CodeInvalidInput).
			WithDetail("field", "title")
	}
	if utf8.RuneCountInString(m.Title) > maxTitleRunes {
		return kiinerrors.New(fmt.Sprintf("title exceeds %d characters", maxTitleRunes)).
			WithCode(kiinerrors.CodeInvalidInput).
			WithDetail("length", utf8.RuneCountInString(m.Title))
	}
	if len(m.Description) > maxDescriptionBytes {
		return kiinerrors.New(fmt.Sprintf("description exceeds %d bytes", maxDescriptionBytes)).
			WithCode(kiinerrors.CodeInvalidInput).
			WithDetail("length", len(m.Description))
	}
	switch m.Privacy {
	case "private", "unlisted", "public":
		return nil
	default:
		return kiinerrors.New(fmt.Sprintf("unknown privacy status %q", m.Privacy)).
			WithCode(kiinerrors.CodeInvalidInput).
			WithDetail("privacy", m.Privacy)
	}
}

// Uploader uploads videos with the standing publish settings applied
type Uploader struct {
	cfg config.PublishConfig
	log *logging.Logger
}

// New creates an Uploader
func New(cfg config.PublishConfig, log *logging.Logger) *Uploader {
	if log == nil {
		log = logging.New().WithLevel(logging.LevelError)
	}
	return &Uploader{cfg: cfg, log: log.WithName("publish")}
}

// Upload sends one video file and returns the YouTube video id and
// watch URL. The insert is resumable, so large files survive transient
// connection drops. Failures carry CodePublish except for missing
// credentials (CodeMissingConfig) and bad metadata (CodeInvalidInput).
func (u *Uploader) Upload(ctx context.Context, file string, meta Metadata) (string, string, error) {
	if !u.cfg.Enabled {
		return "", "", kiinerrors.New("publishing is disabled, set publish.enabled in the config").
			WithCode(kiinerrors.CodeConfig)
	}

	meta = u.fill(meta)
	if err := meta.Validate(); err != nil {
		return "", "", err
	}

	f, err := os.Open(file)
	if err != nil {
		return "", "", kiinerrors.Wrap(err, "opening video file").
			WithCode(kiinerrors.CodePublish).
			WithDetail("file", file)
	}
	defer f.Close()

	creds, err := credentialsFromEnv()
	if err != nil {
		return "", "", err
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(creds.client(ctx)))
	if err != nil {
		return "", "", kiinerrors.Wrap(err, "building youtube service").
			WithCode(kiinerrors.CodePublish)
	}

	if info, err := f.Stat(); err == nil {
		u.log.Info("uploading video",
			logging.String("title", meta.Title),
			logging.String("privacy", meta.Privacy),
			logging.Float64("size_mb", float64(info.Size())/(1<<20)))
	}
	timer := u.log.StartTimer("upload")

	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, buildVideo(meta)).
		Media(f).
		Context(ctx).
		Do()
	if err != nil {
		timer.StopWithError(err)
		return "", "", kiinerrors.Wrap(err, "youtube upload failed").
			WithCode(kiinerrors.CodePublish).
			WithOperation("publish.upload").
			WithDetail("file", file)
	}

	url := fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id)
	timer.WithField("video_id", uploaded.Id).Stop()

	return uploaded.Id, url, nil
}

// fill applies the standing publish settings to unset metadata fields.
// Config tags follow the per-video ones.
func (u *Uploader) fill(meta Metadata) Metadata {
	if meta.Privacy == "" {
		meta.Privacy = u.cfg.Privacy
	}
	if meta.CategoryID == "" {
		meta.CategoryID = u.cfg.CategoryID
	}
	meta.Tags = mergeTags(meta.Tags, u.cfg.Tags)
	return meta
}

func mergeTags(own, standing []string) []string {
	out := make([]string, 0, len(own)+len(standing))
	seen := make(map[string]bool, len(own)+len(standing))
	for _, list := range [][]string{own, standing} {
		for _, tag := range list {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

func buildVideo(meta Metadata) *youtube.Video {
	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  meta.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: meta.Privacy,
		},
	}
}

type credentials struct {
	clientID     string
	clientSecret string
	refreshToken string
}

func credentialsFromEnv() (credentials, error) {
	creds := credentials{
		clientID:     os.Getenv(EnvClientID),
		clientSecret: os.Getenv(EnvClientSecret),
		refreshToken: os.Getenv(EnvRefreshToken),
	}

	var missing []string
	if creds.clientID == "" {
		missing = append(missing, EnvClientID)
	}
	if creds.clientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if creds.refreshToken == "" {
		missing = append(missing, EnvRefreshToken)
	}
	if len(missing) > 0 {
		return credentials{}, kiinerrors.New("missing YouTube credentials: " + strings.Join(missing, ", ")).
			WithCode(kiinerrors.CodeMissingConfig).
			WithDetail("env", strings.Join(missing, ","))
	}
	return creds, nil
}

// client builds an authenticated HTTP client from the refresh token.
// The pre-expired token forces a refresh on first use.
func (c credentials) client(ctx context.Context) *http.Client {
	conf := &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}
	token := &oauth2.Token{
		RefreshToken: c.refreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token))
}
