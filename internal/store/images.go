package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/flatsync/internal/domain"
)

const (
	defaultImageTimeout = 30 * time.Second
	imageUserAgent      = "flatsync/1.0"
)

// filenameReplacer makes standard base64 safe for file names
var filenameReplacer = strings.NewReplacer("/", "_", "+", "-")

// FileName derives the cache file name for an image URL: the base64 of the
// URL bytes with "/" → "_" and "+" → "-". Equal URLs share one file.
func FileName(imageURL string) string {
	return filenameReplacer.Replace(base64.StdEncoding.EncodeToString([]byte(imageURL)))
}

// ImageStore is the content-addressed image cache. Existence of the derived
// file is authoritative; there is no separate index.
type ImageStore struct {
	dir        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewImageStore creates the store rooted at dir. A nil httpClient gets a
// client with a 30 second timeout.
func NewImageStore(dir string, httpClient *http.Client, logger *slog.Logger) (*ImageStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultImageTimeout}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &ImageStore{dir: dir, httpClient: httpClient, logger: logger}, nil
}

// Dir returns the directory images are written to
func (s *ImageStore) Dir() string {
	return s.dir
}

func (s *ImageStore) path(imageURL string) string {
	return filepath.Join(s.dir, FileName(imageURL))
}

// LocalPath returns the cached file for imageURL if it exists. No network.
func (s *ImageStore) LocalPath(imageURL string) (string, bool) {
	if imageURL == "" {
		return "", false
	}
	p := s.path(imageURL)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// EnsureCached downloads imageURL unless it is already cached.
// Failures are logged and reported in the result, never returned as errors.
func (s *ImageStore) EnsureCached(ctx context.Context, imageURL string) domain.ImageResult {
	if p, ok := s.LocalPath(imageURL); ok {
		return domain.ImageResult{URL: imageURL, Path: p, Outcome: domain.ImageCached}
	}

	if err := s.download(ctx, imageURL); err != nil {
		s.logger.Debug("image download failed", "url", imageURL, "error", err)
		return domain.ImageResult{URL: imageURL, Outcome: domain.ImageFailed, Err: err}
	}

	return domain.ImageResult{URL: imageURL, Path: s.path(imageURL), Outcome: domain.ImageDownloaded}
}

func (s *ImageStore) download(ctx context.Context, imageURL string) error {
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", domain.ErrInvalidImageURL, imageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", imageUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return s.persist(s.path(imageURL), resp.Body)
}

// persist streams body into a temp file and renames it into place, so an
// interrupted download never looks cached.
func (s *ImageStore) persist(dest string, body io.Reader) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}
