// Package imageload turns catalog image references into base64-ready payloads.
package imageload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"

	"pcb-inspector/config"
	"pcb-inspector/internal/domain/entity"
	"pcb-inspector/internal/domain/port"
)

// EmbeddedScheme prefixes references that live in the binary's asset FS.
const EmbeddedScheme = "embedded:"

// DefaultMIMEType is used when neither the source nor the content tells the type.
const DefaultMIMEType = "image/png"

// Loader reads images from HTTP, the embedded asset FS or the local disk.
// It never caches.
type Loader struct {
	httpClient *http.Client
	embedded   fs.FS
	validator  port.ImageValidator
	maxBytes   int64
	log        *zap.Logger
}

// NewLoader creates a loader. embedded and validator may be nil.
func NewLoader(cfg config.ImageConfig, embedded fs.FS, validator port.ImageValidator, log *zap.Logger) *Loader {
	return &Loader{
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		embedded:   embedded,
		validator:  validator,
		maxBytes:   cfg.MaxBytes,
		log:        log,
	}
}

// Load resolves ref to bytes, checks they decode as an image and detects the MIME type.
func (l *Loader) Load(ctx context.Context, ref string) (entity.ImagePayload, error) {
	data, contentType, err := l.read(ctx, ref)
	if err != nil {
		return entity.ImagePayload{}, &entity.LoadError{Ref: ref, Err: err}
	}
	if len(data) == 0 {
		return entity.ImagePayload{}, &entity.LoadError{Ref: ref, Err: errors.New("empty image")}
	}

	if l.validator != nil {
		if _, _, err := l.validator.Validate(data); err != nil {
			return entity.ImagePayload{}, &entity.LoadError{Ref: ref, Err: err}
		}
	}

	payload := entity.ImagePayload{
		MIMEType: detectMIME(contentType, ref, data),
		Data:     data,
	}
	l.log.Debug("image loaded",
		zap.String("ref", ref),
		zap.String("mime", payload.MIMEType),
		zap.Int("bytes", len(data)))
	return payload, nil
}

func (l *Loader) read(ctx context.Context, ref string) ([]byte, string, error) {
	switch {
	case ref == "":
		return nil, "", errors.New("empty image reference")
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fetch(ctx, ref)
	case strings.HasPrefix(ref, EmbeddedScheme):
		if l.embedded == nil {
			return nil, "", errors.New("no embedded assets configured")
		}
		data, err := fs.ReadFile(l.embedded, strings.TrimPrefix(ref, EmbeddedScheme))
		if err != nil {
			return nil, "", fmt.Errorf("read embedded asset: %w", err)
		}
		return data, "", l.checkSize(int64(len(data)))
	default:
		data, err := os.ReadFile(strings.TrimPrefix(ref, "file://"))
		if err != nil {
			return nil, "", fmt.Errorf("read file: %w", err)
		}
		return data, "", l.checkSize(int64(len(data)))
	}
}

// fetch downloads a remote image. Bodies over the limit fail instead of being cut.
func (l *Loader) fetch(ctx context.Context, ref string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download image: HTTP %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if l.maxBytes > 0 {
		body = io.LimitReader(resp.Body, l.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("read image data: %w", err)
	}
	if err := l.checkSize(int64(len(data))); err != nil {
		return nil, "", err
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (l *Loader) checkSize(n int64) error {
	if l.maxBytes > 0 && n > l.maxBytes {
		return fmt.Errorf("image exceeds %d bytes", l.maxBytes)
	}
	return nil
}

// detectMIME prefers the declared content type, then sniffing, then the file
// extension, and falls back to DefaultMIMEType.
func detectMIME(contentType, ref string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}

	if mt, _, err := mime.ParseMediaType(http.DetectContentType(data)); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}

	if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(path.Ext(refPath(ref)))); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}

	return DefaultMIMEType
}

func refPath(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		return u.Path
	}
	return ref
}

var _ port.ImageLoader = (*Loader)(nil)
