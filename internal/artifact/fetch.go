package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sitesmith/ai-gateway/internal/config"
	"github.com/sitesmith/ai-gateway/internal/logger"
	"github.com/sitesmith/ai-gateway/internal/utils"
)

// Fetch failure sentinels
var (
	ErrInvalidScheme      = errors.New("only http and https URLs are allowed")
	ErrHostNotAllowed     = errors.New("host is not on the allow-list")
	ErrDownloadTooLarge   = errors.New("download exceeds maximum size")
	ErrInvalidContentType = errors.New("downloaded content is not an image")
)

// FetchGuard downloads provider-generated assets under host allow-listing
// and size bounds. It never performs storage itself.
type FetchGuard struct {
	httpClient *http.Client
	cfg        config.FetchConfig
}

// NewFetchGuard creates a fetch guard from configuration. A nil client gets a
// plain client with the configured timeout.
func NewFetchGuard(cfg config.FetchConfig, client *http.Client) *FetchGuard {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &FetchGuard{
		httpClient: client,
		cfg:        cfg,
	}
}

// Fetch downloads url and returns the validated bytes. When an allow-list is
// configured an unlisted host is a hard failure; an empty allow-list permits
// any host but logs a warning so the gap is visible in operations.
func (g *FetchGuard) Fetch(ctx context.Context, rawURL string) (*ValidatedArtifact, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScheme, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidScheme, parsed.Scheme)
	}

	ctx = logger.WithComponent(ctx, "FetchGuard")
	host := parsed.Hostname()
	if len(g.cfg.AllowedHosts) > 0 {
		if !hostAllowed(host, g.cfg.AllowedHosts) {
			logger.Warn(ctx, "Blocked download from unlisted host",
				"host", host,
				"url", rawURL,
			)
			return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
		}
	} else {
		logger.Warn(ctx, "No fetch allow-list configured, downloading from any host",
			"host", host,
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set(utils.HeaderUserAgent, utils.ServiceName)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download asset: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get(utils.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidContentType, contentType)
	}

	// Read one byte past the ceiling so hitting the limit is distinguishable
	// from a payload exactly at it.
	limitedReader := io.LimitReader(resp.Body, g.cfg.MaxSize+1)
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset data: %w", err)
	}
	if int64(len(data)) > g.cfg.MaxSize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrDownloadTooLarge, g.cfg.MaxSize)
	}

	sniffed := strings.TrimPrefix(contentType, "image/")
	if idx := strings.IndexAny(sniffed, "; "); idx >= 0 {
		sniffed = sniffed[:idx]
	}

	logger.Debug(ctx, "Asset downloaded",
		"url", rawURL,
		"content_type", contentType,
		"size_bytes", len(data),
	)

	return &ValidatedArtifact{
		Bytes:        data,
		SniffedType:  sniffed,
		DeclaredType: sniffed,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
	}, nil
}

// hostAllowed checks host against the allow-list with suffix/subdomain
// matching: "cdn.example.com" matches entries "cdn.example.com" and
// "example.com", but not "ample.com".
func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, entry := range allowed {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}
