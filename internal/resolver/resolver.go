// internal/resolver/resolver.go
package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/errors"
	"github.com/socialpulse/viralpipe/internal/utils"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// maxVideoBytes caps a single download. Reels are short; anything past this
// is not the asset we asked for.
const maxVideoBytes = 512 << 20

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
}

// Resolver fetches video assets. The direct path downloads the scraped media
// URL; when that fails, the fallback re-derives a fresh URL from the post
// page under an authenticated session and downloads that instead. Both paths
// failing is a permanent per-record failure.
type Resolver struct {
	cfg        config.ResolverConfig
	limiter    *rate.Limiter
	userAgents []string
	uaIndex    int
	uaMu       sync.Mutex

	plainClient *http.Client

	sessionMu     sync.Mutex
	sessionClient *http.Client

	logger utils.Logger
}

// New creates a resolver. The fallback session is established lazily on
// first use so runs without expired URLs never touch the session file or the
// browser.
func New(cfg config.ResolverConfig) *Resolver {
	agents := cfg.UserAgents
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	limit := rate.Limit(cfg.RateLimit)
	if limit <= 0 {
		limit = rate.Inf
	}
	return &Resolver{
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, 1),
		userAgents: agents,
		plainClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: utils.NewComponentLogger("resolver"),
	}
}

// Resolve obtains the video asset for one record: direct CDN fetch first,
// authenticated fallback second.
func (r *Resolver) Resolve(ctx context.Context, rec types.Record) (*types.VideoAsset, error) {
	postID := rec.GetString(types.FieldPostID)

	var directErr error
	if mediaURL := rec.GetString(types.FieldMediaURL); mediaURL != "" {
		asset, err := r.fetchVideo(ctx, r.plainClient, mediaURL)
		if err == nil {
			asset.PostID = postID
			asset.Method = types.ResolutionDirect
			return asset, nil
		}
		directErr = err
		r.logger.Debugf("direct fetch failed for post %s: %v", postID, err)
	} else {
		directErr = fmt.Errorf("record has no media URL")
	}

	asset, fallbackErr := r.resolveFallback(ctx, rec)
	if fallbackErr == nil {
		asset.PostID = postID
		asset.Method = types.ResolutionFallback
		return asset, nil
	}

	if errors.IsTransient(fallbackErr) {
		return nil, fallbackErr
	}
	return nil, &errors.ResolutionError{PostID: postID, Direct: directErr, Fallback: fallbackErr}
}

// resolveFallback loads the post page under the authenticated session,
// extracts the fresh media URL from the page metadata and downloads it.
func (r *Resolver) resolveFallback(ctx context.Context, rec types.Record) (*types.VideoAsset, error) {
	postURL := rec.GetString(types.FieldPostURL)
	if postURL == "" {
		return nil, fmt.Errorf("record has no post URL for fallback resolution")
	}

	shortcode, err := utils.ExtractShortcode(postURL)
	if err != nil {
		return nil, err
	}

	client, err := r.sessionHTTPClient(ctx)
	if err != nil {
		return nil, err
	}

	pageURL := strings.TrimRight(r.cfg.BaseURL, "/") + "/p/" + shortcode + "/"
	freshURL, err := r.extractMediaURL(ctx, client, pageURL)
	if err != nil {
		return nil, err
	}

	return r.fetchVideo(ctx, client, freshURL)
}

// extractMediaURL fetches the post page and reads the og:video meta tag.
func (r *Resolver) extractMediaURL(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", r.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return "", errors.NewTransient("fallback page fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if retryableStatus(resp.StatusCode) {
			return "", errors.NewTransient("fallback page fetch",
				fmt.Errorf("post page returned HTTP %d", resp.StatusCode))
		}
		return "", fmt.Errorf("post page %s returned HTTP %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse post page: %w", err)
	}

	for _, property := range []string{"og:video:secure_url", "og:video"} {
		if content, ok := doc.Find(`meta[property="` + property + `"]`).Attr("content"); ok && content != "" {
			return content, nil
		}
	}
	return "", fmt.Errorf("post page %s carries no video metadata", pageURL)
}

// fetchVideo downloads a media URL and wraps it as an asset.
func (r *Resolver) fetchVideo(ctx context.Context, client *http.Client, mediaURL string) (*types.VideoAsset, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid media URL %q: %w", mediaURL, err)
	}
	req.Header.Set("User-Agent", r.nextUserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewTransient("media fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if retryableStatus(resp.StatusCode) {
			return nil, errors.NewTransient("media fetch",
				fmt.Errorf("media URL returned HTTP %d", resp.StatusCode))
		}
		return nil, fmt.Errorf("media URL returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxVideoBytes+1))
	if err != nil {
		return nil, errors.NewTransient("media fetch", err)
	}
	if len(data) > maxVideoBytes {
		return nil, fmt.Errorf("media at %s exceeds %d bytes", mediaURL, maxVideoBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("media at %s is empty", mediaURL)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	return &types.VideoAsset{
		SourceURL:   mediaURL,
		ContentType: contentType,
		Data:        data,
		FetchedAt:   time.Now(),
	}, nil
}

// sessionHTTPClient returns the authenticated client, establishing the
// session on first use: load the session file, or mint a fresh session via
// browser login when the file is missing or stale.
func (r *Resolver) sessionHTTPClient(ctx context.Context) (*http.Client, error) {
	r.sessionMu.Lock()
	defer r.sessionMu.Unlock()

	if r.sessionClient != nil {
		return r.sessionClient, nil
	}

	session, err := LoadSession(r.cfg.SessionFile)
	if err != nil || session.Expired() {
		if r.cfg.Login == nil {
			if err != nil {
				return nil, fmt.Errorf("no usable session and no login configured: %w", err)
			}
			return nil, fmt.Errorf("session expired and no login configured")
		}
		session, err = LoginWithBrowser(ctx, r.cfg.Login)
		if err != nil {
			return nil, err
		}
		if saveErr := session.Save(r.cfg.SessionFile); saveErr != nil {
			r.logger.Warnf("failed to persist session: %v", saveErr)
		}
	}

	jar, err := session.Jar(r.cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	r.sessionClient = &http.Client{
		Timeout: r.cfg.Timeout,
		Jar:     jar,
	}
	return r.sessionClient, nil
}

func (r *Resolver) nextUserAgent() string {
	r.uaMu.Lock()
	defer r.uaMu.Unlock()
	ua := r.userAgents[r.uaIndex]
	r.uaIndex = (r.uaIndex + 1) % len(r.userAgents)
	return ua
}

// retryableStatus reports whether a status code marks a transient condition.
func retryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
