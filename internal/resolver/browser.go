// internal/resolver/browser.go
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/socialpulse/viralpipe/internal/config"
)

// LoginWithBrowser drives a real browser through the platform login flow and
// captures the resulting cookies as a session. Platforms gate media URLs
// behind cookies that cannot be minted with plain HTTP, so the bootstrap has
// to be a browser.
func LoginWithBrowser(ctx context.Context, cfg *config.LoginConfig) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("no login configuration")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("login requires username and password")
	}
	if cfg.LoginURL == "" {
		return nil, fmt.Errorf("login requires a login URL")
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	runCtx, cancelRun := context.WithTimeout(browserCtx, timeout)
	defer cancelRun()

	var cookies []*network.Cookie
	err := chromedp.Run(runCtx,
		chromedp.Navigate(cfg.LoginURL),
		chromedp.WaitVisible(`input[name="username"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="username"]`, cfg.Username, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"]`, cfg.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		// The post-login redirect sets the session cookies; waiting for the
		// nav bar is how we know the login landed.
		chromedp.WaitVisible(`nav`, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("browser login failed: %w", err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("browser login yielded no cookies")
	}

	session := &Session{Cookies: make([]SessionCookie, 0, len(cookies))}
	for _, c := range cookies {
		sc := SessionCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			sc.Expires = time.Unix(int64(c.Expires), 0)
		}
		session.Cookies = append(session.Cookies, sc)
	}
	return session, nil
}
