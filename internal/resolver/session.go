// internal/resolver/session.go

// Package resolver obtains video assets for normalized records. The direct
// path fetches the scraped media URL from the CDN; when the URL has expired
// or is rejected, the fallback re-derives a fresh URL from the post page
// using an authenticated platform session.
package resolver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	"golang.org/x/net/publicsuffix"
)

// SessionCookie is one persisted platform cookie.
type SessionCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure"`
	HTTPOnly bool      `json:"http_only"`
}

// Session holds the authenticated platform cookies used by the fallback
// resolver, persisted between runs so the browser login is a rare event.
type Session struct {
	Cookies []SessionCookie `json:"cookies"`
	SavedAt time.Time       `json:"saved_at"`
}

// LoadSession reads a persisted session from file.
func LoadSession(file string) (*Session, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("malformed session file %s: %w", file, err)
	}
	if len(s.Cookies) == 0 {
		return nil, fmt.Errorf("session file %s holds no cookies", file)
	}
	return &s, nil
}

// Save persists the session to file with owner-only permissions; the cookies
// are credentials.
func (s *Session) Save(file string) error {
	s.SavedAt = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(file, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Jar builds a cookie jar holding the session cookies scoped to baseURL.
func (s *Session) Jar(baseURL string) (http.CookieJar, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid session base URL %q: %w", baseURL, err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	jar.SetCookies(u, cookies)
	return jar, nil
}

// Expired reports whether any session cookie has an expiry in the past.
// Cookies without expiry are treated as live.
func (s *Session) Expired() bool {
	now := time.Now()
	for _, c := range s.Cookies {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			return true
		}
	}
	return false
}
