package voyager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultLoginURL = "https://www.linkedin.com/uas/authenticate"

var ErrLoginRejected = errors.New("voyager login rejected")

// Session carries what authenticated requests need besides the cookie jar.
type Session struct {
	CSRFToken string
}

// Authenticator establishes a session on client. The client must carry a
// cookie jar; the session cookies stay there.
type Authenticator interface {
	Authenticate(ctx context.Context, client *http.Client) (Session, error)
}

// PasswordAuth logs in with account credentials.
type PasswordAuth struct {
	Email    string
	Password string
	LoginURL string
}

func (a PasswordAuth) Authenticate(ctx context.Context, client *http.Client) (Session, error) {
	if a.Email == "" || a.Password == "" {
		return Session{}, fmt.Errorf("%w: credentials missing", ErrLoginRejected)
	}
	loginURL := a.LoginURL
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}

	// first request seeds JSESSIONID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return Session{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("seed session: %w", err)
	}
	resp.Body.Close()

	u, _ := url.Parse(loginURL)
	csrf := jsessionID(client, u)
	if csrf == "" {
		return Session{}, fmt.Errorf("%w: no JSESSIONID cookie", ErrLoginRejected)
	}

	form := url.Values{}
	form.Set("session_key", a.Email)
	form.Set("session_password", a.Password)
	form.Set("JSESSIONID", csrf)
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Li-User-Agent", "LIAuthLibrary:3.2.4 com.linkedin.LinkedIn:8.8.1 iPhone:8.3")
	req.Header.Set("X-User-Language", "en")
	req.Header.Set("Accept-Language", "en-us")
	resp, err = client.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		LoginResult string `json:"login_result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("decode login result: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.LoginResult != "PASS" {
		return Session{}, fmt.Errorf("%w: %s %s", ErrLoginRejected, resp.Status, out.LoginResult)
	}
	// the cookie may be rotated on success
	if fresh := jsessionID(client, u); fresh != "" {
		csrf = fresh
	}
	return Session{CSRFToken: csrf}, nil
}

func jsessionID(client *http.Client, u *url.URL) string {
	if client.Jar == nil || u == nil {
		return ""
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == "JSESSIONID" {
			return strings.Trim(c.Value, `"`)
		}
	}
	return ""
}
