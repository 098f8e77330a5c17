package pokeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

// CSRFInputSelector locates the anti-forgery token on the backend's home page.
const CSRFInputSelector = `input[name="csrfmiddlewaretoken"]`

// ErrTokenNotFound is returned when the home page carries no token field.
var ErrTokenNotFound = errors.New("anti-forgery token not found on page")

// TokenSource supplies the opaque anti-forgery token sent with the search call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, typically from configuration.
type StaticToken string

// Token returns the configured value.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// PageTokenSource scrapes the token from the backend home page the first
// time it is needed and reuses it afterwards. Its HTTP client carries a
// cookie jar so the cookie half of the token pair is replayed on later
// requests that share the client.
type PageTokenSource struct {
	pageURL string
	client  *http.Client

	mu    sync.Mutex
	token string
}

// NewPageTokenSource creates a token source reading pageURL with client.
// A nil client gets a fresh one. A client without a jar is given one.
func NewPageTokenSource(pageURL string, client *http.Client) (*PageTokenSource, error) {
	if client == nil {
		client = &http.Client{}
	}
	if client.Jar == nil {
		jar, err := NewCookieJar()
		if err != nil {
			return nil, err
		}
		client.Jar = jar
	}
	return &PageTokenSource{pageURL: pageURL, client: client}, nil
}

// NewCookieJar returns a jar scoped by the public suffix list.
func NewCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return jar, nil
}

// Client returns the HTTP client holding the session cookie jar.
func (p *PageTokenSource) Client() *http.Client {
	return p.client
}

// Token returns the cached token, fetching the page on first use. Failed
// fetches are not cached.
func (p *PageTokenSource) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" {
		return p.token, nil
	}

	token, err := p.fetch(ctx)
	if err != nil {
		return "", err
	}
	p.token = token
	return token, nil
}

func (p *PageTokenSource) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching token page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching token page: unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing token page: %w", err)
	}

	value, ok := doc.Find(CSRFInputSelector).First().Attr("value")
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", ErrTokenNotFound
	}
	return value, nil
}
