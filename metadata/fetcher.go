package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"socialcard-server/core"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	defaultCacheSize    = 256
	defaultMaxBodyBytes = 2 << 20
	defaultUserAgent    = "socialcard-server/1.0 (+link preview)"
)

var (
	ErrInvalidURL = errors.New("invalid url")

	// ErrForbiddenHost is returned for pages that resolve to loopback,
	// private or link-local addresses. It always comes wrapped with
	// ErrInvalidURL.
	ErrForbiddenHost = errors.New("host is not publicly routable")

	// ErrFetch wraps network and upstream failures; callers may retry.
	ErrFetch = errors.New("metadata fetch failed")
)

type Options struct {
	// Client replaces the default client, which only dials public
	// addresses. Callers that set it take over that check.
	Client       *http.Client
	Timeout      time.Duration
	CacheSize    int
	UserAgent    string
	MaxBodyBytes int64
}

// Fetcher reads title, description and preview image from a web page.
type Fetcher struct {
	client    *http.Client
	cache     *lru.ARCCache
	userAgent string
	maxBody   int64
}

func NewFetcher(opts Options) (*Fetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Client == nil {
		opts.Client = newPublicClient(opts.Timeout)
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	cache, err := lru.NewARC(opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		client:    opts.Client,
		cache:     cache,
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
	}, nil
}

// Fetch returns the metadata of pageURL. Successful results are cached.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*core.LinkMetadata, error) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}
	key := u.String()

	if cached, ok := f.cache.Get(key); ok {
		md := cached.(core.LinkMetadata)
		return &md, nil
	}

	log := logrus.WithField("url", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrForbiddenHost) {
			log.Warn("Metadata request to non-public address refused")
			return nil, fmt.Errorf("%w: %w", ErrInvalidURL, ErrForbiddenHost)
		}
		log.WithError(err).Warn("Metadata request failed")
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("Metadata request rejected")
		return nil, fmt.Errorf("%w: upstream responded %d", ErrFetch, resp.StatusCode)
	}

	md, err := Parse(io.LimitReader(resp.Body, f.maxBody), resp.Request.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	f.cache.Add(key, *md)
	log.WithFields(logrus.Fields{
		"has_title": md.Title != "",
		"has_image": md.Image != "",
	}).Info("Metadata fetched successfully")
	return md, nil
}

// Parse extracts link metadata from an HTML document. OpenGraph tags win over
// twitter tags, which win over <title> and the description meta tag. Relative
// image URLs are resolved against base.
func Parse(r io.Reader, base *url.URL) (*core.LinkMetadata, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var (
		og      = map[string]string{}
		twitter = map[string]string{}
		named   = map[string]string{}
		title   string
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				var property, name, content string
				for _, a := range n.Attr {
					switch strings.ToLower(a.Key) {
					case "property":
						property = strings.ToLower(a.Val)
					case "name":
						name = strings.ToLower(a.Val)
					case "content":
						content = strings.TrimSpace(a.Val)
					}
				}
				if content == "" {
					break
				}
				if strings.HasPrefix(property, "og:") {
					setOnce(og, strings.TrimPrefix(property, "og:"), content)
				}
				if strings.HasPrefix(name, "twitter:") {
					setOnce(twitter, strings.TrimPrefix(name, "twitter:"), content)
				}
				if name != "" {
					setOnce(named, name, content)
				}
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	md := &core.LinkMetadata{
		Title:       first(og["title"], twitter["title"], title),
		Description: first(og["description"], twitter["description"], named["description"]),
		Image:       first(og["image"], og["image:url"], twitter["image"]),
	}
	if md.Image != "" && base != nil {
		if ref, err := url.Parse(md.Image); err == nil {
			md.Image = base.ResolveReference(ref).String()
		}
	}
	return md, nil
}

func setOnce(m map[string]string, key, value string) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
