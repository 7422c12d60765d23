package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/spacesedan/tickerflow/config"
	"github.com/spacesedan/tickerflow/internal/models"
)

const redditMaxSearchLimit = 100

type RedditClient struct {
	client    *http.Client
	apiURL    string
	userAgent string
	sort      string
	limiter   *rate.Limiter
}

// NewRedditClient builds an application-only OAuth client for the Reddit
// search API. RequestsPerMinute <= 0 disables pacing.
func NewRedditClient(cfg config.RedditConfig) *RedditClient {
	oauthConf := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.AuthURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &userAgentTransport{userAgent: cfg.UserAgent, next: http.DefaultTransport},
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauthConf.Client(ctx)
	client.Timeout = cfg.Timeout

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	sort := cfg.SearchSort
	if sort == "" {
		sort = "relevance"
	}

	return &RedditClient{
		client:    client,
		apiURL:    strings.TrimRight(cfg.APIURL, "/"),
		userAgent: cfg.UserAgent,
		sort:      sort,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Search runs one restricted search of community for term.
func (rc *RedditClient) Search(ctx context.Context, community, term string, limit int) ([]models.RedditPost, error) {
	parsedUrl, err := url.Parse(fmt.Sprintf("%s/r/%s/search", rc.apiURL, url.PathEscape(community)))
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to parse URL: %w", err)
	}
	if limit < 1 || limit > redditMaxSearchLimit {
		limit = redditMaxSearchLimit
	}
	queryParams := parsedUrl.Query()
	queryParams.Add("q", term)
	queryParams.Add("restrict_sr", "1")
	queryParams.Add("sort", rc.sort)
	queryParams.Add("t", "all")
	queryParams.Add("limit", strconv.Itoa(limit))
	queryParams.Add("raw_json", "1")
	parsedUrl.RawQuery = queryParams.Encode()

	if err := rc.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("[RedditClient] rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedUrl.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", rc.userAgent)

	start := time.Now()
	resp, err := rc.client.Do(req)
	if err != nil {
		if isAuthFailure(err) {
			return nil, fmt.Errorf("[RedditClient] token request for r/%s: %w: %v", community, ErrUpstreamAuth, err)
		}
		return nil, fmt.Errorf("[RedditClient] search r/%s: %w: %v", community, ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("[RedditClient] search r/%s returned %d: %w", community, resp.StatusCode, ErrUpstreamAuth)
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("[RedditClient] search r/%s returned %d: %w", community, resp.StatusCode, ErrUpstreamUnavailable)
	}

	var listing models.RedditAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("[RedditClient] decode r/%s listing: %w: %v", community, ErrUpstreamFormat, err)
	}

	posts := make([]models.RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.ID == "" {
			continue
		}
		if post.Subreddit == "" {
			post.Subreddit = community
		}
		posts = append(posts, post)
	}

	slog.Debug("[RedditClient] Search complete",
		slog.String("community", community),
		slog.String("term", term),
		slog.Int("results", len(posts)),
		slog.Duration("elapsed", time.Since(start)))

	return posts, nil
}

// isAuthFailure reports whether err came from the token endpoint refusing the
// client credentials.
func isAuthFailure(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) || retrieveErr.Response == nil {
		return false
	}
	code := retrieveErr.Response.StatusCode
	return code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusBadRequest
}

type userAgentTransport struct {
	userAgent string
	next      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" || req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(r)
}
