package gamesdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultHost       = "http://thegamesdb.net"
	DefaultBannerHost = "http://thegamesdb.net/banners"
	DefaultPlatform   = "Nintendo 64"

	maxResponseSize = 16 << 20
)

// ErrNoResults is returned when the provider knows no matching game.
var ErrNoResults = errors.New("no results found")

// Provider looks games up remotely.
type Provider interface {
	FetchByName(ctx context.Context, name string) ([]Game, error)
	FetchByID(ctx context.Context, id string) (*Game, error)
}

// CoverFetcher downloads cover artwork by its thumbnail path.
type CoverFetcher interface {
	DownloadCover(ctx context.Context, thumb string) ([]byte, error)
}

// Client talks to the TheGamesDB XML API.
type Client struct {
	host       string
	bannerHost string
	platform   string
	httpClient *http.Client
}

// New creates a new API client. Empty values fall back to the public
// service defaults.
func New(host, bannerHost, platform string, timeout time.Duration) (*Client, error) {
	host = normalizeHost(host, DefaultHost)
	bannerHost = normalizeHost(bannerHost, DefaultBannerHost)
	if _, err := url.Parse(host); err != nil {
		return nil, fmt.Errorf("invalid gamesdb host: %w", err)
	}
	if _, err := url.Parse(bannerHost); err != nil {
		return nil, fmt.Errorf("invalid gamesdb banner host: %w", err)
	}
	if strings.TrimSpace(platform) == "" {
		platform = DefaultPlatform
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		host:       host,
		bannerHost: bannerHost,
		platform:   platform,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func normalizeHost(host, fallback string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = fallback
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/")
}

// FetchByName searches games by title.
func (c *Client) FetchByName(ctx context.Context, name string) ([]Game, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("platform", c.platform)
	body, err := c.get(ctx, c.host+"/api/GetGame.php?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch by name %q: %w", name, err)
	}
	games, err := ParseGames(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return games, nil
}

// FetchByID fetches a game by its provider id.
func (c *Client) FetchByID(ctx context.Context, id string) (*Game, error) {
	q := url.Values{}
	q.Set("id", id)
	q.Set("platform", c.platform)
	body, err := c.get(ctx, c.host+"/api/GetGame.php?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch by id %s: %w", id, err)
	}
	games, err := ParseGames(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, ErrNoResults
	}
	return &games[0], nil
}

// DownloadCover fetches artwork relative to the banner host.
func (c *Client) DownloadCover(ctx context.Context, thumb string) ([]byte, error) {
	body, err := c.get(ctx, c.bannerHost+"/"+strings.TrimPrefix(thumb, "/"))
	if err != nil {
		return nil, fmt.Errorf("download cover %s: %w", thumb, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "cen64-launcher")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}
