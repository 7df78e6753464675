package ports

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

// SelectLabel is shown for the unselected entry
const SelectLabel = "Select a Port"

// EndpointSegment is appended to the extension path
const EndpointSegment = "open-ports"

// ErrMalformed is returned when the directory response is not a list of
// [port, label] pairs
var ErrMalformed = errors.New("malformed port directory response")

// Getter performs a GET and returns the body of a successful response
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// ClientConfig configures a directory client
type ClientConfig struct {
	// BaseURL is the absolute URL the host serves under, e.g. http://127.0.0.1:8888/lab/
	BaseURL string
	// OwnPort overrides the port taken from BaseURL
	OwnPort string
}

// Client polls the open-ports endpoint
type Client struct {
	getter   Getter
	endpoint string
	ownPort  string
}

// Sentinel returns the entry that means "no port selected"
func Sentinel() types.PortEntry {
	return types.PortEntry{Port: location.Unselected, Label: SelectLabel}
}

// NewClient creates a directory client
func NewClient(getter Getter, cfg ClientConfig) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	own := cfg.OwnPort
	if own == "" {
		own = u.Port()
	}
	if own == "" {
		own = defaultPort(u.Scheme)
	}

	endpoint := u.Scheme + "://" + u.Host + location.BasePath(u.Path) +
		location.ExtensionSegment + "/" + EndpointSegment

	return &Client{getter: getter, endpoint: endpoint, ownPort: own}, nil
}

// Endpoint returns the URL being polled
func (c *Client) Endpoint() string {
	return c.endpoint
}

// OwnPort returns the port filtered out of every response
func (c *Client) OwnPort() string {
	return c.ownPort
}

// Poll fetches the directory once
func (c *Client) Poll(ctx context.Context) ([]types.PortEntry, error) {
	body, err := c.getter.Get(ctx, c.endpoint)
	if err != nil {
		return nil, err
	}
	return c.parse(body)
}

func (c *Client) parse(body []byte) ([]types.PortEntry, error) {
	var pairs [][]string
	if err := sonic.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if pairs == nil && strings.TrimSpace(string(body)) != "[]" {
		return nil, fmt.Errorf("%w: not an array", ErrMalformed)
	}

	entries := make([]types.PortEntry, 0, len(pairs)+1)
	entries = append(entries, Sentinel())
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: entry %d has %d elements", ErrMalformed, i, len(pair))
		}
		if pair[0] == c.ownPort {
			continue
		}
		entries = append(entries, types.PortEntry{Port: pair[0], Label: pair[1]})
	}
	return entries, nil
}

func defaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}
