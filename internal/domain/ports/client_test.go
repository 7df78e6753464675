package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

type fakeGetter struct {
	body []byte
	err  error
	urls []string
}

func (f *fakeGetter) Get(_ context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	return f.body, f.err
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name         string
		cfg          ClientConfig
		wantEndpoint string
		wantOwn      string
		wantErr      bool
	}{
		{
			name:         "root base",
			cfg:          ClientConfig{BaseURL: "http://127.0.0.1:8888/"},
			wantEndpoint: "http://127.0.0.1:8888/jupyterlab-local-browser/open-ports",
			wantOwn:      "8888",
		},
		{
			name:         "nested base without trailing slash",
			cfg:          ClientConfig{BaseURL: "http://localhost:8888/user/alice"},
			wantEndpoint: "http://localhost:8888/user/alice/jupyterlab-local-browser/open-ports",
			wantOwn:      "8888",
		},
		{
			name:         "override own port",
			cfg:          ClientConfig{BaseURL: "https://hub.example.com/lab/", OwnPort: "9999"},
			wantEndpoint: "https://hub.example.com/lab/jupyterlab-local-browser/open-ports",
			wantOwn:      "9999",
		},
		{
			name:         "scheme default port",
			cfg:          ClientConfig{BaseURL: "https://hub.example.com/"},
			wantEndpoint: "https://hub.example.com/jupyterlab-local-browser/open-ports",
			wantOwn:      "443",
		},
		{
			name:    "relative base rejected",
			cfg:     ClientConfig{BaseURL: "/lab/"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(&fakeGetter{}, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEndpoint, c.Endpoint())
			assert.Equal(t, tt.wantOwn, c.OwnPort())
		})
	}
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []types.PortEntry
		wantErr error
	}{
		{
			name: "own port filtered and sentinel prepended",
			body: `[["8888","Jupyter"],["9000","App"]]`,
			want: []types.PortEntry{
				{Port: "_placeholder", Label: "Select a Port"},
				{Port: "9000", Label: "App"},
			},
		},
		{
			name: "order preserved",
			body: `[["9000","9000"],["3000","Web"]]`,
			want: []types.PortEntry{
				{Port: "_placeholder", Label: "Select a Port"},
				{Port: "9000", Label: "9000"},
				{Port: "3000", Label: "Web"},
			},
		},
		{
			name: "empty list",
			body: `[]`,
			want: []types.PortEntry{{Port: "_placeholder", Label: "Select a Port"}},
		},
		{name: "object body", body: `{"ports":[]}`, wantErr: ErrMalformed},
		{name: "null body", body: `null`, wantErr: ErrMalformed},
		{name: "short pair", body: `[["9000"]]`, wantErr: ErrMalformed},
		{name: "long pair", body: `[["9000","a","b"]]`, wantErr: ErrMalformed},
		{name: "not json", body: `<html>`, wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getter := &fakeGetter{body: []byte(tt.body)}
			c, err := NewClient(getter, ClientConfig{BaseURL: "http://127.0.0.1:8888/"})
			require.NoError(t, err)

			got, err := c.Poll(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{c.Endpoint()}, getter.urls)
		})
	}
}

func TestPollTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	c, err := NewClient(&fakeGetter{err: boom}, ClientConfig{BaseURL: "http://127.0.0.1:8888/"})
	require.NoError(t, err)

	got, err := c.Poll(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}
