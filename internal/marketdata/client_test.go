package marketdata

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldelevate/risk-analyzer/pkg/utils/errors"
)

func TestGetMarketData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/market/bars/AAPL", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"AAPL","bars":[{"close":150.5},{"close":148.2}]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	data, err := c.GetMarketData(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", data.Symbol)
	require.Len(t, data.Bars, 2)
	assert.Equal(t, 150.5, data.Bars[0].Close)

	price, ok := data.LatestClose()
	require.True(t, ok)
	assert.Equal(t, 150.5, price)
}

func TestGetMarketDataFillsSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bars":[{"close":100}]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	data, err := c.GetMarketData(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", data.Symbol)
}

func TestGetMarketDataNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.GetMarketData(context.Background(), "XYZ")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestGetMarketDataServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.GetMarketData(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestGetMarketDataBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.GetMarketData(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestGetMarketDataTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := c.GetMarketData(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrTimeout))
}

func TestGetMarketDataContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bars":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.GetMarketData(ctx, "AAPL")
	assert.Error(t, err)
}
