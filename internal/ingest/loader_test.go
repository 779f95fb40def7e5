package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderFromDirectory(t *testing.T) {
	loader := NewLoader(NewSource("testdata", time.Second))
	ctx := context.Background()

	coins, err := loader.CommonCoins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC", "XYZ", "QRS"}, coins)

	doc, err := loader.CoinHistory(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "ABC", doc.Coin)
	require.Len(t, doc.Exchanges, 2)

	binance, ok := doc.Series("binance")
	require.True(t, ok)
	require.Len(t, binance.Candles, 2)
	price, ok := binance.Candles[1].Close.Float()
	assert.True(t, ok)
	assert.Equal(t, 1.25, price)

	upbit, ok := doc.Series("upbit")
	require.True(t, ok)
	assert.Equal(t, int64(1709251200000), upbit.Candles[0].TimestampMs)
	assert.False(t, upbit.Candles[0].Close.Valid)

	insights, err := loader.Insights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, insights.CoinsProcessed)
	assert.Len(t, insights.ReturnDistribution, 3)
	assert.NotNil(t, insights.TopGainers)
	assert.Empty(t, insights.TopGainers)
	assert.Nil(t, insights.Summary.MedianSpread)
	require.NotNil(t, insights.Summary.MedianCumReturn)
	assert.Equal(t, -0.31, *insights.Summary.MedianCumReturn)
}

func TestLoaderErrors(t *testing.T) {
	loader := NewLoader(NewDirSource("testdata"))
	ctx := context.Background()

	_, err := loader.CoinHistory(ctx, "MISSING")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = loader.CoinHistory(ctx, "BAD")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "daily_histories/BAD.json", fetchErr.Path)

	_, err = loader.CoinHistory(ctx, "  ")
	assert.Error(t, err)
}

func TestDirSourceCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDirSource("testdata").Fetch(ctx, CommonCoinsPath)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSource(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/data/common_coins.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"coins":["def"]}`))
		case "/data/daily_histories/ERR.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewSource(srv.URL+"/data/", time.Second)
	_, isHTTP := src.(*HTTPSource)
	require.True(t, isHTTP)

	loader := NewLoader(src)
	ctx := context.Background()

	coins, err := loader.CommonCoins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"DEF"}, coins)
	assert.Equal(t, UserAgent, gotAgent)

	_, err = loader.CoinHistory(ctx, "GONE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = loader.CoinHistory(ctx, "ERR")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusInternalServerError, fetchErr.Status)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestHTTPSourceTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, 50*time.Millisecond).Fetch(context.Background(), CommonCoinsPath)
	require.Error(t, err)
	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 0, fetchErr.Status)
}
