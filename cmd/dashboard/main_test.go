package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applause/dashboard/internal/dashboard"
	"github.com/applause/dashboard/internal/ingest"
	"github.com/applause/dashboard/internal/store"
)

func TestFirstCoin(t *testing.T) {
	coins := []string{"ABC", "XYZ"}
	assert.Equal(t, "QQQ", firstCoin([]string{"qqq"}, "XYZ", coins))
	assert.Equal(t, "XYZ", firstCoin(nil, "XYZ", coins))
	assert.Equal(t, "ABC", firstCoin(nil, "", coins))
	assert.Equal(t, "", firstCoin(nil, "", nil))
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger("warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "coin", "ABC")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown coin=ABC")
	assert.Regexp(t, `time="\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}"`, out)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}

func TestRunHeadless(t *testing.T) {
	var buf bytes.Buffer
	loader := ingest.NewLoader(ingest.NewDirSource("../../internal/ingest/testdata"))
	ctrl := dashboard.NewController(loader, dashboard.NewTextRenderer(&buf, 80, 10), nil, dashboard.Options{
		Exchanges: []store.Exchange{{Key: "binance", Name: "Binance"}, {Key: "upbit", Name: "Upbit"}},
	})

	require.NoError(t, runHeadless(context.Background(), ctrl, nil))

	out := buf.String()
	assert.Contains(t, out, "Common coins (3)")
	assert.Contains(t, out, "ABC: first 10 days after listing")
	assert.Contains(t, out, "Binance high")
	assert.Contains(t, out, "Return distribution (ABC highlighted), 3 of 3 coins")

	err := runHeadless(context.Background(), ctrl, []string{"NOPE"})
	assert.ErrorIs(t, err, ingest.ErrNotFound)
}
