package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/adapter"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/config"
)

func TestNewPredictionClient(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("no URL leaves decisions to local rules", func(t *testing.T) {
		client, err := newPredictionClient(config.PredictionConfig{}, logger)
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("stub only when asked for", func(t *testing.T) {
		client, err := newPredictionClient(config.PredictionConfig{Stub: true}, logger)
		require.NoError(t, err)
		assert.IsType(t, &adapter.StubPredictionClient{}, client)
	})

	t.Run("URL selects the HTTP predictor", func(t *testing.T) {
		client, err := newPredictionClient(config.PredictionConfig{URL: "http://predictor:5000/predict", Stub: true}, logger)
		require.NoError(t, err)
		assert.IsType(t, &adapter.HTTPPredictionClient{}, client)
	})

	t.Run("missing CA file", func(t *testing.T) {
		_, err := newPredictionClient(config.PredictionConfig{URL: "https://predictor/predict", CAFile: "/nonexistent/ca.pem"}, logger)
		assert.Error(t, err)
	})
}
