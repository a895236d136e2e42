package content

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generationService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate/round", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sv", body["language"])
		json.NewEncoder(w).Encode(map[string]string{"roundId": "r-42", "status": "generating"})
	})
	mux.HandleFunc("GET /generate/round/r-42/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(GenerationStatus{
			Status:      "generating",
			CurrentStep: 2,
			TotalSteps:  5,
			RoundID:     "r-42",
		})
	})
	mux.HandleFunc("POST /tts/batch", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"clips": []TTSClip{
				{PhraseID: "voice_clue_10", URL: "http://cdn/c1.mp3", DurationMs: 4000},
				{PhraseID: "voice_clue_8", URL: "http://cdn/c2.mp3", DurationMs: 3500},
			},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func generationClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(baseURL, 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGenerateRound(t *testing.T) {
	service := generationService(t)
	client := generationClient(t, service.URL)

	roundID, err := client.GenerateRound(context.Background(), "european capitals", "")
	require.NoError(t, err)
	assert.Equal(t, "r-42", roundID)

	status, err := client.GenerationProgress(context.Background(), "r-42")
	require.NoError(t, err)
	assert.Equal(t, "generating", status.Status)
	assert.Equal(t, 2, status.CurrentStep)
	assert.Equal(t, "r-42", status.RoundID)
}

func TestTTSBatch(t *testing.T) {
	service := generationService(t)
	client := generationClient(t, service.URL)

	clips, err := client.TTSBatch(context.Background(), []TTSLine{
		{PhraseID: "voice_clue_10", Text: "ten"},
		{PhraseID: "voice_clue_8", Text: "eight"},
	})
	require.NoError(t, err)
	require.Len(t, clips, 2)
	assert.Equal(t, "voice_clue_10", clips[0].PhraseID)
	assert.Equal(t, int64(4000), clips[0].DurationMs)
}

func TestClientReportsServiceErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	client := generationClient(t, server.URL)

	_, err := client.GenerateRound(context.Background(), "x", "sv")
	assert.ErrorContains(t, err, "unexpected status 500")

	_, err = client.GenerationProgress(context.Background(), "r-1")
	assert.ErrorContains(t, err, "unexpected status 500")
}
