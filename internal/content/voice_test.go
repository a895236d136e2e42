package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparet/internal/domain"
)

func voiceRound() *domain.RoundContent {
	return &domain.RoundContent{
		ID:   "lissabon",
		Name: "Lissabon",
		Clues: []domain.Clue{
			{Points: 10, Text: "första ledtråden"},
			{Points: 8, Text: "andra ledtråden"},
		},
		Followups: []domain.FollowupQuestion{
			{QuestionText: "Vilken flod?", CorrectAnswer: "Tejo"},
		},
	}
}

// ttsService echoes every batched line back as a clip.
func ttsService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tts/batch", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Lines []TTSLine `json:"lines"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		clips := make([]TTSClip, 0, len(body.Lines))
		for _, line := range body.Lines {
			clips = append(clips, TTSClip{PhraseID: line.PhraseID, URL: "http://cdn/" + line.PhraseID + ".mp3", DurationMs: 3000})
		}
		json.NewEncoder(w).Encode(map[string]any{"clips": clips})
	})
	mux.HandleFunc("POST /tts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"assetId":    "a-1",
			"url":        "http://cdn/intro.mp3",
			"durationMs": 2500,
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestVoiceLinesCoverRound(t *testing.T) {
	lines := voiceLines(voiceRound(), func(int) int { return 0 })

	byID := make(map[string]string, len(lines))
	for _, line := range lines {
		byID[line.PhraseID] = line.Text
	}

	for prefix := range banterPools {
		assert.Contains(t, byID, prefix+"_001")
		assert.Contains(t, byID, prefix+"_002")
	}
	assert.Contains(t, byID["voice_clue_10"], "första ledtråden")
	assert.Contains(t, byID["voice_clue_8"], "andra ledtråden")
	assert.Contains(t, byID["voice_question_0"], "Vilken flod?")
}

func TestPrefetchRoundVoice(t *testing.T) {
	service := ttsService(t)
	client := generationClient(t, service.URL)

	manifest := client.PrefetchRoundVoice(context.Background(), voiceRound())
	require.NotEmpty(t, manifest)

	byID := make(map[string]domain.ClipManifest, len(manifest))
	for _, clip := range manifest {
		byID[clip.ClipID] = clip
	}

	clue, ok := byID["voice_clue_10"]
	require.True(t, ok)
	assert.Equal(t, "http://cdn/voice_clue_10.mp3", clue.URL)
	assert.NotZero(t, clue.GeneratedAtMs)

	intro, ok := byID["voice_followup_intro"]
	require.True(t, ok)
	assert.Equal(t, "http://cdn/intro.mp3", intro.URL)
	assert.Equal(t, int64(2500), intro.DurationMs)
}

func TestPrefetchRoundVoiceDegradesSilently(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	client := generationClient(t, server.URL)

	assert.Nil(t, client.PrefetchRoundVoice(context.Background(), voiceRound()))
}
