package content

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparet/internal/domain"
)

func validPackJSON(roundID string) []byte {
	return []byte(`{
		"roundId": "` + roundID + `",
		"destination": {"name": "Lissabon", "country": "Portugal", "aliases": ["lisboa"]},
		"clues": [
			{"level": 2, "text": "two"},
			{"level": 10, "text": "ten"},
			{"level": 6, "text": "six"},
			{"level": 8, "text": "eight"},
			{"level": 4, "text": "four"}
		],
		"followups": [
			{"questionText": "Which river?", "correctAnswer": "Tejo", "aliases": ["tagus"]}
		],
		"metadata": {"generatedAt": "2025-06-01T12:00:00Z", "verified": true, "antiLeakChecked": true}
	}`)
}

func TestPackNormalize(t *testing.T) {
	var pack Pack
	require.NoError(t, json.Unmarshal(validPackJSON("r1"), &pack))

	content, err := pack.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "r1", content.ID)
	assert.Equal(t, "Lissabon", content.Name)
	require.Len(t, content.Clues, 5)

	// Clues come back in descending point order regardless of input order.
	for i, points := range domain.CluePointLevels {
		assert.Equal(t, points, content.Clues[i].Points)
	}
	assert.Equal(t, "ten", content.Clues[0].Text)
	assert.Equal(t, "two", content.Clues[4].Text)
	require.Len(t, content.Followups, 1)
}

func TestPackNormalizeRejectsBadPacks(t *testing.T) {
	base := func() Pack {
		var pack Pack
		require.NoError(t, json.Unmarshal(validPackJSON("r1"), &pack))
		return pack
	}

	missing := base()
	missing.Clues = missing.Clues[:4]
	_, err := missing.Normalize()
	assert.ErrorContains(t, err, "exactly 5 clues")

	wrongLevels := base()
	wrongLevels.Clues[0].Level = 9
	_, err = wrongLevels.Normalize()
	assert.ErrorContains(t, err, "clue levels")

	emptyClue := base()
	for i := range emptyClue.Clues {
		if emptyClue.Clues[i].Level == 6 {
			emptyClue.Clues[i].Text = ""
		}
	}
	_, err = emptyClue.Normalize()
	assert.ErrorContains(t, err, "empty clue")

	noName := base()
	noName.Destination.Name = ""
	_, err = noName.Normalize()
	assert.ErrorContains(t, err, "destination name")

	noAnswer := base()
	noAnswer.Followups[0].CorrectAnswer = ""
	_, err = noAnswer.Normalize()
	assert.ErrorContains(t, err, "incomplete")
}

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewStore(dir, slog.New(slog.NewTextHandler(os.Stderr, nil))), dir
}

func TestStoreLoad(t *testing.T) {
	store, dir := testStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r1.json"), validPackJSON("r1"), 0o644))

	content, err := store.Load("r1")
	require.NoError(t, err)
	assert.Equal(t, "Lissabon", content.Name)

	// Cached on second load even if the file disappears.
	require.NoError(t, os.Remove(filepath.Join(dir, "r1.json")))
	again, err := store.Load("r1")
	require.NoError(t, err)
	assert.Equal(t, content, again)
}

func TestStoreLoadMissing(t *testing.T) {
	store, _ := testStore(t)
	_, err := store.Load("nope")
	assert.ErrorIs(t, err, domain.ErrNoRoundContent)
}

func TestStoreLoadRejectsIDMismatch(t *testing.T) {
	store, dir := testStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r2.json"), validPackJSON("other"), 0o644))

	_, err := store.Load("r2")
	assert.ErrorContains(t, err, "declares roundId")
}

func TestStoreExistsAndList(t *testing.T) {
	store, dir := testStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "disk.json"), validPackJSON("disk"), 0o644))
	store.Put(&domain.RoundContent{ID: "cached", Name: "Cached"})

	assert.True(t, store.Exists("disk"))
	assert.True(t, store.Exists("cached"))
	assert.False(t, store.Exists("nope"))

	ids := store.List()
	assert.ElementsMatch(t, []string{"disk", "cached"}, ids)
}

func TestBuiltins(t *testing.T) {
	ids := BuiltinIDs()
	assert.Contains(t, ids, "paris")

	paris := BuiltinByID("paris")
	require.NotNil(t, paris)
	assert.Equal(t, "Frankrike", paris.Country)
	require.Len(t, paris.Clues, 5)
	for i, points := range domain.CluePointLevels {
		assert.Equal(t, points, paris.Clues[i].Points)
	}

	assert.Nil(t, BuiltinByID("atlantis"))

	random := RandomBuiltin()
	require.NotNil(t, random)
	assert.Contains(t, ids, random.ID)
}
