package content

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"sparet/internal/domain"
)

// banterPools hold the host banter phrases, keyed by the phrase id prefix
// playback looks up. Two variants per pool are synthesized for each round so
// the same moment does not always sound identical.
var banterPools = map[string][]string{
	"banter_round_intro": {
		"Välkomna till en ny resa! Var tror ni vi ska?",
		"Här kommer nästa destination. Vart är vi på väg den här gången?",
		"En ny utmaning väntar. Dags för första ledtråden, lyssna noga!",
		"Nu kör vi igång! Vilken plats letar vi efter idag?",
	},
	"banter_after_brake": {
		"Där bromsar vi! Låt oss se vad ni kommit fram till.",
		"Stopp där! Någon har en teori.",
		"Tåget stannar! Har ni knäckt koden?",
		"Där kom bromsen! Vad blir svaret?",
	},
	"banter_before_reveal": {
		"Nu ska vi se, har ni rätt?",
		"Spänningen är påtaglig! Är det här svaret?",
		"Dags för avslöjandet.",
		"Låt oss kolla om ni är på rätt spår.",
	},
	"banter_reveal_correct": {
		"Helt rätt! Bra jobbat!",
		"Precis! Det var ju utmärkt.",
		"Ja självklart! Ni har koll.",
		"Exakt rätt! Ni är på hugget idag.",
	},
	"banter_reveal_incorrect": {
		"Tyvärr, inte det vi letade efter. Men bra försök!",
		"Aj då, det var inte rätt den här gången.",
		"Inte helt rätt, men ni var nära!",
		"Tyvärr inte, men ge inte upp!",
	},
	"banter_before_final": {
		"Nu närmar vi oss målstationen. Vem vinner kvällens resa?",
		"Dags att räkna poängen! Vem tar hem segern ikväll?",
		"Slutstationen är här. Nu ska vi se vem som vunnit!",
	},
}

const banterVariants = 2

func clueRead(points int, text string) string {
	return "Ledtråden för " + strconv.Itoa(points) + " poäng: " + text
}

func questionRead(text string) string {
	return "Här kommer frågan: " + text
}

func followupIntroRead(destination string) string {
	return "Vi har kommit fram till " + destination + ". Nu väntar några snabba frågor."
}

// voiceLines builds the synthesis batch for one round: two picks from each
// banter pool plus a spoken read of every clue and follow-up question.
func voiceLines(rc *domain.RoundContent, pick func(int) int) []TTSLine {
	lines := make([]TTSLine, 0, len(banterPools)*banterVariants+len(rc.Clues)+len(rc.Followups))
	for prefix, pool := range banterPools {
		for v := 1; v <= banterVariants; v++ {
			lines = append(lines, TTSLine{
				PhraseID: prefix + "_00" + strconv.Itoa(v),
				Text:     pool[pick(len(pool))],
			})
		}
	}
	for _, clue := range rc.Clues {
		lines = append(lines, TTSLine{
			PhraseID: "voice_clue_" + strconv.Itoa(clue.Points),
			Text:     clueRead(clue.Points, clue.Text),
		})
	}
	for i, q := range rc.Followups {
		lines = append(lines, TTSLine{
			PhraseID: "voice_question_" + strconv.Itoa(i),
			Text:     questionRead(q.QuestionText),
		})
	}
	return lines
}

// PrefetchRoundVoice synthesizes the round's voice clips. The banter pools
// and the clue and question reads go in one batch; the follow-up intro
// bridge is a single extra synthesis since it names the destination. Any
// batch failure returns nil and the round plays without voice.
func (c *Client) PrefetchRoundVoice(ctx context.Context, rc *domain.RoundContent) []domain.ClipManifest {
	clips, err := c.TTSBatch(ctx, voiceLines(rc, rand.Intn))
	if err != nil {
		c.logger.Warn("voice prefetch failed, round plays without voice", "destination", rc.Name, "error", err)
		return nil
	}

	now := time.Now().UnixMilli()
	manifest := make([]domain.ClipManifest, 0, len(clips)+1)
	for _, clip := range clips {
		manifest = append(manifest, domain.ClipManifest{
			ClipID:        clip.PhraseID,
			PhraseID:      clip.PhraseID,
			URL:           clip.URL,
			DurationMs:    clip.DurationMs,
			GeneratedAtMs: now,
		})
	}

	intro, err := c.TTS(ctx, TTSLine{PhraseID: "voice_followup_intro", Text: followupIntroRead(rc.Name)})
	if err != nil {
		c.logger.Warn("followup intro synthesis failed", "destination", rc.Name, "error", err)
		return manifest
	}
	manifest = append(manifest, domain.ClipManifest{
		ClipID:        intro.PhraseID,
		PhraseID:      intro.PhraseID,
		URL:           intro.URL,
		DurationMs:    intro.DurationMs,
		GeneratedAtMs: now,
	})
	return manifest
}
