// Package content loads destination content packs: pre-verified bundles of
// clues and follow-up questions produced by the generation service, plus a
// small built-in set used when no pack is available.
package content

import (
	"fmt"
	"sort"

	"sparet/internal/domain"
)

// Pack is the wire format a content pack arrives in.
type Pack struct {
	RoundID     string `json:"roundId"`
	Destination struct {
		Name    string   `json:"name"`
		Country string   `json:"country"`
		Aliases []string `json:"aliases"`
	} `json:"destination"`
	Clues []struct {
		Level int    `json:"level"`
		Text  string `json:"text"`
	} `json:"clues"`
	Followups []struct {
		QuestionText  string   `json:"questionText"`
		Options       []string `json:"options"`
		CorrectAnswer string   `json:"correctAnswer"`
		Aliases       []string `json:"aliases"`
	} `json:"followups"`
	Metadata PackMetadata `json:"metadata"`
}

// PackMetadata records how the pack was produced and verified.
type PackMetadata struct {
	GeneratedAt     string `json:"generatedAt"`
	Verified        bool   `json:"verified"`
	AntiLeakChecked bool   `json:"antiLeakChecked"`
}

// Normalize validates a pack and converts it to round content. Clues must
// cover exactly the levels 10, 8, 6, 4, 2.
func (p *Pack) Normalize() (*domain.RoundContent, error) {
	if p.RoundID == "" {
		return nil, fmt.Errorf("content pack has no roundId")
	}
	if p.Destination.Name == "" {
		return nil, fmt.Errorf("content pack %s has no destination name", p.RoundID)
	}
	if len(p.Clues) != len(domain.CluePointLevels) {
		return nil, fmt.Errorf("content pack %s must have exactly %d clues, got %d",
			p.RoundID, len(domain.CluePointLevels), len(p.Clues))
	}

	clues := append([]struct {
		Level int    `json:"level"`
		Text  string `json:"text"`
	}{}, p.Clues...)
	sort.Slice(clues, func(i, j int) bool { return clues[i].Level > clues[j].Level })

	out := make([]domain.Clue, 0, len(clues))
	for i, clue := range clues {
		if clue.Level != domain.CluePointLevels[i] {
			return nil, fmt.Errorf("content pack %s clue levels must be %v",
				p.RoundID, domain.CluePointLevels)
		}
		if clue.Text == "" {
			return nil, fmt.Errorf("content pack %s has an empty clue at level %d",
				p.RoundID, clue.Level)
		}
		out = append(out, domain.Clue{Points: clue.Level, Text: clue.Text})
	}

	followups := make([]domain.FollowupQuestion, 0, len(p.Followups))
	for i, q := range p.Followups {
		if q.QuestionText == "" || q.CorrectAnswer == "" {
			return nil, fmt.Errorf("content pack %s follow-up %d is incomplete", p.RoundID, i)
		}
		followups = append(followups, domain.FollowupQuestion{
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Aliases:       q.Aliases,
		})
	}

	return &domain.RoundContent{
		ID:        p.RoundID,
		Name:      p.Destination.Name,
		Country:   p.Destination.Country,
		Aliases:   p.Destination.Aliases,
		Clues:     out,
		Followups: followups,
	}, nil
}
