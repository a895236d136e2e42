package content

import (
	"math/rand"

	"sparet/internal/domain"
)

// builtinDestinations are the always-available rounds used when no generated
// pack is configured. Clue texts are in Swedish to match the show's voice.
var builtinDestinations = []domain.RoundContent{
	{
		ID:      "paris",
		Name:    "Paris",
		Country: "Frankrike",
		Aliases: []string{"paris", "paree", "city of light", "ljusets stad"},
		Clues: []domain.Clue{
			{Points: 10, Text: "Här finns ett 324 meter högt järntorn som invigdes 1889."},
			{Points: 8, Text: "Staden kallas 'Ljusets stad' och är känd för sin konst och mode."},
			{Points: 6, Text: "Här ligger Louvren, världens mest besökta konstmuseum."},
			{Points: 4, Text: "Från denna stad kan du ta Thalys-tåget till Bryssel eller Amsterdam."},
			{Points: 2, Text: "Huvudstad i Frankrike, berömd för Champs-Élysées och Notre-Dame."},
		},
		Followups: []domain.FollowupQuestion{
			{
				QuestionText:  "Vilket år invigdes Eiffeltornet?",
				Options:       []string{"1879", "1889", "1899"},
				CorrectAnswer: "1889",
			},
			{
				QuestionText:  "Vilken flod rinner genom Paris?",
				CorrectAnswer: "Seine",
				Aliases:       []string{"seinen", "la seine"},
			},
		},
	},
	{
		ID:      "tokyo",
		Name:    "Tokyo",
		Country: "Japan",
		Aliases: []string{"tokyo", "tokio", "edo"},
		Clues: []domain.Clue{
			{Points: 10, Text: "I denna stad finns världens mest trafikerade tågstation, Shinjuku."},
			{Points: 8, Text: "Staden var värd för olympiska sommarspelen 1964 och 2020."},
			{Points: 6, Text: "Här står Tokyo Tower och det moderna Tokyo Skytree."},
			{Points: 4, Text: "Staden ligger vid Tokyobukten och är känd för sin fiskmarknad Tsukiji."},
			{Points: 2, Text: "Huvudstad i Japan och en av världens största metropoler."},
		},
		Followups: []domain.FollowupQuestion{
			{
				QuestionText:  "Vad hette Tokyo innan 1868?",
				Options:       []string{"Kyoto", "Edo", "Osaka"},
				CorrectAnswer: "Edo",
			},
		},
	},
	{
		ID:      "new-york",
		Name:    "New York",
		Country: "USA",
		Aliases: []string{"new york", "nyc", "new york city", "big apple", "stora äpplet"},
		Clues: []domain.Clue{
			{Points: 10, Text: "I denna stad finns en grön staty som var en gåva från Frankrike 1886."},
			{Points: 8, Text: "Staden består av fem stadsdelar: Manhattan, Brooklyn, Queens, Bronx och Staten Island."},
			{Points: 6, Text: "Här ligger Times Square och Broadway med sina kända musikaler."},
			{Points: 4, Text: "Central Park är en 341 hektar stor park mitt i staden."},
			{Points: 2, Text: "Största stad i USA, ofta kallad \"The Big Apple\"."},
		},
		Followups: []domain.FollowupQuestion{
			{
				QuestionText:  "Vilket land skänkte Frihetsgudinnan till USA?",
				Options:       []string{"Storbritannien", "Frankrike", "Spanien"},
				CorrectAnswer: "Frankrike",
			},
			{
				QuestionText:  "På vilken ö ligger Frihetsgudinnan?",
				CorrectAnswer: "Liberty Island",
				Aliases:       []string{"liberty"},
			},
		},
	},
}

// RandomBuiltin returns a copy of a random built-in destination.
func RandomBuiltin() *domain.RoundContent {
	picked := builtinDestinations[rand.Intn(len(builtinDestinations))]
	return &picked
}

// BuiltinByID returns a built-in destination by id, or nil.
func BuiltinByID(id string) *domain.RoundContent {
	for i := range builtinDestinations {
		if builtinDestinations[i].ID == id {
			picked := builtinDestinations[i]
			return &picked
		}
	}
	return nil
}

// BuiltinIDs lists the built-in destination ids.
func BuiltinIDs() []string {
	ids := make([]string, 0, len(builtinDestinations))
	for i := range builtinDestinations {
		ids = append(ids, builtinDestinations[i].ID)
	}
	return ids
}
