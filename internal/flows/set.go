package flows

import (
	"go.uber.org/zap"

	"spandi-backend/internal/llm"
)

// Set is every flow bound to one provider.
type Set struct {
	Spandi     *Flow[SpandiInput, SpandiOutput]
	DarkHumor  *Flow[DarkHumorInput, DarkHumorOutput]
	Astronomer *Flow[AstronomerInput, AstronomerOutput]
	Horoscope  *Flow[HoroscopeInput, Reading]
	Palm       *Flow[PalmInput, Reading]
	Roast      *Flow[RoastInput, RoastOutput]
	Chat       *Merge
}

func NewSet(provider llm.Provider, logger *zap.Logger) *Set {
	s := &Set{
		Spandi: newFlow[SpandiInput](
			"spandiResponse", spandiPrompt,
			llm.Schema{Name: "SpandiResponseOutput", Fields: []llm.Field{
				{Name: "manglishResponse", Description: "A quirky, philosophical response to the question in a mix of Malayalam and English (Manglish)."},
			}},
			func(v map[string]string) SpandiOutput {
				return SpandiOutput{ManglishResponse: v["manglishResponse"]}
			},
			provider, logger,
		),
		DarkHumor: newFlow[DarkHumorInput](
			"generateDarkHumor", darkHumorPrompt,
			llm.Schema{Name: "GenerateDarkHumorOutput", Fields: []llm.Field{
				{Name: "joke", Description: "A dark humor joke related to the topic."},
			}},
			func(v map[string]string) DarkHumorOutput {
				return DarkHumorOutput{Joke: v["joke"]}
			},
			provider, logger,
		),
		Astronomer: newFlow[AstronomerInput](
			"astronomerResponse", astronomerPrompt,
			llm.Schema{Name: "AstronomerResponseOutput", Fields: []llm.Field{
				{Name: "astronomerResponse", Description: "The astronomer's response to the question in a mix of Malayalam and English (Manglish)."},
				{Name: "darkHumorJoke", Description: "A dark humor joke related to the response, in a mix of Malayalam and English (Manglish)."},
			}},
			func(v map[string]string) AstronomerOutput {
				return AstronomerOutput{AstronomerResponse: v["astronomerResponse"], DarkHumorJoke: v["darkHumorJoke"]}
			},
			provider, logger,
		),
		Horoscope: newFlow[HoroscopeInput](
			"getHoroscope", horoscopePrompt,
			readingSchema("GetHoroscopeOutput", "The detailed horoscope prediction based on the date of birth."),
			buildReading,
			provider, logger,
		),
		Palm: newFlow[PalmInput](
			"readPalm", palmPrompt,
			readingSchema("ReadPalmOutput", "The detailed horoscope prediction based on the palm reading."),
			buildReading,
			provider, logger,
		),
		Roast: newFlow[RoastInput](
			"roastFollowUp", roastPrompt,
			llm.Schema{Name: "RoastFollowUpOutput", Fields: []llm.Field{
				{Name: "roast", Description: "A sassy, roasting, and slightly annoyed response to the user's question, delivered in a Manglish (Malayalam-English) style. The bot should sound exasperated that it has to explain its vague predictions."},
			}},
			func(v map[string]string) RoastOutput {
				return RoastOutput{Roast: v["roast"]}
			},
			provider, logger,
		),
	}
	s.Chat = NewMerge(s.Spandi, s.DarkHumor, logger)
	return s
}

func readingSchema(name, predictionDesc string) llm.Schema {
	return llm.Schema{Name: name, Fields: []llm.Field{
		{Name: "title", Description: "A short, mystical-sounding title, like 'The Fading Star' or 'A Fortunate Path'."},
		{Name: "prediction", Description: predictionDesc},
	}}
}

func buildReading(v map[string]string) Reading {
	return Reading{Title: v["title"], Prediction: v["prediction"]}
}
