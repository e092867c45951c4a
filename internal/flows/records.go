package flows

import (
	"strings"
	"time"

	"github.com/vincent-petithory/dataurl"

	"spandi-backend/internal/llm"
)

// ──── Chat ────

// ChatInput is the merge flow input: the user's question.
type ChatInput struct {
	Question string `json:"question"`
}

func (in ChatInput) Validate() error {
	return required(map[string]string{"question": in.Question})
}

// ChatReply is the composite chat result. Both texts come back verbatim
// from their sub-calls.
type ChatReply struct {
	MainText      string `json:"mainText"`
	SecondaryText string `json:"secondaryText"`
}

type SpandiInput struct {
	Question string `json:"question"`
}

func (in SpandiInput) Validate() error {
	return required(map[string]string{"question": in.Question})
}

type SpandiOutput struct {
	ManglishResponse string `json:"manglishResponse"`
}

type DarkHumorInput struct {
	Topic string `json:"topic"`
}

func (in DarkHumorInput) Validate() error {
	return required(map[string]string{"topic": in.Topic})
}

type DarkHumorOutput struct {
	Joke string `json:"joke"`
}

// ──── Astronomer ────

type AstronomerInput struct {
	Question string `json:"question"`
}

func (in AstronomerInput) Validate() error {
	return required(map[string]string{"question": in.Question})
}

type AstronomerOutput struct {
	AstronomerResponse string `json:"astronomerResponse"`
	DarkHumorJoke      string `json:"darkHumorJoke"`
}

// ──── Readings ────

const dateOfBirthLayout = "2006-01-02"

type HoroscopeInput struct {
	DateOfBirth string `json:"dateOfBirth"`
}

func (in HoroscopeInput) Validate() error {
	if err := required(map[string]string{"dateOfBirth": in.DateOfBirth}); err != nil {
		return err
	}
	if _, err := time.Parse(dateOfBirthLayout, strings.TrimSpace(in.DateOfBirth)); err != nil {
		return &ValidationError{Fields: map[string]string{"dateOfBirth": "must be an ISO date (YYYY-MM-DD)"}}
	}
	return nil
}

// PalmInput carries the palm photo as a data URI:
// data:<mimetype>;base64,<encoded_data>.
type PalmInput struct {
	PhotoDataURI string `json:"photoDataUri"`
}

func (in PalmInput) Validate() error {
	if err := required(map[string]string{"photoDataUri": in.PhotoDataURI}); err != nil {
		return err
	}
	_, err := in.decode()
	return err
}

func (in PalmInput) Media() ([]llm.Media, error) {
	du, err := in.decode()
	if err != nil {
		return nil, err
	}
	return []llm.Media{{
		MIMEType: du.MediaType.ContentType(),
		Data:     du.Data,
		DataURI:  in.PhotoDataURI,
	}}, nil
}

func (in PalmInput) decode() (*dataurl.DataURL, error) {
	invalid := func(reason string) error {
		return &ValidationError{Fields: map[string]string{"photoDataUri": reason}}
	}

	du, err := dataurl.DecodeString(strings.TrimSpace(in.PhotoDataURI))
	if err != nil {
		return nil, invalid("must be a data URI")
	}
	if du.Encoding != dataurl.EncodingBase64 {
		return nil, invalid("must be base64 encoded")
	}
	if du.MediaType.Type != "image" {
		return nil, invalid("must be an image")
	}
	if len(du.Data) == 0 {
		return nil, invalid("must not be empty")
	}
	return du, nil
}

// Reading is the output of both the horoscope and the palm flow.
type Reading struct {
	Title      string `json:"title"`
	Prediction string `json:"prediction"`
}

// RoastInput threads the earlier prediction into the roast prompt. The
// caller supplies it; the flow keeps no state between calls.
type RoastInput struct {
	HoroscopePrediction string `json:"horoscopePrediction"`
	FollowUpQuestion    string `json:"followUpQuestion"`
}

func (in RoastInput) Validate() error {
	return required(map[string]string{
		"horoscopePrediction": in.HoroscopePrediction,
		"followUpQuestion":    in.FollowUpQuestion,
	})
}

type RoastOutput struct {
	Roast string `json:"roast"`
}

func required(fields map[string]string) error {
	missing := map[string]string{}
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing[name] = "is required"
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
