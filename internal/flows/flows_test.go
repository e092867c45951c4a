package flows

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spandi-backend/internal/llm"
)

// fakeProvider answers by template name.
type fakeProvider struct {
	mu       sync.Mutex
	answers  map[string]func(ctx context.Context, req llm.Request) (string, error)
	requests []llm.Request
	calls    atomic.Int32
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{answers: map[string]func(context.Context, llm.Request) (string, error){}}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Generate(ctx context.Context, req llm.Request) (string, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.requests = append(p.requests, req)
	answer, ok := p.answers[req.Template]
	p.mu.Unlock()
	if !ok {
		return "", errors.New("no answer scripted for " + req.Template)
	}
	return answer(ctx, req)
}

func (p *fakeProvider) reply(template, text string) {
	p.answers[template] = func(context.Context, llm.Request) (string, error) { return text, nil }
}

func (p *fakeProvider) fail(template string, err error) {
	p.answers[template] = func(context.Context, llm.Request) (string, error) { return "", err }
}

func testSet(p *fakeProvider) *Set {
	return NewSet(p, zap.NewNop())
}

func TestHoroscope_ReturnsOutputUnchanged(t *testing.T) {
	p := newFakeProvider()
	p.reply("getHoroscopePrompt", `{"title": "T", "prediction": "P"}`)

	got, err := testSet(p).Horoscope.Run(context.Background(), HoroscopeInput{DateOfBirth: "1990-01-01"})
	require.NoError(t, err)

	assert.Equal(t, Reading{Title: "T", Prediction: "P"}, got)
	require.Len(t, p.requests, 1)
	assert.Contains(t, p.requests[0].Prompt, "born on 1990-01-01")
	assert.Equal(t, []string{"title", "prediction"}, p.requests[0].Schema.FieldNames())
}

func TestHoroscope_InvalidInputNeverCallsProvider(t *testing.T) {
	tests := []struct {
		name  string
		input HoroscopeInput
		field string
	}{
		{"missing date", HoroscopeInput{}, "dateOfBirth"},
		{"whitespace date", HoroscopeInput{DateOfBirth: "   "}, "dateOfBirth"},
		{"not iso", HoroscopeInput{DateOfBirth: "01/01/1990"}, "dateOfBirth"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newFakeProvider()
			_, err := testSet(p).Horoscope.Run(context.Background(), tc.input)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "getHoroscope", ve.Flow)
			assert.Contains(t, ve.Fields, tc.field)
			assert.Zero(t, p.calls.Load())
		})
	}
}

func TestFlow_OutputContract(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		field  string
	}{
		{"missing field", `{"title": "T"}`, "prediction"},
		{"non-string field", `{"title": "T", "prediction": 42}`, "prediction"},
		{"not json", `the stars are blurry`, ""},
		{"json array", `["T", "P"]`, ""},
		{"json null", `null`, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newFakeProvider()
			p.reply("getHoroscopePrompt", tc.answer)

			got, err := testSet(p).Horoscope.Run(context.Background(), HoroscopeInput{DateOfBirth: "1990-01-01"})

			var cv *ContractViolation
			require.ErrorAs(t, err, &cv)
			assert.Equal(t, tc.field, cv.Field)
			assert.Equal(t, Reading{}, got, "no partially filled result")
		})
	}
}

func TestFlow_AcceptsFencedAndWrappedJSON(t *testing.T) {
	answers := []string{
		"```json\n{\"roast\": \"Aiyo\"}\n```",
		"Here you go: {\"roast\": \"Aiyo\"} enjoy",
	}

	for _, answer := range answers {
		p := newFakeProvider()
		p.reply("roastFollowUpPrompt", answer)

		got, err := testSet(p).Roast.Run(context.Background(), RoastInput{
			HoroscopePrediction: "Mars looks angry",
			FollowUpQuestion:    "What kind of conflict?",
		})
		require.NoError(t, err)
		assert.Equal(t, "Aiyo", got.Roast)
	}
}

func TestFlow_ProviderError(t *testing.T) {
	p := newFakeProvider()
	quota := errors.New("quota exceeded")
	p.fail("astronomerResponsePrompt", quota)

	_, err := testSet(p).Astronomer.Run(context.Background(), AstronomerInput{Question: "Is Pluto a planet?"})

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "astronomerResponse", pe.Flow)
	assert.Equal(t, "fake", pe.Provider)
	assert.ErrorIs(t, err, quota)
	assert.Equal(t, "provider", Kind(err))
	assert.True(t, IsFlowFailure(err))
}

func TestRoast_ThreadsPriorPrediction(t *testing.T) {
	p := newFakeProvider()
	p.reply("roastFollowUpPrompt", `{"roast": "Maybe it's angry at you"}`)

	_, err := testSet(p).Roast.Run(context.Background(), RoastInput{
		HoroscopePrediction: "Mars is in a funny position",
		FollowUpQuestion:    "Is it good or bad?",
	})
	require.NoError(t, err)

	require.Len(t, p.requests, 1)
	assert.Contains(t, p.requests[0].Prompt, `Original Prediction: "Mars is in a funny position"`)
	assert.Contains(t, p.requests[0].Prompt, `User's Annoying Question: "Is it good or bad?"`)
}

func TestPalm_SendsDecodedImage(t *testing.T) {
	img := []byte{0x89, 'P', 'N', 'G'}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)

	p := newFakeProvider()
	p.reply("readPalmPrompt", `{"title": "The Winding Road", "prediction": "Umm..."}`)

	got, err := testSet(p).Palm.Run(context.Background(), PalmInput{PhotoDataURI: uri})
	require.NoError(t, err)
	assert.Equal(t, "The Winding Road", got.Title)

	require.Len(t, p.requests, 1)
	require.Len(t, p.requests[0].Media, 1)
	media := p.requests[0].Media[0]
	assert.Equal(t, "image/png", media.MIMEType)
	assert.Equal(t, img, media.Data)
	assert.Equal(t, uri, media.DataURI)
}

func TestPalm_RejectsBadDataURI(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"empty", ""},
		{"not a data uri", "https://example.com/palm.jpg"},
		{"not base64", "data:image/png,hello"},
		{"not an image", "data:text/plain;base64,aGVsbG8="},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newFakeProvider()
			_, err := testSet(p).Palm.Run(context.Background(), PalmInput{PhotoDataURI: tc.uri})

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, "photoDataUri")
			assert.Zero(t, p.calls.Load())
		})
	}
}

func TestDecodeInput(t *testing.T) {
	in, err := DecodeInput[HoroscopeInput]("getHoroscope", []byte(`{"dateOfBirth": "1990-01-01"}`))
	require.NoError(t, err)
	assert.Equal(t, "1990-01-01", in.DateOfBirth)

	_, err = DecodeInput[HoroscopeInput]("getHoroscope", []byte(`{"dateOfBirth": 19900101}`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be a string", ve.Fields["dateOfBirth"])

	_, err = DecodeInput[RoastInput]("roastFollowUp", []byte(`{"followUpQuestion": "why?"}`))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "roastFollowUp", ve.Flow)
	assert.Equal(t, "is required", ve.Fields["horoscopePrediction"])

	_, err = DecodeInput[RoastInput]("roastFollowUp", []byte(`not json`))
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "body")
}

// ─── Merge ───

func TestMerge_CombinesBothSides(t *testing.T) {
	p := newFakeProvider()
	p.reply("spandiResponsePrompt", `{"manglishResponse": "life is a loop, alle"}`)
	p.reply("generateDarkHumorPrompt", `{"joke": "at least the loop is free"}`)

	got, err := testSet(p).Chat.Run(context.Background(), ChatInput{Question: "What happens after death?"})
	require.NoError(t, err)

	assert.Equal(t, ChatReply{
		MainText:      "life is a loop, alle",
		SecondaryText: "at least the loop is free",
	}, got)
	assert.EqualValues(t, 2, p.calls.Load())

	for _, req := range p.requests {
		assert.Contains(t, req.Prompt, "What happens after death?")
	}
}

func TestMerge_EitherSideFailingFailsWhole(t *testing.T) {
	tests := []struct {
		name   string
		script func(p *fakeProvider)
		side   Side
	}{
		{
			name: "main fails",
			script: func(p *fakeProvider) {
				p.fail("spandiResponsePrompt", errors.New("boom"))
				p.reply("generateDarkHumorPrompt", `{"joke": "j"}`)
			},
			side: SideMain,
		},
		{
			name: "secondary violates contract",
			script: func(p *fakeProvider) {
				p.reply("spandiResponsePrompt", `{"manglishResponse": "m"}`)
				p.reply("generateDarkHumorPrompt", `{"punchline": "j"}`)
			},
			side: SideSecondary,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newFakeProvider()
			tc.script(p)

			got, err := testSet(p).Chat.Run(context.Background(), ChatInput{Question: "q"})

			var pf *PartialFailure
			require.ErrorAs(t, err, &pf)
			assert.Equal(t, tc.side, pf.Side)
			assert.Equal(t, ChatReply{}, got)
			assert.Equal(t, "partial_failure", Kind(err))
		})
	}
}

func TestMerge_FailureCancelsSurvivingCall(t *testing.T) {
	p := newFakeProvider()
	cancelled := make(chan struct{})

	p.fail("spandiResponsePrompt", errors.New("network down"))
	p.answers["generateDarkHumorPrompt"] = func(ctx context.Context, _ llm.Request) (string, error) {
		select {
		case <-ctx.Done():
			close(cancelled)
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return `{"joke": "too late"}`, nil
		}
	}

	_, err := testSet(p).Chat.Run(context.Background(), ChatInput{Question: "q"})

	var pf *PartialFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, SideMain, pf.Side)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("surviving call was not cancelled")
	}
}

func TestMerge_BlankQuestionIssuesNoRequest(t *testing.T) {
	p := newFakeProvider()

	_, err := testSet(p).Chat.Run(context.Background(), ChatInput{Question: " \t\n"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "chat", ve.Flow)
	assert.Zero(t, p.calls.Load())
}

// ─── Render ───

func TestRender_IsIdempotent(t *testing.T) {
	reply := ChatReply{MainText: "life is a loop, alle", SecondaryText: "at least the loop is free"}
	before := reply

	first := reply.Render()
	second := reply.Render()

	assert.Equal(t, first, second)
	assert.Equal(t, before, reply)
	assert.Equal(t, "life is a loop, alle\n\nat least the loop is free", first)

	reading := Reading{Title: "T", Prediction: "P"}
	assert.Equal(t, reading.Render(), reading.Render())
	assert.Equal(t, "T\n\nP", reading.Render())
}
