package services

import (
	"context"
	"time"

	"spandi-backend/internal/flows"
)

// ReadingService runs the single-shot flows. None of them touch the
// conversation.
type ReadingService struct {
	horoscope  flows.Runner[flows.HoroscopeInput, flows.Reading]
	palm       flows.Runner[flows.PalmInput, flows.Reading]
	roast      flows.Runner[flows.RoastInput, flows.RoastOutput]
	astronomer flows.Runner[flows.AstronomerInput, flows.AstronomerOutput]
	timeout    time.Duration
}

type ReadingRunners struct {
	Horoscope  flows.Runner[flows.HoroscopeInput, flows.Reading]
	Palm       flows.Runner[flows.PalmInput, flows.Reading]
	Roast      flows.Runner[flows.RoastInput, flows.RoastOutput]
	Astronomer flows.Runner[flows.AstronomerInput, flows.AstronomerOutput]
}

// ReadingRunnersFromSet binds every single-shot flow of set. A nil set
// yields no runners.
func ReadingRunnersFromSet(set *flows.Set) ReadingRunners {
	if set == nil {
		return ReadingRunners{}
	}
	return ReadingRunners{
		Horoscope:  set.Horoscope,
		Palm:       set.Palm,
		Roast:      set.Roast,
		Astronomer: set.Astronomer,
	}
}

func NewReadingService(runners ReadingRunners, timeout time.Duration) *ReadingService {
	return &ReadingService{
		horoscope:  runners.Horoscope,
		palm:       runners.Palm,
		roast:      runners.Roast,
		astronomer: runners.Astronomer,
		timeout:    timeout,
	}
}

func (s *ReadingService) Horoscope(ctx context.Context, in flows.HoroscopeInput) (flows.Reading, error) {
	return run(ctx, s.timeout, s.horoscope, in)
}

func (s *ReadingService) Palm(ctx context.Context, in flows.PalmInput) (flows.Reading, error) {
	return run(ctx, s.timeout, s.palm, in)
}

// Roast answers a follow-up question about a prediction the user already got.
func (s *ReadingService) Roast(ctx context.Context, in flows.RoastInput) (flows.RoastOutput, error) {
	return run(ctx, s.timeout, s.roast, in)
}

func (s *ReadingService) Astronomer(ctx context.Context, in flows.AstronomerInput) (flows.AstronomerOutput, error) {
	return run(ctx, s.timeout, s.astronomer, in)
}

func run[In any, Out any](ctx context.Context, timeout time.Duration, r flows.Runner[In, Out], in In) (Out, error) {
	var zero Out
	if r == nil {
		return zero, &NotConfiguredError{}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := r.Run(ctx, in)
	if err != nil {
		return zero, translate(err)
	}
	return out, nil
}
