package flows

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Merge fans a question out to two independent prompts, the philosophical
// answer and a dark joke, and joins them. Both must succeed.
type Merge struct {
	main      Runner[SpandiInput, SpandiOutput]
	secondary Runner[DarkHumorInput, DarkHumorOutput]
	logger    *zap.Logger
}

func NewMerge(
	main Runner[SpandiInput, SpandiOutput],
	secondary Runner[DarkHumorInput, DarkHumorOutput],
	logger *zap.Logger,
) *Merge {
	return &Merge{main: main, secondary: secondary, logger: logger}
}

// Run issues both sub-calls concurrently. The first failure cancels the
// other call through the shared context and is returned as a
// PartialFailure; no half result ever leaves this function.
func (m *Merge) Run(ctx context.Context, in ChatInput) (ChatReply, error) {
	if err := in.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Flow = "chat"
		}
		return ChatReply{}, err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var (
		main SpandiOutput
		joke DarkHumorOutput
	)

	g.Go(func() error {
		out, err := m.main.Run(gctx, SpandiInput{Question: in.Question})
		if err != nil {
			return &PartialFailure{Side: SideMain, Err: err}
		}
		main = out
		return nil
	})

	g.Go(func() error {
		out, err := m.secondary.Run(gctx, DarkHumorInput{Topic: in.Question})
		if err != nil {
			return &PartialFailure{Side: SideSecondary, Err: err}
		}
		joke = out
		return nil
	})

	if err := g.Wait(); err != nil {
		m.logger.Warn("merge failed",
			zap.String("side", string(err.(*PartialFailure).Side)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return ChatReply{}, err
	}

	m.logger.Debug("merge completed", zap.Duration("duration", time.Since(start)))

	return ChatReply{
		MainText:      main.ManglishResponse,
		SecondaryText: joke.Joke,
	}, nil
}
