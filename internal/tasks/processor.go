package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/LAMpbrien/adventures-of/internal/models"
	"github.com/LAMpbrien/adventures-of/internal/queue"
	"github.com/LAMpbrien/adventures-of/internal/service"
)

// Runner executes generation runs without an end user in the loop.
type Runner interface {
	RunCombined(ctx context.Context, bookID string) (service.GenerateResult, error)
	RunImages(ctx context.Context, bookID string, mode models.GenerationMode) (service.GenerateResult, error)
	SweepStale(ctx context.Context) ([]string, error)
}

// Processor handles messages of the generation stream. Returning an error
// leaves the message pending so the consumer retries it.
type Processor struct {
	runner Runner
	logger zerolog.Logger
}

func NewProcessor(runner Runner, logger zerolog.Logger) *Processor {
	return &Processor{
		runner: runner,
		logger: logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task, err := queue.ParseTask(msg.Values)
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed task")
		return nil
	}

	logger := p.logger.With().Str("task", string(task.Type)).Str("book_id", task.BookID).Logger()

	switch task.Type {
	case queue.TaskGenerate:
		res, err := p.runner.RunCombined(ctx, task.BookID)
		return p.settle(logger, res, err)
	case queue.TaskGenerateImages:
		res, err := p.runner.RunImages(ctx, task.BookID, task.Mode)
		return p.settle(logger.With().Str("mode", string(task.Mode)).Logger(), res, err)
	case queue.TaskSweep:
		failed, err := p.runner.SweepStale(ctx)
		if err != nil {
			return err
		}
		logger.Info().Int("failed", len(failed)).Msg("stale sweep finished")
		return nil
	default:
		logger.Warn().Msg("unknown task type")
		return nil
	}
}

// settle decides whether a finished run is acknowledged. Outcomes that a
// retry cannot change are logged and acknowledged.
func (p *Processor) settle(logger zerolog.Logger, res service.GenerateResult, err error) error {
	var upstream *service.UpstreamError
	switch {
	case err == nil:
		event := logger.Info().Str("status", string(res.Status))
		if res.Warning != "" {
			event = event.Str("warning", res.Warning)
		}
		event.Msg("generation task finished")
		return nil
	case errors.As(err, &upstream),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrBookNotFound),
		errors.Is(err, service.ErrChildNotFound):
		logger.Warn().Err(err).Msg("generation task ended without success")
		return nil
	}
	return fmt.Errorf("generation task: %w", err)
}
