package bot

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/logger"
	"github.com/spigell/jobguide/internal/metrics"
)

// Notifier delivers messages to a user outside of a reply.
type Notifier interface {
	Push(ctx context.Context, userID string, messages ...Reply) error
}

// NopNotifier drops every message.
type NopNotifier struct{}

func (NopNotifier) Push(context.Context, string, ...Reply) error { return nil }

// Dispatcher runs searches in the background and pushes the results. A
// dispatched search runs to completion: only the searcher's retry count bounds
// it. Wait blocks until all of them have finished.
type Dispatcher struct {
	searcher *Searcher
	notifier Notifier
	recorder metrics.Recorder
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(searcher *Searcher, notifier Notifier, log *zap.Logger) *Dispatcher {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Dispatcher{
		searcher: searcher,
		notifier: notifier,
		recorder: metrics.Nop{},
		logger:   logger.WithFields(log),
	}
}

// WithRecorder reports search outcomes to r.
func (d *Dispatcher) WithRecorder(r metrics.Recorder) *Dispatcher {
	if r != nil {
		d.recorder = r
	}
	return d
}

// Dispatch starts a background search for userID and returns immediately.
func (d *Dispatcher) Dispatch(userID string, cond condition.SearchCondition) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if err := d.Run(context.Background(), userID, cond); err != nil {
			logger.WithUser(d.logger, userID, "").Error("background search failed", zap.Error(err))
		}
	}()
}

// Run searches cond and pushes the formatted result to userID. A failed
// search is reported to the user before the error is returned.
func (d *Dispatcher) Run(ctx context.Context, userID string, cond condition.SearchCondition) error {
	result, err := d.searcher.Search(ctx, cond)
	if err != nil {
		d.recorder.ObserveSearch(metrics.SearchFailed, 0)
		if pushErr := d.notifier.Push(ctx, userID, Reply{Text: searchFailedText}); pushErr != nil {
			d.logger.Warn("notify search failure", zap.Error(pushErr))
		}
		return err
	}

	outcome := metrics.SearchSucceeded
	if len(result.Results) == 0 {
		outcome = metrics.SearchEmpty
	}
	d.recorder.ObserveSearch(outcome, len(result.Results))

	logger.WithUser(d.logger, userID, "").Info("search completed",
		zap.String("keyword", result.Query.Keyword),
		zap.Int("total", result.Total),
		zap.Int("sent", len(result.Results)),
	)

	if err := d.notifier.Push(ctx, userID, FormatResult(result)...); err != nil {
		return fmt.Errorf("push results: %w", err)
	}
	return nil
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
