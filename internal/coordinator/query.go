package coordinator

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/estatelens-cli/internal/model"
)

// Analyzer submits a query to the analysis backend.
type Analyzer interface {
	Analyze(ctx context.Context, query string) (*model.AnalysisResult, error)
}

// QueryState is the Query coordinator's RequestState.
type QueryState = RequestState[*model.AnalysisResult]

// Query coordinates analysis requests.
type Query struct {
	m      machine[*model.AnalysisResult]
	client Analyzer
	log    *zap.Logger
}

func NewQuery(client Analyzer, log *zap.Logger) *Query {
	if log == nil {
		log = zap.NewNop()
	}
	return &Query{client: client, log: log}
}

// OnChange registers fn to receive every transition.
func (q *Query) OnChange(fn func(QueryState)) { q.m.setListener(fn) }

// State returns the current state.
func (q *Query) State() QueryState { return q.m.current() }

// Submit starts an analysis of query and returns a channel that yields the
// terminal state of this submission. The channel is closed without a value
// when query is blank (nothing happens) or when a later submission
// supersedes this one before it resolves.
func (q *Query) Submit(ctx context.Context, query string) <-chan QueryState {
	query = strings.TrimSpace(query)
	if query == "" {
		return closed[*model.AnalysisResult]()
	}
	seq := q.m.begin(QueryState{Phase: Pending})
	out := make(chan QueryState, 1)
	go func() {
		defer close(out)
		next := q.run(ctx, seq, query)
		if !q.m.finish(seq, next) {
			q.log.Debug("discarding stale analysis response", zap.Uint64("seq", seq))
			return
		}
		out <- next
	}()
	return out
}

func (q *Query) run(ctx context.Context, seq uint64, query string) QueryState {
	res, err := q.client.Analyze(ctx, query)
	if err == nil && res == nil {
		err = errors.New("empty analysis result")
	}
	if err != nil {
		q.log.Error("analysis request failed",
			zap.Uint64("seq", seq),
			zap.String("query", query),
			zap.Error(err))
		return QueryState{Phase: Failed, Message: MsgAnalyzeFailed}
	}
	q.log.Info("analysis complete",
		zap.Uint64("seq", seq),
		zap.Int("locations", res.ChartData.Len()),
		zap.Int("rows", len(res.TableData)))
	return QueryState{Phase: Succeeded, Payload: res}
}
