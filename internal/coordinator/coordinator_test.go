package coordinator

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/KaramelBytes/estatelens-cli/internal/model"
)

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []string
	reply func(n int, query string) (*model.AnalysisResult, error)
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, query string) (*model.AnalysisResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	n := len(f.calls)
	f.mu.Unlock()
	return f.reply(n, query)
}

func (f *fakeAnalyzer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func resultFor(q string) *model.AnalysisResult {
	return &model.AnalysisResult{Query: q, Summary: "summary of " + q}
}

func wait[T any](t *testing.T, ch <-chan RequestState[T]) (RequestState[T], bool) {
	t.Helper()
	select {
	case st, ok := <-ch:
		return st, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for coordinator")
		return RequestState[T]{}, false
	}
}

func TestQueryBlankSubmitIsNoop(t *testing.T) {
	fa := &fakeAnalyzer{reply: func(int, string) (*model.AnalysisResult, error) { return resultFor("x"), nil }}
	q := NewQuery(fa, zaptest.NewLogger(t))
	var changes int
	q.OnChange(func(QueryState) { changes++ })

	for _, in := range []string{"", "   ", "\t\n"} {
		_, ok := wait(t, q.Submit(context.Background(), in))
		assert.False(t, ok, "blank submit must not deliver a state")
	}
	assert.Equal(t, 0, fa.count())
	assert.Equal(t, 0, changes)
	assert.Equal(t, Idle, q.State().Phase)
}

func TestQuerySuccessSendsTrimmedQueryOnce(t *testing.T) {
	fa := &fakeAnalyzer{reply: func(_ int, q string) (*model.AnalysisResult, error) { return resultFor(q), nil }}
	q := NewQuery(fa, zaptest.NewLogger(t))

	var mu sync.Mutex
	var phases []Phase
	q.OnChange(func(st QueryState) {
		mu.Lock()
		phases = append(phases, st.Phase)
		mu.Unlock()
	})

	st, ok := wait(t, q.Submit(context.Background(), "  Give me analysis of Wakad "))
	require.True(t, ok)
	assert.Equal(t, Succeeded, st.Phase)
	require.NotNil(t, st.Payload)
	assert.Equal(t, "Give me analysis of Wakad", st.Payload.Query)
	assert.Equal(t, []string{"Give me analysis of Wakad"}, fa.calls)
	assert.Equal(t, st, q.State())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Phase{Pending, Succeeded}, phases)
}

func TestQueryFailureUsesGenericMessage(t *testing.T) {
	fa := &fakeAnalyzer{reply: func(int, string) (*model.AnalysisResult, error) {
		return nil, errors.New("api error: endpoint=/api/analyze/ status=500")
	}}
	q := NewQuery(fa, zaptest.NewLogger(t))

	st, ok := wait(t, q.Submit(context.Background(), "Aundh"))
	require.True(t, ok)
	assert.Equal(t, Failed, st.Phase)
	assert.Equal(t, MsgAnalyzeFailed, st.Message)
	assert.Nil(t, st.Payload)
	assert.Equal(t, 1, fa.count())
}

func TestQueryNilResultFails(t *testing.T) {
	fa := &fakeAnalyzer{reply: func(int, string) (*model.AnalysisResult, error) { return nil, nil }}
	q := NewQuery(fa, nil)

	st, ok := wait(t, q.Submit(context.Background(), "Aundh"))
	require.True(t, ok)
	assert.Equal(t, Failed, st.Phase)
}

func TestQueryStaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	fa := &fakeAnalyzer{reply: func(n int, q string) (*model.AnalysisResult, error) {
		if n == 1 {
			<-release
		}
		return resultFor(q), nil
	}}
	q := NewQuery(fa, zaptest.NewLogger(t))

	first := q.Submit(context.Background(), "request one")
	require.Eventually(t, func() bool { return fa.count() == 1 }, time.Second, 5*time.Millisecond)
	second := q.Submit(context.Background(), "request two")

	st, ok := wait(t, second)
	require.True(t, ok)
	assert.Equal(t, "request two", st.Payload.Query)

	close(release)
	_, ok = wait(t, first)
	assert.False(t, ok, "superseded submission must not deliver")
	assert.Equal(t, "request two", q.State().Payload.Query)
	assert.Equal(t, 2, fa.count())
}

func TestQueryListenerMayReadState(t *testing.T) {
	fa := &fakeAnalyzer{reply: func(_ int, q string) (*model.AnalysisResult, error) { return resultFor(q), nil }}
	q := NewQuery(fa, nil)
	seen := make(chan Phase, 4)
	q.OnChange(func(QueryState) { seen <- q.State().Phase })

	_, ok := wait(t, q.Submit(context.Background(), "Wakad"))
	require.True(t, ok)
	assert.Len(t, seen, 2)
}

type fakeUploader struct {
	mu    sync.Mutex
	names []string
	data  []string
	err   error
	gate  chan struct{}
	reply func(n int, name string) error
}

func (f *fakeUploader) Upload(ctx context.Context, name string, r io.Reader) error {
	b, _ := io.ReadAll(r)
	f.mu.Lock()
	f.names = append(f.names, name)
	f.data = append(f.data, string(b))
	gate, reply, n := f.gate, f.reply, len(f.names)
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if reply != nil {
		return reply(n, name)
	}
	return f.err
}

func (f *fakeUploader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.names)
}

func memFile(name, body string) File {
	return File{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), nil
	}}
}

func TestUploadWithoutFile(t *testing.T) {
	fu := &fakeUploader{}
	u := NewUpload(fu, zaptest.NewLogger(t))

	ch, err := u.Upload(context.Background())
	assert.ErrorIs(t, err, ErrMissingFile)
	st, ok := wait(t, ch)
	require.True(t, ok)
	assert.Equal(t, Failed, st.Phase)
	assert.Equal(t, MsgSelectFile, st.Message)
	assert.Equal(t, st, u.State())
	assert.Equal(t, 0, fu.count())
}

func TestUploadSuccessClearsSelection(t *testing.T) {
	fu := &fakeUploader{}
	u := NewUpload(fu, zaptest.NewLogger(t))
	u.Select(memFile("pune.xlsx", "sheet"))

	ch, err := u.Upload(context.Background())
	require.NoError(t, err)
	st, ok := wait(t, ch)
	require.True(t, ok)
	assert.Equal(t, Succeeded, st.Phase)
	assert.Equal(t, MsgUploadDone, st.Message)
	assert.Equal(t, "pune.xlsx", st.Payload)
	assert.Equal(t, []string{"sheet"}, fu.data)

	_, held := u.Selected()
	assert.False(t, held)
	_, err = u.Upload(context.Background())
	assert.ErrorIs(t, err, ErrMissingFile)
	assert.Equal(t, 1, fu.count())
}

func TestUploadFailureKeepsSelection(t *testing.T) {
	fu := &fakeUploader{err: errors.New("status 400")}
	u := NewUpload(fu, zaptest.NewLogger(t))
	u.Select(memFile("bad.xlsx", "x"))

	ch, err := u.Upload(context.Background())
	require.NoError(t, err)
	st, _ := wait(t, ch)
	assert.Equal(t, Failed, st.Phase)
	assert.Equal(t, MsgUploadFailed, st.Message)
	f, held := u.Selected()
	assert.True(t, held)
	assert.Equal(t, "bad.xlsx", f.Name)
}

func TestUploadOpenFailureMakesNoCall(t *testing.T) {
	fu := &fakeUploader{}
	u := NewUpload(fu, nil)
	u.Select(LocalFile("/nonexistent/estatelens/data.xlsx"))

	ch, err := u.Upload(context.Background())
	require.NoError(t, err)
	st, _ := wait(t, ch)
	assert.Equal(t, Failed, st.Phase)
	assert.Equal(t, MsgUploadFailed, st.Message)
	assert.Equal(t, 0, fu.count())
}

func TestSelectResetsFinishedOutcome(t *testing.T) {
	u := NewUpload(&fakeUploader{}, nil)
	_, _ = u.Upload(context.Background())
	require.Equal(t, Failed, u.State().Phase)

	u.Select(memFile("a.xlsx", "a"))
	assert.Equal(t, Idle, u.State().Phase)
	assert.Empty(t, u.State().Message)
}

func TestUploadReselectDuringFlightKeepsNewFile(t *testing.T) {
	fu := &fakeUploader{gate: make(chan struct{})}
	u := NewUpload(fu, nil)
	u.Select(memFile("first.xlsx", "1"))

	ch, err := u.Upload(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return fu.count() == 1 }, time.Second, 5*time.Millisecond)
	u.Select(memFile("second.xlsx", "2"))
	assert.Equal(t, Pending, u.State().Phase)

	close(fu.gate)
	st, ok := wait(t, ch)
	require.True(t, ok)
	assert.Equal(t, Succeeded, st.Phase)
	f, held := u.Selected()
	require.True(t, held)
	assert.Equal(t, "second.xlsx", f.Name)
}

func TestUploadStaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	fu := &fakeUploader{reply: func(n int, _ string) error {
		if n == 1 {
			<-release
			return errors.New("status 500")
		}
		return nil
	}}
	u := NewUpload(fu, zaptest.NewLogger(t))
	var seen []UploadState
	var seenMu sync.Mutex
	u.OnChange(func(st UploadState) {
		seenMu.Lock()
		seen = append(seen, st)
		seenMu.Unlock()
	})

	u.Select(memFile("first.xlsx", "1"))
	first, err := u.Upload(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return fu.count() == 1 }, time.Second, 5*time.Millisecond)

	u.Select(memFile("second.xlsx", "2"))
	second, err := u.Upload(context.Background())
	require.NoError(t, err)
	st, ok := wait(t, second)
	require.True(t, ok)
	assert.Equal(t, Succeeded, st.Phase)
	assert.Equal(t, "second.xlsx", st.Payload)

	close(release)
	_, ok = wait(t, first)
	assert.False(t, ok, "superseded upload must not deliver")
	assert.Equal(t, st, u.State())
	assert.Equal(t, []string{"first.xlsx", "second.xlsx"}, fu.names)

	seenMu.Lock()
	defer seenMu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, st, seen[len(seen)-1])
	for _, s := range seen {
		assert.NotEqual(t, MsgUploadFailed, s.Message)
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
