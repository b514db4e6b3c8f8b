package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/estatelens-cli/internal/chart"
	"github.com/KaramelBytes/estatelens-cli/internal/coordinator"
	"github.com/KaramelBytes/estatelens-cli/internal/table"
	"github.com/KaramelBytes/estatelens-cli/internal/utils"
)

const prompt = "estatelens> "

const helpText = `Type a question to analyze it, or one of:
  :upload [path]         upload an Excel file (.xlsx/.xls)
  :location <name|all>   filter table rows by location
  :year <yyyy|all>       filter table rows by year
  :reset                 clear filters
  :export [path]         write the filtered table as CSV
  :charts [dir]          write price and demand charts
  :samples               list sample queries
  :sample <n>            run sample query n
  :show                  redraw the current view
  :dismiss               clear the error banner
  :help                  show this help
  :quit                  leave the shell
`

// SessionConfig carries the output locations used by :export and :charts.
type SessionConfig struct {
	ExportPath string
	ChartsDir  string
	Charts     chart.Options
}

// Session is an interactive loop over the shell State. The session is the
// only writer of its State.
type Session struct {
	query  *coordinator.Query
	upload *coordinator.Upload
	cfg    SessionConfig
	log    *zap.Logger

	state State
	out   io.Writer
}

func NewSession(q *coordinator.Query, u *coordinator.Upload, cfg SessionConfig, log *zap.Logger) *Session {
	if cfg.ExportPath == "" {
		cfg.ExportPath = table.DefaultExportName
	}
	if cfg.ChartsDir == "" {
		cfg.ChartsDir = "charts"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{query: q, upload: u, cfg: cfg, log: log}
}

// State returns the current shell state.
func (s *Session) State() State { return s.state }

// Run reads lines from in until EOF, :quit or ctx is done.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	s.out = out
	if err := Render(out, s.state); err != nil {
		return err
	}
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "\n"+prompt)
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ":") {
			s.Analyze(ctx, line)
			continue
		}
		quit, err := s.command(ctx, line)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// Analyze submits q and waits for its outcome, redrawing on each transition.
func (s *Session) Analyze(ctx context.Context, q string) {
	if strings.TrimSpace(q) == "" {
		return
	}
	s.state = s.state.SetQuery(q)
	ch := s.query.Submit(ctx, q)
	s.state = s.state.ApplyQuery(coordinator.QueryState{Phase: coordinator.Pending})
	s.render()
	if final, ok := <-ch; ok {
		s.state = s.state.ApplyQuery(final)
	}
	s.render()
}

// Upload selects path when given, then uploads the selected file.
func (s *Session) Upload(ctx context.Context, path string) {
	if path != "" {
		s.upload.Select(coordinator.LocalFile(path))
	}
	ch, err := s.upload.Upload(ctx)
	if err == nil {
		_ = RenderUpload(s.out, coordinator.UploadState{Phase: coordinator.Pending})
	}
	if st, ok := <-ch; ok {
		s.state = s.state.ApplyUpload(st)
	}
	_ = RenderUpload(s.out, s.state.Upload)
	if s.state.DataChanged {
		fmt.Fprintf(s.out, "⚠ %s\n", DataChangedNotice)
	}
}

func (s *Session) command(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "q", "quit", "exit":
		return true, nil
	case "help", "h", "?":
		fmt.Fprint(s.out, helpText)
	case "upload":
		s.Upload(ctx, arg)
	case "location":
		s.state = s.state.SetLocationFilter(allOrValue(arg))
		s.render()
	case "year":
		s.state = s.state.SetYearFilter(allOrValue(arg))
		s.render()
	case "reset":
		s.state = s.state.ResetFilters()
		s.render()
	case "dismiss":
		s.state = s.state.DismissError()
		s.render()
	case "show":
		s.render()
	case "export":
		s.export(arg)
	case "charts":
		s.charts(arg)
	case "samples":
		for i, q := range SampleQueries {
			fmt.Fprintf(s.out, "  %d. %s\n", i+1, q)
		}
	case "sample":
		n, err := strconv.Atoi(arg)
		q, ok := Sample(n)
		if err != nil || !ok {
			fmt.Fprintf(s.out, "✗ choose a sample between 1 and %d\n", len(SampleQueries))
			break
		}
		fmt.Fprintf(s.out, "→ %s\n", q)
		s.Analyze(ctx, q)
	default:
		fmt.Fprintf(s.out, "✗ unknown command %q, type :help\n", ":"+name)
	}
	return false, nil
}

func (s *Session) export(path string) {
	if path == "" {
		path = s.cfg.ExportPath
	}
	n, err := ExportFile(path, s.state)
	if errors.Is(err, table.ErrEmptyExport) {
		fmt.Fprintln(s.out, "✗ No data to export")
		return
	}
	if err != nil {
		s.log.Error("export failed", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(s.out, "✗ Export failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "✓ Exported %d rows to %s\n", n, path)
}

func (s *Session) charts(dir string) {
	if dir == "" {
		dir = s.cfg.ChartsDir
	}
	if s.state.Result == nil || s.state.Result.ChartData.Len() == 0 {
		fmt.Fprintln(s.out, "No chart data available")
		return
	}
	built := chart.BuildCharts(s.state.Result.ChartData)
	paths, err := chart.WriteCharts(dir, built, s.cfg.Charts)
	for _, p := range paths {
		fmt.Fprintf(s.out, "✓ %s\n", p)
	}
	for _, c := range built {
		if c.Err != nil {
			fmt.Fprintf(s.out, "✗ %v\n", c.Err)
		}
	}
	if err != nil {
		s.log.Error("chart rendering failed", zap.String("dir", dir), zap.Error(err))
		fmt.Fprintf(s.out, "✗ Chart rendering failed: %v\n", err)
	}
}

func (s *Session) render() {
	if err := Render(s.out, s.state); err != nil {
		s.log.Warn("render failed", zap.Error(err))
	}
}

// ExportFile writes the filtered table of s to path and returns the number
// of data rows written.
func ExportFile(path string, s State) (int, error) {
	all, filtered := s.Rows()
	data, err := table.ExportView(all, filtered)
	if err != nil {
		return 0, err
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return len(filtered), nil
}

func allOrValue(arg string) string {
	if strings.EqualFold(arg, "all") {
		return ""
	}
	return arg
}
