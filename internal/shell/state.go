// Package shell composes the coordinators, chart transform and table engine
// into the terminal presentation: an explicit State, the views rendered from
// it, and an interactive session.
package shell

import (
	"github.com/KaramelBytes/estatelens-cli/internal/coordinator"
	"github.com/KaramelBytes/estatelens-cli/internal/model"
	"github.com/KaramelBytes/estatelens-cli/internal/table"
)

// DataChangedNotice is shown after an upload while an older result is displayed.
const DataChangedNotice = "Data changed, re-run your query"

// State is everything the shell displays. Update functions return a new
// State and never modify the receiver.
type State struct {
	Query       string
	Result      *model.AnalysisResult
	Filter      model.FilterState
	Analysis    coordinator.QueryState
	Upload      coordinator.UploadState
	Err         string
	DataChanged bool
}

func (s State) SetQuery(q string) State {
	s.Query = q
	return s
}

// ApplyQuery folds a Query coordinator transition into the state. A new
// result replaces the old one wholesale; filters are kept.
func (s State) ApplyQuery(st coordinator.QueryState) State {
	s.Analysis = st
	switch st.Phase {
	case coordinator.Pending:
		s.Err = ""
	case coordinator.Succeeded:
		s.Result = st.Payload
		s.DataChanged = false
	case coordinator.Failed:
		s.Err = st.Message
	}
	return s
}

// ApplyUpload records an upload transition. A successful upload never
// touches the displayed result; it only flags it as possibly stale.
func (s State) ApplyUpload(st coordinator.UploadState) State {
	s.Upload = st
	if st.Phase == coordinator.Succeeded && s.Result != nil {
		s.DataChanged = true
	}
	return s
}

func (s State) SetLocationFilter(loc string) State {
	s.Filter.Location = loc
	return s
}

func (s State) SetYearFilter(year string) State {
	s.Filter.Year = year
	return s
}

func (s State) ResetFilters() State {
	s.Filter = model.FilterState{}
	return s
}

func (s State) DismissError() State {
	s.Err = ""
	return s
}

// Loading reports whether an analysis is in flight.
func (s State) Loading() bool { return s.Analysis.Phase == coordinator.Pending }

// Rows returns the current table rows and the subset passing the filters.
func (s State) Rows() (all, filtered []model.PropertyRecord) {
	if s.Result == nil {
		return nil, nil
	}
	all = s.Result.TableData
	return all, table.ApplyFilters(all, s.Filter)
}

// Options returns the filter choices for the current rows.
func (s State) Options() table.FilterOptions {
	all, _ := s.Rows()
	return table.DeriveFilterOptions(all)
}
