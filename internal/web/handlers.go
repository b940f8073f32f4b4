package web

import (
	"fmt"
	"maps"
	"net/http"
	"slices"

	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/JonMunkholm/rankview/internal/logging"
	"github.com/JonMunkholm/rankview/internal/web/templates"
)

const (
	// defaultEntryLimit is the number of entries returned when no limit is given.
	defaultEntryLimit = 500

	// maxEntryLimit caps ?limit= on /api/entries.
	maxEntryLimit = 10000

	// pageEntryLimit is the number of rows rendered on the HTML page.
	pageEntryLimit = 1000
)

// handlePage renders the dataset page for the loaded selection. It never
// loads; the selection form posts to /load.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, nil)
}

// handlePageLoad loads the selection posted by the page form and redirects
// back to the page. A failed load re-renders the page with the error and the
// previous dataset.
func (s *Server) handlePageLoad(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelectionForm(w, r)
	if err == nil {
		_, err = s.service.Load(r.Context(), sel)
	}
	if err != nil {
		logging.FromContext(r.Context()).Warn("page load failed", "error", err)
		s.renderPage(w, r, statusFor(err), err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, loadErr error) {
	ctx := r.Context()
	data := templates.PageData{Catalog: core.Catalog()}
	if loadErr != nil {
		msg := core.MapError(loadErr)
		data.Error = &msg
	}

	st, entries, err := s.service.Snapshot(pageEntryLimit)
	if err == nil {
		data.Entries = entries
		data.Truncated = len(entries) < st.Visible
	}
	data.Status = st

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Page(data).Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render page", "error", err)
	}
}

// handleHealth reports liveness plus the load state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.service.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"loaded":    st.Loaded,
		"selection": st.Selection,
		"loads":     s.service.LimiterStatus(),
	})
}

// handleLoadQueueStatus returns the current state of the load limiter.
// Used for monitoring and to check if the system can accept another load.
func (s *Server) handleLoadQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// selectionsResponse lists every published year with its rounds.
type selectionsResponse struct {
	Years   []core.YearRounds `json:"years"`
	Current *core.Selection   `json:"current,omitempty"`
}

// handleSelections returns the valid (year, round) domain.
func (s *Server) handleSelections(w http.ResponseWriter, r *http.Request) {
	resp := selectionsResponse{Years: core.Catalog()}
	if st := s.service.Status(); st.Loaded {
		resp.Current = &st.Selection
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetDataset returns the status of the loaded dataset.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Status())
}

type loadRequest struct {
	Year  uint16 `json:"year"`
	Round uint8  `json:"round"`
}

// handleLoadDataset loads the requested selection, replacing the current
// dataset. Loading the selection that is already loaded is a no-op.
func (s *Server) handleLoadDataset(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	st, err := s.service.Load(r.Context(), core.Selection{Year: req.Year, Round: req.Round})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type facetValue struct {
	Value    string `json:"value"`
	Included bool   `json:"included"`
}

type facetState struct {
	Name   core.FacetName `json:"name"`
	Values []facetValue   `json:"values"`
}

type instituteState struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type kindState struct {
	Kind       string           `json:"kind"`
	Enabled    bool             `json:"enabled"`
	Institutes []instituteState `json:"institutes"`
}

type rangeState struct {
	Current core.RankRange `json:"current"`
	Bounds  core.RankRange `json:"bounds"`
}

type sortOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// facetsResponse is the full filter state of the loaded dataset.
type facetsResponse struct {
	LoadID  string       `json:"loadId"`
	Facets  []facetState `json:"facets"`
	Kinds   []kindState  `json:"kinds"`
	Opening rangeState   `json:"opening"`
	Closing rangeState   `json:"closing"`
	Sort    core.Sort    `json:"sort"`
	Sorts   []sortOption `json:"sorts"`
}

// handleFacets returns every facet value with its inclusion flag, the
// institute classification and both rank windows with their bounds.
func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	var resp facetsResponse
	err := s.service.Do(func(d *core.Dataset) error {
		if !d.IsLoaded() {
			return core.ErrNotLoaded
		}
		resp = buildFacets(d)
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func buildFacets(d *core.Dataset) facetsResponse {
	f := d.Filters()
	resp := facetsResponse{
		LoadID:  d.LoadID(),
		Opening: rangeState{Current: f.Opening(), Bounds: f.OpeningBounds()},
		Closing: rangeState{Current: f.Closing(), Bounds: f.ClosingBounds()},
		Sort:    d.Sort(),
	}

	for _, name := range core.FacetNames() {
		facet := f.Facet(name)
		fs := facetState{Name: name, Values: []facetValue{}}
		for _, v := range facet.Values() {
			fs.Values = append(fs.Values, facetValue{Value: v, Included: facet.Included(v)})
		}
		resp.Facets = append(resp.Facets, fs)
	}

	resp.Kinds = []kindState{}
	for _, kind := range f.Kinds() {
		ks := kindState{Kind: kind, Enabled: f.KindEnabled(kind), Institutes: []instituteState{}}
		for _, inst := range f.InstitutesOf(kind) {
			ks.Institutes = append(ks.Institutes, instituteState{Name: inst, Enabled: f.InstituteEnabled(inst)})
		}
		resp.Kinds = append(resp.Kinds, ks)
	}

	for _, srt := range core.Sorts() {
		resp.Sorts = append(resp.Sorts, sortOption{Key: srt.Key(), Label: srt.String()})
	}
	return resp
}

// filterPatch is a batch of filter edits. LoadID must name the current load
// so an edit made against an older dataset is rejected instead of landing
// on the new one. Reset is applied before everything else.
type filterPatch struct {
	LoadID     string                             `json:"loadId"`
	Reset      bool                               `json:"reset"`
	Facets     map[core.FacetName]map[string]bool `json:"facets"`
	Kinds      map[string]bool                    `json:"kinds"`
	Institutes map[string]bool                    `json:"institutes"`
	Opening    *core.RankRange                    `json:"opening"`
	Closing    *core.RankRange                    `json:"closing"`
}

// apply performs the edits in a fixed order so the first reported error
// does not depend on map iteration.
func (p *filterPatch) apply(f *core.Filters) error {
	if p.Reset {
		f.Reset()
	}
	for _, name := range slices.Sorted(maps.Keys(p.Facets)) {
		values := p.Facets[name]
		for _, v := range slices.Sorted(maps.Keys(values)) {
			if err := f.SetFacet(name, v, values[v]); err != nil {
				return err
			}
		}
	}
	for _, kind := range slices.Sorted(maps.Keys(p.Kinds)) {
		if err := f.SetKindEnabled(kind, p.Kinds[kind]); err != nil {
			return err
		}
	}
	for _, inst := range slices.Sorted(maps.Keys(p.Institutes)) {
		if err := f.SetInstituteEnabled(inst, p.Institutes[inst]); err != nil {
			return err
		}
	}
	// Windows outside the observed ranks are narrowed to them.
	if p.Opening != nil {
		f.SetOpening(p.Opening.Clamp(f.OpeningBounds()))
	}
	if p.Closing != nil {
		f.SetClosing(p.Closing.Clamp(f.ClosingBounds()))
	}
	return nil
}

// handlePatchFilters applies a filter patch atomically.
func (s *Server) handlePatchFilters(w http.ResponseWriter, r *http.Request) {
	var patch filterPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondError(w, r, err)
		return
	}
	if patch.LoadID == "" {
		respondError(w, r, fmt.Errorf("%w: loadId is required", errBadRequest))
		return
	}

	st, err := s.service.Edit(patch.LoadID, patch.apply)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "load_id", st.LoadID).Debug("filters updated", "visible", st.Visible)
	writeJSON(w, http.StatusOK, st)
}

type sortRequest struct {
	Sort *core.Sort `json:"sort"`
}

// handlePutSort changes the active sort order.
func (s *Server) handlePutSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Sort == nil {
		respondError(w, r, fmt.Errorf("%w: sort is required", errBadRequest))
		return
	}

	st, err := s.service.SetSort(*req.Sort)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// entriesResponse is one page of the filtered, sorted view.
type entriesResponse struct {
	Status    core.Status  `json:"status"`
	Entries   []core.Entry `json:"entries"`
	Truncated bool         `json:"truncated"`
}

// handleEntries returns up to ?limit= visible entries in the active sort order.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", defaultEntryLimit), maxEntryLimit)

	st, entries, err := s.service.Snapshot(limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	writeJSON(w, http.StatusOK, entriesResponse{
		Status:    st,
		Entries:   entries,
		Truncated: len(entries) < st.Visible,
	})
}
