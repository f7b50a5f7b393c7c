package server

import (
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/imgblocks/pkg/block"
	"github.com/matzehuels/imgblocks/pkg/errors"
	"github.com/matzehuels/imgblocks/pkg/location"
	"github.com/matzehuels/imgblocks/pkg/render/diagram"
	"github.com/matzehuels/imgblocks/pkg/workspace"
)

type urlRequest struct {
	URL string `json:"url"`
}

type blockRequest struct {
	Type string `json:"type"`
}

type effectRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) checkURL(url string) error {
	if s.cfg.StrictURLs {
		return errors.ValidateURL(url)
	}
	return nil
}

// POST /api/v1/parse
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.checkURL(req.URL); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, location.Parse(req.URL))
}

// POST /api/v1/documents
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.checkURL(req.URL); err != nil {
		writeError(w, err)
		return
	}
	view, err := s.store.Create(r.Context(), req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Debug("document created", "id", view.ID, "dialect", view.Location.Dialect)
	writeJSON(w, http.StatusCreated, view)
}

// GET /api/v1/documents/{docID}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := s.store.Get(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DELETE /api/v1/documents/{docID}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "docID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/v1/documents/{docID}/url
func (s *Server) handleSetURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.checkURL(req.URL); err != nil {
		writeError(w, err)
		return
	}
	s.edit(w, r, func(e *workspace.Editor) { e.SetURL(req.URL) })
}

// GET /api/v1/documents/{docID}/diagram?format=svg&detailed=true
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := diagram.FormatSVG
	if f := q.Get("format"); f != "" {
		var err error
		if format, err = diagram.ParseFormat(f); err != nil {
			writeError(w, err)
			return
		}
	}
	detailed, _ := strconv.ParseBool(q.Get("detailed"))

	loc, blocks, err := s.store.Snapshot(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.diagrams.Run(r.Context(), loc, blocks, format, diagram.Options{Detailed: detailed})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}

func contentType(f diagram.Format) string {
	switch f {
	case diagram.FormatSVG:
		return "image/svg+xml"
	case diagram.FormatPNG:
		return "image/png"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}

// POST /api/v1/documents/{docID}/blocks
func (s *Server) handleAddBlock(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	t, err := block.ParseType(req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := s.store.Edit(r.Context(), chi.URLParam(r, "docID"), func(e *workspace.Editor) {
		e.Pipeline.Add(t)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// DELETE /api/v1/documents/{docID}/blocks/{blockID}
func (s *Server) handleRemoveBlock(w http.ResponseWriter, r *http.Request) {
	s.blockOp(w, r, func(e *workspace.Editor, id int) { e.Pipeline.Remove(id) })
}

// POST /api/v1/documents/{docID}/blocks/{blockID}/up
func (s *Server) handleMoveUp(w http.ResponseWriter, r *http.Request) {
	s.blockOp(w, r, func(e *workspace.Editor, id int) { e.Pipeline.MoveUp(id) })
}

// POST /api/v1/documents/{docID}/blocks/{blockID}/down
func (s *Server) handleMoveDown(w http.ResponseWriter, r *http.Request) {
	s.blockOp(w, r, func(e *workspace.Editor, id int) { e.Pipeline.MoveDown(id) })
}

// POST /api/v1/documents/{docID}/blocks/{blockID}/toggle
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.blockOp(w, r, func(e *workspace.Editor, id int) { e.Pipeline.ToggleExpanded(id) })
}

// PATCH /api/v1/documents/{docID}/blocks/{blockID}/params
//
// The body is an object of key/value pairs, applied in key order.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	var params map[string]any
	if err := decode(w, r, &params); err != nil {
		writeError(w, err)
		return
	}
	keys := slices.Sorted(maps.Keys(params))
	for _, k := range keys {
		if err := errors.ValidateParamKey(k); err != nil {
			writeError(w, err)
			return
		}
	}
	s.blockOp(w, r, func(e *workspace.Editor, id int) {
		for _, k := range keys {
			e.Pipeline.UpdateParam(id, k, params[k])
		}
	})
}

// PUT /api/v1/documents/{docID}/blocks/{blockID}/effects/{effect}
func (s *Server) handleEffect(w http.ResponseWriter, r *http.Request) {
	var req effectRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	effect := chi.URLParam(r, "effect")
	s.blockOp(w, r, func(e *workspace.Editor, id int) {
		e.Pipeline.ToggleEffect(id, effect, req.Enabled)
	})
}

// blockOp parses {blockID} and runs fn on the document.
func (s *Server) blockOp(w http.ResponseWriter, r *http.Request, fn func(*workspace.Editor, int)) {
	id, err := strconv.Atoi(chi.URLParam(r, "blockID"))
	if err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "block id must be an integer"))
		return
	}
	s.edit(w, r, func(e *workspace.Editor) { fn(e, id) })
}

func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(*workspace.Editor)) {
	view, err := s.store.Edit(r.Context(), chi.URLParam(r, "docID"), fn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
