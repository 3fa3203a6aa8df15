package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultdigest/internal/digest"
	"github.com/starford/vaultdigest/internal/digestservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *digestservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *digestservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Generate handles POST /api/digest.
//
//	@Summary		Generate the vault digest
//	@Description	Body fields override the configured digest options for this run only.
//	@Tags			digest
//	@Accept			json
//	@Produce		json
//	@Param			body	body		digest.Overrides	false	"Option overrides"
//	@Success		200		{object}	GenerateResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/digest [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var ov digest.Overrides
	if err := json.NewDecoder(r.Body).Decode(&ov); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return
	}

	report, err := h.svc.Generate(r.Context(), ov.Apply(h.svc.Defaults()))
	if err != nil {
		writeError(w, "generate digest", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Verify handles GET /api/verify.
//
//	@Summary		Verify a written digest
//	@Tags			digest
//	@Produce		json
//	@Param			path	query		string	false	"Digest path (defaults to the configured destination)"
//	@Success		200		{object}	VerifyResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/verify [get]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Verify(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, "verify digest", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Random handles GET /api/random.
//
//	@Summary		Pick a random document
//	@Tags			digest
//	@Produce		json
//	@Param			exclude	query		[]string	false	"Folders to skip, repeated or comma-separated (defaults to the random section of the config)"
//	@Success		200		{object}	RandomResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/random [get]
func (h *Handler) Random(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exclude := h.svc.RandomDefaults().Exclude
	if q.Has("exclude") {
		exclude = []string{}
		for _, v := range q["exclude"] {
			exclude = append(exclude, digest.ParseExcludes(v)...)
		}
	}
	doc, err := h.svc.PickRandom(r.Context(), exclude)
	if err != nil {
		writeError(w, "random pick", err)
		return
	}
	writeJSON(w, http.StatusOK, RandomResponse{Document: doc})
}

// ListRuns handles GET /api/runs.
//
//	@Summary		List recent digest runs
//	@Tags			runs
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of runs"
//	@Success		200		{object}	RunListResponse
//	@Security		BearerAuth
//	@Router			/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, "list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs})
}

// GetRun handles GET /api/runs/{id}.
//
//	@Summary		Get one digest run
//	@Tags			runs
//	@Produce		json
//	@Param			id	path		string	true	"Run id"
//	@Success		200	{object}	RunDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get run", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
