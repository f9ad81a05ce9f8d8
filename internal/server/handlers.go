package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/stroydoc/bom-tracker/internal/common"
	"github.com/stroydoc/bom-tracker/internal/entity"
	"github.com/stroydoc/bom-tracker/internal/pipeline"
)

// maxDocumentBytes bounds an uploaded document body (32 MiB).
const maxDocumentBytes = 32 << 20

type handler struct {
	deps   Deps
	logger *slog.Logger
}

type createDocumentRequest struct {
	Text string `json:"text"`
}

type createDocumentResponse struct {
	Document *entity.Document       `json:"document"`
	Parsed   *entity.ParsedDocument `json:"parsed"`
}

func (h *handler) createDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
	if err != nil {
		h.writeError(w, common.NewAppError("BAD_REQUEST", "failed to read body", common.ErrInvalidInput))
		return
	}

	var text string
	switch r.Header.Get("Content-Type") {
	case "application/json":
		var req createDocumentRequest
		if err := json.Unmarshal(body, &req); err != nil {
			h.writeError(w, common.NewAppError("BAD_REQUEST", "invalid JSON body", common.ErrInvalidInput))
			return
		}
		text = req.Text
	default:
		// raw markdown upload
		text = string(body)
	}

	parsed := h.deps.Parser.Parse(text)
	doc, err := h.deps.Documents.Create(r.Context(), text, parsed)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, createDocumentResponse{Document: doc, Parsed: parsed})
}

func (h *handler) getDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	doc, err := h.deps.Documents.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

type extractResponse struct {
	Run    *entity.ExtractionRun `json:"run"`
	Blocks []blockSummary        `json:"blocks"`
}

type blockSummary struct {
	UID       string `json:"uid"`
	Page      int    `json:"page"`
	SentToLLM bool   `json:"sent_to_llm"`
	RuleFacts int    `json:"rule_facts"`
	LLMFacts  int    `json:"llm_facts"`
	Merged    int    `json:"merged"`
}

func (h *handler) extractDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	run, res, err := h.deps.Extraction.ExtractDocument(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, extractResponse{Run: run, Blocks: summarizeBlocks(res)})
}

func summarizeBlocks(res *pipeline.Result) []blockSummary {
	out := make([]blockSummary, 0, len(res.Blocks))
	for _, br := range res.Blocks {
		out = append(out, blockSummary{
			UID:       br.Block.UID,
			Page:      br.PageNumber,
			SentToLLM: br.SentToLLM,
			RuleFacts: len(br.RuleFacts),
			LLMFacts:  len(br.LLMFacts),
			Merged:    len(br.Merged),
		})
	}
	return out
}

func (h *handler) listFacts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	facts, err := h.deps.Facts.ListByDocument(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"facts": facts, "count": len(facts)})
}

func (h *handler) rollup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rows, err := h.deps.Facts.RollupByKey(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"rows": rows, "count": len(rows)})
}

func (h *handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	data, err := h.deps.Export.ExportBOMXLSX(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bom.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handler) getRun(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	run, err := h.deps.Runs.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health != nil {
		if err := h.deps.Health(r.Context()); err != nil {
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, common.NewAppError("BAD_REQUEST", "id must be a UUID", common.ErrInvalidInput))
		return uuid.Nil, false
	}
	return id, true
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response encode failed", "error", err)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Code: "INTERNAL", Message: "internal error"}

	var appErr *common.AppError
	if errors.As(err, &appErr) {
		resp.Code = appErr.Code
		resp.Message = appErr.Message
	}
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	default:
		h.logger.Error("request failed", "error", err)
	}
	h.writeJSON(w, status, resp)
}
