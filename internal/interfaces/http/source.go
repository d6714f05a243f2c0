package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/obligation"
	"fintrack/internal/domain/payment"
	"fintrack/internal/domain/period"
	"fintrack/internal/domain/source"
)

// SourceService is the part of the engine the source routes need.
type SourceService interface {
	CreateSource(ctx context.Context, params source.CreateParams) (*payment.CreateSourceResult, error)
	GetSource(ctx context.Context, id string) (*source.Source, error)
	ListSources(ctx context.Context, limit, offset int) ([]*source.Source, error)
	OnSourceDeleted(ctx context.Context, sourceID string) (*payment.SourceDeletion, error)
	ListObligations(ctx context.Context, sourceID string) ([]payment.ObligationView, error)
	GenerateObligations(ctx context.Context, sourceID string) (int, error)
}

type SourceHandler struct {
	service SourceService
}

func NewSourceHandler(service SourceService) *SourceHandler {
	return &SourceHandler{service: service}
}

type CreateSourceRequest struct {
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	StartPeriod    string          `json:"startPeriod,omitempty"` // YYYY-MM
	TermLength     *int            `json:"termLength,omitempty"`
	ExpectedAmount decimal.Decimal `json:"expectedAmount"`
	AccountID      *string         `json:"accountId,omitempty"`
}

// CreateSourceResponse carries a warning when the source was stored but
// its schedule could not be generated.
type CreateSourceResponse struct {
	Source      *source.Source           `json:"source"`
	Obligations []*obligation.Obligation `json:"obligations"`
	Inserted    int                      `json:"inserted"`
	Warning     string                   `json:"warning,omitempty"`
}

// HandleSources lists sources (GET) or creates one (POST).
func (h *SourceHandler) HandleSources(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListSources(w, r)
	case http.MethodPost:
		h.handleCreateSource(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SourceHandler) handleListSources(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)

	sources, err := h.service.ListSources(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, "list sources")
		return
	}
	if sources == nil {
		sources = []*source.Source{}
	}

	writeJSON(w, http.StatusOK, sources)
}

func (h *SourceHandler) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var req CreateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding create source request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params := source.CreateParams{
		Name:           req.Name,
		Kind:           source.Kind(req.Kind),
		TermLength:     req.TermLength,
		ExpectedAmount: req.ExpectedAmount,
		AccountID:      req.AccountID,
	}
	if req.StartPeriod != "" {
		p, err := period.Parse(req.StartPeriod)
		if err != nil {
			http.Error(w, "Invalid startPeriod format (use YYYY-MM)", http.StatusBadRequest)
			return
		}
		params.StartPeriod = &p
	}

	result, err := h.service.CreateSource(r.Context(), params)
	if err != nil {
		writeServiceError(w, err, "create source")
		return
	}

	resp := CreateSourceResponse{
		Source:      result.Source,
		Obligations: result.Obligations,
		Inserted:    result.Inserted,
	}
	if resp.Obligations == nil {
		resp.Obligations = []*obligation.Obligation{}
	}
	if result.GenerationErr != nil {
		resp.Warning = errorMessage(result.GenerationErr)
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleSourceByID handles GET and DELETE on a single source.
func (h *SourceHandler) HandleSourceByID(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("id")
	if sourceID == "" {
		http.Error(w, "Source ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		src, err := h.service.GetSource(r.Context(), sourceID)
		if err != nil {
			writeServiceError(w, err, "get source")
			return
		}
		writeJSON(w, http.StatusOK, src)
	case http.MethodDelete:
		if _, err := h.service.OnSourceDeleted(r.Context(), sourceID); err != nil {
			writeServiceError(w, err, "delete source")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleListObligations returns the source's schedule with resolved statuses.
func (h *SourceHandler) HandleListObligations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	views, err := h.service.ListObligations(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "list obligations")
		return
	}
	if views == nil {
		views = []payment.ObligationView{}
	}

	writeJSON(w, http.StatusOK, views)
}

// HandleGenerateObligations retries schedule generation. Existing periods are kept.
func (h *SourceHandler) HandleGenerateObligations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	inserted, err := h.service.GenerateObligations(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "generate obligations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"inserted": inserted})
}
