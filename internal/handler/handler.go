package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/keycred/keycred/internal/certificate"
	"github.com/keycred/keycred/internal/repository"
	"github.com/keycred/keycred/internal/scoring"
	"github.com/keycred/keycred/internal/service"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers all API routes on the router
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/api/tenants", h.CreateTenant).Methods("POST")
	r.HandleFunc("/api/upload-receipt/{tenantID}", h.UploadReceipt).Methods("POST")
	r.HandleFunc("/api/scores/{tenantID}", h.LatestScore).Methods("GET")
	r.HandleFunc("/api/certificate/{tenantID}", h.Certificate).Methods("GET")
	r.HandleFunc("/api/verify", h.Verify).Methods("GET")
}

// CreateTenant handles tenant registration
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	tenant, err := h.svc.CreateTenant(req.Name, req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

// UploadReceipt accepts a bank receipt upload and scores the tenant
func (h *Handler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant ID")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	score, err := h.svc.ScoreReceipt(tenantID, header.Filename, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant_id":       score.TenantID,
		"receipt_id":      score.ReceiptID,
		"keycred_score":   score.KeycredScore,
		"max_rent_limit":  score.MaxRentLimit,
		"risk_level":      score.RiskLevel,
		"approved":        score.Approved,
		"score_breakdown": score.Breakdown,
		"status":          "completed",
	})
}

// LatestScore returns the tenant's most recent score
func (h *Handler) LatestScore(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant ID")
		return
	}

	score, err := h.svc.LatestScore(tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// Certificate issues a certificate for the tenant's latest score and
// streams the rendered PDF back to the caller.
func (h *Handler) Certificate(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant ID")
		return
	}

	doc, pdf, err := h.svc.IssueCertificate(tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="keycred-certificate-%s.pdf"`, doc.CertID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// Verify checks a certificate's verification hash
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	certID := r.URL.Query().Get("id")
	hash := r.URL.Query().Get("hash")
	if certID == "" || hash == "" {
		writeError(w, http.StatusBadRequest, "id and hash query parameters are required")
		return
	}

	result, err := h.svc.VerifyCertificate(certID, hash)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// writeServiceError maps error kinds from the core onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var invalidProfile *scoring.InvalidProfileError
	var notEligible *certificate.NotEligibleError
	switch {
	case errors.As(err, &invalidProfile):
		writeError(w, http.StatusBadRequest, invalidProfile.Error())
	case errors.As(err, &notEligible):
		writeError(w, http.StatusForbidden, notEligible.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
