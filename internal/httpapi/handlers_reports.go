package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gtnulled/despensa_api/internal/reports"
)

type ReportsService interface {
	Monthly(ctx context.Context, month string) (*reports.MonthlyReport, error)
	ExportCSV(ctx context.Context, month string) ([]byte, string, error)
	Stats(ctx context.Context) (*reports.DashboardStats, error)
}

type ReportsHandler struct {
	Service ReportsService
}

// Monthly Report
// @Summary Monthly usage report (admin)
// @Tags reports
// @Produce json
// @Security SessionAuth
// @Param month query string false "month in YYYY-MM (defaults to current)"
// @Success 200 {object} reports.MonthlyReport
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 500 {string} string
// @Router /reports/monthly [get]
func (h *ReportsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Monthly(r.Context(), monthParam(r))
	if err != nil {
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

// Export Report
// @Summary Export the monthly report as CSV (admin)
// @Tags reports
// @Produce text/csv
// @Security SessionAuth
// @Param month query string false "month in YYYY-MM (defaults to current)"
// @Success 200 {string} string
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 500 {string} string
// @Router /reports/monthly/export [get]
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.Service.ExportCSV(r.Context(), monthParam(r))
	if err != nil {
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}

// Stats Report
// @Summary Dashboard stock and usage counters
// @Tags reports
// @Produce json
// @Security SessionAuth
// @Success 200 {object} reports.DashboardStats
// @Failure 401 {string} string
// @Failure 500 {string} string
// @Router /reports/stats [get]
func (h *ReportsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func monthParam(r *http.Request) string {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}
	return month
}
