package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"finstress/internal/metrics"
	"finstress/internal/report"

	log "github.com/sirupsen/logrus"
)

// Report streams the PDF export of the current expenses.
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	snap := h.tracker.Snapshot()
	now := h.now()

	var buf bytes.Buffer
	err := report.Render(&buf, snap.Expenses, snap.Budget, now)
	metrics.ReportsRendered.WithLabelValues(metrics.ReportResult(err)).Inc()
	if errors.Is(err, report.ErrNoExpenses) {
		h.renderDashboard(w, r, http.StatusBadRequest, h.defaultForm(), userMessage(err))
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to render report")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName(now)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		log.WithError(err).Warn("Failed to send report")
	}
}
