package v1

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/thoas/go-funk"

	"github.com/careerlink/portal-engine/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportFormats = []string{"xlsx"}

// (GET /api/v1/statistics/verifications)
func (h *ServiceHandler) VerificationStatistics(w http.ResponseWriter, r *http.Request) {
	kind, err := queryKind(r)
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	s, err := h.statisticsSrv.Verifications(r.Context(), service.StatsScope{AccountKind: kind})
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, s)
}

// (GET /api/v1/statistics/applications)
func (h *ServiceHandler) ApplicationStatistics(w http.ResponseWriter, r *http.Request) {
	scope, err := applicationScope(r)
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	s, err := h.statisticsSrv.Applications(r.Context(), scope)
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, s)
}

// (GET /api/v1/statistics/export)
func (h *ServiceHandler) ExportStatistics(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	if !funk.ContainsString(exportFormats, format) {
		badRequest(w, r, "unsupported export format %q, expected one of %v", format, exportFormats)
		return
	}

	scope, err := applicationScope(r)
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	if scope.AccountKind, err = queryKind(r); err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	// The workbook is built in memory so failures still get a JSON error body.
	var buf bytes.Buffer
	if err := h.statisticsSrv.Export(r.Context(), scope, &buf); err != nil {
		fail(w, r, err)
		return
	}

	filename := fmt.Sprintf("portal-statistics-%s.%s", time.Now().UTC().Format("20060102"), format)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func applicationScope(r *http.Request) (service.StatsScope, error) {
	var (
		scope service.StatsScope
		err   error
	)
	if scope.JobPostingID, err = queryUUID(r, "postingId"); err != nil {
		return scope, err
	}
	if scope.OrganizationID, err = queryUUID(r, "organizationId"); err != nil {
		return scope, err
	}
	return scope, nil
}
