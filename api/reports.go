package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/export"
	"example.com/backstage/services/bipagem/repository"
	"example.com/backstage/services/bipagem/utils"
)

// FinalizeReportRequest names the transporter of a report
type FinalizeReportRequest struct {
	Transporter string `json:"transportadora" validate:"required,notblank,max=255"`
}

// ChangeStatusRequest moves a report forward
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,report_status"`
}

func (s *Server) finalizeReport(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var req FinalizeReportRequest
	if err := bindJSON(c, &req); err != nil {
		WriteError(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	report, err := s.handlers.Reports.Finalize(ctx, session, req.Transporter)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

func (s *Server) listReports(c *gin.Context) {
	filter := repository.ReportFilter{
		Area:   domain.Area(c.Query("area")),
		Date:   c.Query("data"),
		Status: domain.ReportStatus(c.Query("status")),
	}
	if filter.Area != "" && !filter.Area.Valid() {
		WriteError(c, NewValidationError(fmt.Sprintf("unknown area %q", filter.Area)))
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		WriteError(c, NewValidationError(fmt.Sprintf("unknown status %q", filter.Status)))
		return
	}
	if filter.Date != "" && !utils.IsValidSessionDate(filter.Date) {
		WriteError(c, NewValidationError("data must be YYYY-MM-DD"))
		return
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			WriteError(c, NewValidationError("limit must be a positive number"))
			return
		}
		filter.Limit = n
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	reports, err := s.handlers.Reports.List(ctx, filter)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

func (s *Server) getReport(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	report, err := s.handlers.Reports.Get(ctx, c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) changeReportStatus(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := bindJSON(c, &req); err != nil {
		WriteError(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	report, err := s.handlers.Reports.ChangeStatus(ctx, session, c.Param("id"), domain.ReportStatus(req.Status))
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) exportReport(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	buf, fileName, err := s.handlers.Reports.Export(ctx, c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (s *Server) searchReports(c *gin.Context) {
	if s.search == nil {
		WriteError(c, NewError("Report search is not configured", http.StatusServiceUnavailable, ErrServiceUnavailable.Code))
		return
	}

	query := c.Query("q")
	if query == "" {
		WriteError(c, NewValidationError("q is required"))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	ctx, cancel := s.requestContext(c)
	defer cancel()

	hits, err := s.search.SearchReportNotes(ctx, query, limit)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, hits)
}
