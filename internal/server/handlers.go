package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ginjaninja78/revenue-xml/internal/catalog"
	"github.com/ginjaninja78/revenue-xml/internal/converter"
)

// =============================================================================
// RESPONSES
// =============================================================================

// APIResponse is the body of every API response.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{Success: false, Message: message})
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "revxml"})
}

func (s *Server) listOutlets(c *gin.Context) {
	success(c, "outlets", gin.H{"outlets": s.catalog.Names()})
}

type daysQuery struct {
	File  string `form:"file" binding:"required"`
	Month int    `form:"month" binding:"omitempty,min=1,max=12"`
	Year  int    `form:"year" binding:"omitempty,min=2000"`
}

type periodResponse struct {
	Month           int    `json:"month"`
	Year            int    `json:"year"`
	Days            []int  `json:"days"`
	Sheet           string `json:"sheet"`
	SuggestedOutlet string `json:"suggested_outlet,omitempty"`
}

func (s *Server) listDays(c *gin.Context) {
	var q daysQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.conv.ListDays(q.File, q.Month, q.Year)
	if err != nil {
		c.Error(err)
		errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	days := p.Days
	if days == nil {
		days = []int{}
	}
	success(c, "days", periodResponse{
		Month:           p.Month,
		Year:            p.Year,
		Days:            days,
		Sheet:           p.Sheet,
		SuggestedOutlet: p.SuggestedOutlet,
	})
}

// generateRequest selects days either explicitly or by Select ("all",
// "weekends", "workdays"). Month and year are detected when omitted.
type generateRequest struct {
	File      string `json:"file" binding:"required"`
	Outlet    string `json:"outlet" binding:"required"`
	Days      []int  `json:"days" binding:"omitempty,dive,min=1,max=31"`
	Select    string `json:"select"`
	Month     int    `json:"month" binding:"omitempty,min=1,max=12"`
	Year      int    `json:"year" binding:"omitempty,min=2000"`
	OutputDir string `json:"output_dir"`
}

type fileResponse struct {
	Method string `json:"method"`
	Number string `json:"number"`
	Path   string `json:"path"`
}

type dayResponse struct {
	Day   string         `json:"day"`
	Files []fileResponse `json:"files"`
	Error string         `json:"error,omitempty"`
}

type generateResponse struct {
	Status  string        `json:"status"`
	Summary string        `json:"summary"`
	Written int           `json:"written"`
	Days    []dayResponse `json:"days"`
}

func (s *Server) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Days) == 0 && req.Select == "" {
		errorResponse(c, http.StatusBadRequest, "either days or select is required")
		return
	}

	month, year, days := req.Month, req.Year, req.Days
	if month == 0 || year == 0 || len(days) == 0 {
		p, err := s.conv.ListDays(req.File, month, year)
		if err != nil {
			c.Error(err)
			errorResponse(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if p.Month == 0 {
			errorResponse(c, http.StatusUnprocessableEntity, "could not detect the period of the workbook; pass month and year")
			return
		}
		month, year = p.Month, p.Year

		if len(days) == 0 {
			sel, err := converter.ParseSelection(req.Select)
			if err != nil {
				errorResponse(c, http.StatusBadRequest, err.Error())
				return
			}
			days = p.Select(sel)
		}
	}
	if len(days) == 0 {
		errorResponse(c, http.StatusUnprocessableEntity, "no days selected")
		return
	}

	s.generateMu.Lock()
	result := s.conv.GenerateDays(c.Request.Context(), req.File, req.Outlet, month, year, days, req.OutputDir)
	s.generateMu.Unlock()

	if result.Err != nil {
		c.Error(result.Err)
		status := http.StatusUnprocessableEntity
		var nf *catalog.OutletNotFoundError
		if errors.As(result.Err, &nf) {
			status = http.StatusBadRequest
		}
		errorResponse(c, status, result.Summary())
		return
	}

	resp := generateResponse{
		Status:  string(result.Status()),
		Summary: result.Summary(),
		Written: result.Written(),
		Days:    make([]dayResponse, 0, len(result.Days)),
	}
	for _, d := range result.Days {
		dr := dayResponse{Day: d.Day.Format("2006-01-02"), Files: []fileResponse{}}
		for _, o := range d.Outputs {
			dr.Files = append(dr.Files, fileResponse{Method: string(o.Method), Number: o.Number, Path: o.Path})
		}
		if d.Err != nil {
			dr.Error = d.Err.Error()
		}
		resp.Days = append(resp.Days, dr)
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: result.Status() != converter.StatusNone || result.Failed() == 0,
		Message: resp.Summary,
		Data:    resp,
	})
}
