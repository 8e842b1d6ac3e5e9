package httpapi

import (
	"net/http"

	"github.com/code19m/errx"
	"github.com/labstack/echo/v4"

	"github.com/crystaldolphin/cronkeeper/internal/cron"
	"github.com/crystaldolphin/cronkeeper/internal/crontab"
)

type scheduleRequest struct {
	Expression string `json:"expression" validate:"required"`
	Command    string `json:"command" validate:"required"`
}

type scheduleResponse struct {
	Message string `json:"message"`
	Cron    string `json:"cron"`
}

type deleteResponse struct {
	DeletedCount int                     `json:"deleted_count"`
	Preview      bool                    `json:"preview"`
	MatchedJobs  []crontab.ScheduleEntry `json:"matched_jobs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createSchedule(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	sched, err := s.parser.Normalize(req.Expression)
	if err != nil {
		return writeError(c, err)
	}

	entry := crontab.ScheduleEntry{Schedule: sched, Command: req.Command, Managed: true}
	if err := s.repo.Add(c.Request().Context(), entry); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, scheduleResponse{Message: "Scheduled", Cron: entry.ToLine()})
}

func (s *Server) listSchedules(c echo.Context) error {
	entries, err := s.repo.List(c.Request().Context(), s.opts.ManagedOnly)
	if err != nil {
		return writeError(c, err)
	}
	return s.streamEntries(c, entries)
}

func (s *Server) deleteSchedule(c echo.Context) error {
	preview := true
	if err := echo.QueryParamsBinder(c).Bool("preview", &preview).BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "preview must be a boolean"})
	}

	res, err := s.repo.Remove(c.Request().Context(), cron.RemoveRequest{
		Command: c.QueryParam("command"),
		Marker:  c.QueryParam("comment"),
		Preview: preview,
	})
	if err != nil {
		return writeError(c, err)
	}

	resp := deleteResponse{
		Preview:     preview,
		MatchedJobs: res.Matched,
	}
	if !preview {
		resp.DeletedCount = res.Count
	}
	if resp.MatchedJobs == nil {
		resp.MatchedJobs = []crontab.ScheduleEntry{}
	}
	return c.JSON(http.StatusOK, resp)
}

// writeError renders err as {"error": ...}. Validation failures are the
// caller's fault (400); everything else is a server error (500).
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	if errx.GetType(err) == errx.T_Validation {
		status = http.StatusBadRequest
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}
