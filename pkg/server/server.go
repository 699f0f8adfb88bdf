package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/analogdevicesinc/automl-embedded/pkg/controller"
	"github.com/analogdevicesinc/automl-embedded/pkg/reports"
	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
	"github.com/analogdevicesinc/automl-embedded/pkg/state"
	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
)

// Options wires the server to a controller and the host pieces it was
// created with
type Options struct {
	Controller    *controller.Controller
	Mailbox       *Mailbox
	Notifications *Notifications
	Output        *OutputLog
	Reports       *reports.Index
	Store         *state.Store
	Workspace     string
	Log           logr.Logger
}

// Server exposes the view protocol over HTTP
type Server struct {
	opts Options
}

func New(opts Options) *Server {
	if opts.Log.GetSink() == nil {
		opts.Log = logr.Discard()
	}
	return &Server{opts: opts}
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	api := r.Group("/api")
	{
		messages := api.Group("/messages")
		{
			messages.POST("", s.PostMessage)
			messages.GET("", s.GetMessages)
		}

		api.GET("/notifications", s.GetNotifications)
		api.GET("/output", s.GetOutput)
		api.GET("/state", s.GetState)
		api.POST("/visibility", s.SetVisibility)
		api.POST("/refresh", s.Refresh)
		api.POST("/run/cancel", s.CancelRun)

		rep := api.Group("/reports")
		{
			rep.GET("", s.ListReports)
			rep.GET("/:name/models", s.ListModels)
			rep.GET("/:name/html", s.ReportHTML)
			rep.POST("/:name/models/:model/choose", s.ChooseModel)
		}
	}

	return r
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.opts.Log.V(1).Info("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// PostMessage handles one inbound view message
func (s *Server) PostMessage(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := controller.DecodeInbound(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.opts.Controller.Handle(c.Request.Context(), msg); err != nil {
		var missing *controller.MissingFieldsError
		switch {
		case errors.As(err, &missing):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "fields": missing.Fields})
		case errors.Is(err, controller.ErrEnvironment), errors.Is(err, scenario.ErrInvalidNumber):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, controller.ErrRunInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, state.ErrUnknownKey), errors.Is(err, controller.ErrNotGettable):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// GetMessages drains the messages queued for the view
func (s *Server) GetMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": s.opts.Mailbox.Drain()})
}

func (s *Server) GetNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": s.opts.Notifications.Drain()})
}

// GetOutput returns the output channel from the given offset
func (s *Server) GetOutput(c *gin.Context) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return
	}
	text, next := s.opts.Output.ReadFrom(offset)
	c.JSON(http.StatusOK, gin.H{"output": text, "offset": next})
}

func (s *Server) GetState(c *gin.Context) {
	resp := gin.H{"state": s.opts.Controller.State().String()}
	if run := s.opts.Controller.ActiveRun(); run != nil {
		resp["runDir"] = run.Dir.Rel
	}
	c.JSON(http.StatusOK, resp)
}

// SetVisibility restores the form when the view becomes visible
func (s *Server) SetVisibility(c *gin.Context) {
	var req struct {
		Visible *bool `json:"visible" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.opts.Mailbox.SetVisible(*req.Visible)
	if *req.Visible {
		s.opts.Controller.RestoreState()
	}
	c.JSON(http.StatusOK, gin.H{"visible": *req.Visible})
}

func (s *Server) Refresh(c *gin.Context) {
	s.opts.Controller.RefreshConfiguration(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

func (s *Server) CancelRun(c *gin.Context) {
	run := s.opts.Controller.ActiveRun()
	if run == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no run in progress"})
		return
	}
	run.Cancel()
	c.JSON(http.StatusAccepted, gin.H{"runDir": run.Dir.Rel})
}

func (s *Server) ListReports(c *gin.Context) {
	s.opts.Reports.RefreshReports()
	c.JSON(http.StatusOK, gin.H{"reports": s.opts.Reports.Reports()})
}

func (s *Server) lookupReport(c *gin.Context) (reports.Report, bool) {
	r, ok := s.opts.Reports.Lookup(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
	}
	return r, ok
}

// ListModels returns the models of a report with their classification metrics
func (s *Server) ListModels(c *gin.Context) {
	r, ok := s.lookupReport(c)
	if !ok {
		return
	}
	models, err := reports.LoadSummary(r)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	for i := range models {
		models[i].Metrics = models[i].ClassificationMetrics()
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func (s *Server) ReportHTML(c *gin.Context) {
	r, ok := s.lookupReport(c)
	if !ok {
		return
	}
	html, err := reports.RenderHTML(r)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// ChooseModel copies a model to the given target, or to the stored
// targetModelPath when none is given
func (s *Server) ChooseModel(c *gin.Context) {
	r, ok := s.lookupReport(c)
	if !ok {
		return
	}
	var req struct {
		Target string `json:"target"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	models, err := reports.LoadSummary(r)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	var model *reports.ModelSummary
	for i := range models {
		if models[i].ModelName == c.Param("model") {
			model = &models[i]
		}
	}
	if model == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "model not found"})
		return
	}

	target := req.Target
	if target == "" {
		target = state.Get(s.opts.Store, state.TargetModelPath, "")
	} else if err := s.opts.Store.Update(state.TargetModelPath, target); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	saved, err := reports.ChooseModel(s.opts.Workspace, *model, target)
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrNoTarget), errors.Is(err, reports.ErrTargetIsDirectory):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, reports.ErrScenarioNotFound), errors.Is(err, reports.ErrNoModelPath):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	if req.Target != "" {
		s.opts.Mailbox.Post(controller.SetField{ElementName: controller.ElementTargetPath, Value: req.Target})
	}
	s.opts.Notifications.ShowInfo("Model is saved to " + saved)
	c.JSON(http.StatusOK, gin.H{"target": saved})
}
