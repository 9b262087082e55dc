package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/pipeline"
	"github.com/ppiankov/watchdog/internal/store"
)

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Prompt string `json:"prompt" binding:"required,min=1"`
	Domain string `json:"domain" binding:"omitempty,watchdog_domain"`
	Role   string `json:"role" binding:"omitempty,oneof=user admin"`
}

// ChatResponse is what /api/chat returns. Fields after Confidence are admin-only.
type ChatResponse struct {
	ID                 int64           `json:"id"`
	UserOutput         string          `json:"user_output"`
	Action             model.Action    `json:"action"`
	WarningText        string          `json:"warning_text,omitempty"`
	Confidence         float64         `json:"confidence"`
	Timestamp          *time.Time      `json:"timestamp,omitempty"`
	Prompt             string          `json:"prompt,omitempty"`
	GPTRawAnswer       string          `json:"gpt_raw_answer,omitempty"`
	RAGStatus          string          `json:"rag_status,omitempty"`
	ContradictionCheck string          `json:"contradiction_check,omitempty"`
	RiskScore          *int            `json:"risk_score,omitempty"`
	Explanation        string          `json:"explanation,omitempty"`
	Metadata           *model.Metadata `json:"metadata,omitempty"`
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Prompt string `json:"prompt" binding:"required,min=1"`
	Domain string `json:"domain" binding:"omitempty,watchdog_domain"`
}

func errorBody(msg string) gin.H {
	return gin.H{"detail": msg}
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := s.gateway.Chat(c.Request.Context(), req.Prompt, model.ParseDomain(req.Domain))
	if err != nil {
		s.fail(c, "chat request failed", err)
		return
	}

	out := ChatResponse{
		ID:          res.Record.ID,
		UserOutput:  res.Enforcement.Response,
		Action:      res.Enforcement.FinalAction,
		WarningText: res.Enforcement.WarningText,
		Confidence:  res.Confidence,
	}
	if req.Role == "admin" {
		ts := res.Record.Timestamp
		score := res.Enforcement.RiskScore
		meta := res.Report.Metadata
		out.Timestamp = &ts
		out.Prompt = res.Prompt
		out.GPTRawAnswer = res.RawAnswer
		out.RAGStatus = res.Record.RAGStatus
		out.ContradictionCheck = res.Record.ContradictionCheck
		out.RiskScore = &score
		out.Explanation = res.Enforcement.Explanation
		out.Metadata = &meta
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := s.gateway.Analyze(c.Request.Context(), req.Prompt, model.ParseDomain(req.Domain))
	if err != nil {
		s.fail(c, "analyze request failed", err)
		return
	}
	c.JSON(http.StatusOK, res.Enforcement)
}

func (s *Server) handleListPrompts(c *gin.Context) {
	c.JSON(http.StatusOK, s.records.List())
}

func (s *Server) handleGetPrompt(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("prompt id must be an integer"))
		return
	}

	rec, err := s.records.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody("Prompt with ID "+strconv.FormatInt(id, 10)+" not found"))
		return
	}
	if err != nil {
		s.fail(c, "failed to retrieve prompt", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
		"version": s.version,
	})
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": ServiceName,
		"version": s.version,
		"engine":  s.info,
	})
}

func (s *Server) fail(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	s.log.Error(msg, zap.Error(err))
	status := http.StatusInternalServerError
	if errors.Is(err, pipeline.ErrEmptyPrompt) {
		status = http.StatusBadRequest
	}
	c.JSON(status, errorBody(msg+": "+err.Error()))
}
