package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skufu/strokecare/internal/intake"
	"github.com/Skufu/strokecare/internal/narrative"
	"github.com/Skufu/strokecare/internal/report"
	"github.com/Skufu/strokecare/internal/store"
	"github.com/Skufu/strokecare/internal/stroke"
)

const persistTimeout = 3 * time.Second

type predictResponse struct {
	Success          bool                 `json:"success"`
	ID               string               `json:"id,omitempty"`
	RiskPercentage   int                  `json:"risk_percentage"`
	RiskLevel        stroke.Level         `json:"risk_level"`
	RiskFactors      []string             `json:"risk_factors"`
	Explanation      []string             `json:"explanation"`
	AIInsights       string               `json:"ai_insights"`
	InsightsSource   string               `json:"insights_source,omitempty"`
	BinaryPrediction *int                 `json:"binary_prediction"`
	Source           stroke.Source        `json:"source"`
	Degraded         []stroke.Degradation `json:"degraded,omitempty"`
	Timestamp        time.Time            `json:"timestamp"`
}

type reportRequest struct {
	PatientData intake.Form     `json:"patient_data"`
	Result      predictResponse `json:"result"`
}

func (a *App) health(c *gin.Context) {
	models := gin.H{}
	if m := a.models.Binary; m != nil {
		models["binary"] = m.Info()
	}
	if m := a.models.Probability; m != nil {
		models["probability"] = m.Info()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                   "healthy",
		"binary_model_loaded":      a.models.Binary != nil,
		"probability_model_loaded": a.models.Probability != nil,
		"models":                   models,
	})
}

func (a *App) predict(c *gin.Context) {
	var form intake.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
		return
	}

	profile, ok := a.profileFrom(c, form)
	if !ok {
		return
	}

	result := a.arbiter.Assess(profile, a.models.BinaryPredictor(), a.models.ProbabilityPredictor())
	a.metrics.RecordAssessment(string(result.Source), string(result.Level))

	insight := a.narrative.Insights(c.Request.Context(), narrative.Request{
		Profile:    profile,
		Level:      result.Level,
		Percentage: result.Percentage,
		Factors:    result.Factors,
	})

	resp := predictResponse{
		Success:          true,
		RiskPercentage:   result.Percentage,
		RiskLevel:        result.Level,
		RiskFactors:      result.Factors,
		Explanation:      result.Explanations,
		AIInsights:       insight.Text,
		InsightsSource:   insight.Source,
		BinaryPrediction: result.BinaryPrediction(),
		Source:           result.Source,
		Degraded:         result.Degraded,
		Timestamp:        a.now().UTC(),
	}

	if a.store != nil {
		rec := store.Record{
			ID:         uuid.New(),
			CreatedAt:  resp.Timestamp,
			Profile:    profile,
			Assessment: result,
			Insights:   insight.Text,
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), persistTimeout)
		err := a.store.Save(ctx, rec)
		cancel()
		if err != nil {
			a.logger.Error("persist assessment failed", zap.Error(err))
			a.metrics.RecordPersistFailure()
		} else {
			resp.ID = rec.ID.String()
		}
	}

	c.JSON(http.StatusOK, resp)
}

// profileFrom writes the error response itself and reports whether the
// handler may continue.
func (a *App) profileFrom(c *gin.Context, form intake.Form) (stroke.Profile, bool) {
	profile, err := form.Profile()
	if err == nil {
		return profile, true
	}

	var coerce *intake.CoercionError
	var invalid *intake.ValidationError
	switch {
	case errors.As(err, &coerce):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": coerce.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error":   "validation_failed",
			"details": invalid.Problems,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	}
	return stroke.Profile{}, false
}

func (a *App) getAssessment(c *gin.Context) {
	if a.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "persistence disabled"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	rec, err := a.store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
		return
	}
	if err != nil {
		a.logger.Error("load assessment failed", zap.String("id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load assessment"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (a *App) downloadReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
		return
	}

	profile, ok := a.profileFrom(c, req.PatientData)
	if !ok {
		return
	}

	generatedAt := a.now()
	data := report.Data{
		Profile:     profile,
		Percentage:  req.Result.RiskPercentage,
		Level:       req.Result.RiskLevel,
		Factors:     req.Result.RiskFactors,
		Explanation: req.Result.Explanation,
		Binary:      req.Result.BinaryPrediction,
		Insights:    req.Result.AIInsights,
		GeneratedAt: generatedAt,
	}
	if data.Level == "" {
		data.Level = stroke.LevelFor(data.Percentage)
	}

	switch format := strings.ToLower(c.DefaultQuery("format", "txt")); format {
	case "txt":
		attach(c, report.Filename(generatedAt, "txt"), "text/plain; charset=utf-8", []byte(report.Text(data)))
	case "xlsx":
		body, err := report.XLSX(data)
		if err != nil {
			a.logger.Error("render xlsx report failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to render report"})
			return
		}
		attach(c, report.Filename(generatedAt, "xlsx"),
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", body)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unsupported format " + format})
	}
}

func attach(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}
