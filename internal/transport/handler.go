package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "go-color-inspector/internal/errors"
	"go-color-inspector/internal/logger"
	"go-color-inspector/internal/service"
	"go-color-inspector/pkg/models"
)

// CalibrationRequest carries an explicit LAB reference. When FromCurrent is
// set the body's LAB values are ignored and the latest measurement is used.
type CalibrationRequest struct {
	L           float64 `json:"l"`
	A           float64 `json:"a"`
	B           float64 `json:"b"`
	FromCurrent bool    `json:"from_current,omitempty"`
}

type SampleSizeRequest struct {
	SizeCM float64 `json:"size_cm" binding:"required"`
}

type MethodRequest struct {
	Method string `json:"method" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler builds the dashboard API router.
func NewHandler(svc service.InspectionService, requestTimeout time.Duration, csvHeader bool) http.Handler {
	r := gin.Default()
	r.Use(errorHandler())

	r.GET("/health", healthCheck(svc))

	api := r.Group("/api/v1")
	{
		api.GET("/analysis/latest", latestAnalysis(svc))
		api.GET("/statistics", statistics(svc))
		api.GET("/history/export", exportHistory(svc, requestTimeout, csvHeader))

		api.POST("/calibrate", calibrate(svc))
		api.POST("/calibrate/reset", resetCalibration(svc))
		api.POST("/sample-size", setSampleSize(svc))
		api.POST("/method", setMethod(svc))
		api.POST("/history/clear", clearHistory(svc))
		api.POST("/history/save", saveHistory(svc, requestTimeout))
	}

	return r
}

func healthCheck(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := svc.Status(c.Request.Context())

		code := http.StatusOK
		state := "available"
		if status.WorkerFaulted {
			code = http.StatusServiceUnavailable
			state = "faulted"
		}

		c.JSON(code, gin.H{
			"status": state,
			"detail": status,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func latestAnalysis(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, grade, err := svc.Latest(c.Request.Context())
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "no analysis available", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"result": result,
			"grade":  grade,
		})
	}
}

func statistics(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		forceRefresh := c.Query("refresh") == "true"

		stats, err := svc.Statistics(c.Request.Context(), forceRefresh)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "no statistics available", err)
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

func exportHistory(svc service.InspectionService, timeout time.Duration, csvHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		filename := fmt.Sprintf("de_history_%s.csv", time.Now().UTC().Format("20060102_150405"))
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		if err := svc.ExportCSV(ctx, c.Writer, csvHeader); err != nil {
			// Headers may already be out; log instead of rewriting the response.
			logger.WithError(err).Error("CSV export failed mid-stream")
		}
	}
}

func calibrate(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CalibrationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		if req.FromCurrent {
			lab, err := svc.CalibrateFromCurrent(c.Request.Context())
			if err != nil {
				respondError(c, apperrors.GetStatusCode(err), "calibration failed", err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"calibrated": true, "reference": lab})
			return
		}

		lab := models.LabColor{L: req.L, A: req.A, B: req.B}
		if err := svc.Calibrate(c.Request.Context(), lab); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "calibration failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"l": lab.L, "a": lab.A, "b": lab.B, "ip": c.ClientIP(),
		}).Info("Calibration requested")

		c.JSON(http.StatusOK, gin.H{"calibrated": true, "reference": lab})
	}
}

func resetCalibration(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.ResetCalibration(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"calibrated": false})
	}
}

func setSampleSize(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SampleSizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		if err := svc.SetSampleSize(c.Request.Context(), req.SizeCM); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid sample size", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"sample_size_cm": req.SizeCM})
	}
}

func setMethod(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MethodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		method, err := svc.SetMethod(c.Request.Context(), req.Method)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid delta-E method", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"method": method})
	}
}

func clearHistory(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.ClearHistory(c.Request.Context())
		logger.WithField("ip", c.ClientIP()).Info("History cleared via API")
		c.JSON(http.StatusOK, gin.H{"cleared": true})
	}
}

func saveHistory(svc service.InspectionService, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		if err := svc.SaveHistory(ctx); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to save history", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"saved": true})
	}
}

// Middleware and helper functions
func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
