package controllers

import (
	"net/http"
	"strconv"
	"time"

	"vitalwatch/models"
	"vitalwatch/services"
	"vitalwatch/utils"

	"github.com/gin-gonic/gin"
)

type AlertController struct {
	alertService *services.AlertService
}

func NewAlertController(alertService *services.AlertService) *AlertController {
	return &AlertController{alertService: alertService}
}

func (ac *AlertController) CreateAlert(c *gin.Context) {
	var req models.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(utils.ErrCodeValidation, "Invalid request body"))
		return
	}
	if req.SubjectID == "" {
		req.SubjectID = c.GetString("userID")
	}

	alert, err := ac.alertService.CreateAlert(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse(alert))
}

func (ac *AlertController) GetAlert(c *gin.Context) {
	timestamp, ok := ac.timestampParam(c)
	if !ok {
		return
	}

	alert, err := ac.alertService.GetAlert(c.Request.Context(), c.Param("id"), timestamp)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse(alert))
}

func (ac *AlertController) ListAlerts(c *gin.Context) {
	subjectID := c.Query("subjectId")
	if subjectID == "" {
		subjectID = c.GetString("userID")
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var (
		alerts []models.Alert
		err    error
	)

	if status := c.Query("status"); status != "" {
		acknowledged := status == "acknowledged"
		alerts, err = ac.alertService.ListAlertsByStatus(c.Request.Context(), subjectID, acknowledged, limit)
	} else {
		alerts, err = ac.alertService.ListAlerts(c.Request.Context(), subjectID, limit)
	}

	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse(alerts))
}

func (ac *AlertController) AcknowledgeAlert(c *gin.Context) {
	timestamp, ok := ac.timestampParam(c)
	if !ok {
		return
	}

	actorID := c.GetString("userID")
	err := ac.alertService.AcknowledgeAlert(c.Request.Context(), c.Param("id"), timestamp, actorID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"acknowledged": true}))
}

func (ac *AlertController) EscalateAlert(c *gin.Context) {
	timestamp, ok := ac.timestampParam(c)
	if !ok {
		return
	}

	var req models.EscalateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(utils.ErrCodeValidation, "Invalid request body"))
		return
	}

	alert, err := ac.alertService.EscalateAlert(c.Request.Context(), c.Param("id"), timestamp, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse(alert))
}

// timestampParam reads the alert's creation timestamp, half of the
// composite alert key.
func (ac *AlertController) timestampParam(c *gin.Context) (time.Time, bool) {
	raw := c.Query("ts")
	if raw == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(utils.ErrCodeValidation, "Query parameter ts is required"))
		return time.Time{}, false
	}

	timestamp, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(utils.ErrCodeValidation, "Invalid ts, expected RFC3339"))
		return time.Time{}, false
	}

	return timestamp, true
}
