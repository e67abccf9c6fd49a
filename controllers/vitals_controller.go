package controllers

import (
	"net/http"

	"vitalwatch/models"
	"vitalwatch/services"
	"vitalwatch/utils"

	"github.com/gin-gonic/gin"
)

type VitalsController struct {
	vitalsService *services.VitalsService
}

func NewVitalsController(vitalsService *services.VitalsService) *VitalsController {
	return &VitalsController{vitalsService: vitalsService}
}

// IngestVitals accepts one reading for the authenticated subject and
// runs it through the detection pipeline.
func (vc *VitalsController) IngestVitals(c *gin.Context) {
	subjectID := c.GetString("userID")

	var req models.IngestVitalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(utils.ErrCodeValidation, "Invalid request body"))
		return
	}

	result, err := vc.vitalsService.IngestReading(c.Request.Context(), subjectID, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse(result))
}
