package controllers

import (
	"net/http"

	"vitalwatch/interfaces"
	"vitalwatch/models"
	"vitalwatch/utils"

	"github.com/gin-gonic/gin"
)

type PreferenceController struct {
	profiles  interfaces.ProfileStore
	validator *utils.ValidationService
}

func NewPreferenceController(profiles interfaces.ProfileStore) *PreferenceController {
	return &PreferenceController{
		profiles:  profiles,
		validator: utils.NewValidationService(),
	}
}

func (pc *PreferenceController) GetPreferences(c *gin.Context) {
	recipientID := c.GetString("userID")

	prefs, err := pc.profiles.GetPreferences(c.Request.Context(), recipientID)
	if err != nil {
		c.Error(err)
		return
	}
	if prefs == nil {
		// No record means platform defaults: everything, everywhere.
		prefs = &models.RecipientPreferences{
			RecipientID: recipientID,
			Channels:    models.AllChannels(),
		}
	}

	c.JSON(http.StatusOK, models.SuccessResponse(prefs))
}

func (pc *PreferenceController) UpdatePreferences(c *gin.Context) {
	recipientID := c.GetString("userID")

	var req models.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(utils.ErrCodeValidation, "Invalid request body"))
		return
	}
	if fieldErrors := pc.validator.ValidateStruct(req); len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(utils.ErrCodeValidation, fieldErrors[0].Message))
		return
	}

	prefs := &models.RecipientPreferences{
		Channels:   req.Channels,
		AlertTypes: req.AlertTypes,
		QuietHours: req.QuietHours,
	}

	if err := pc.profiles.UpdatePreferences(c.Request.Context(), recipientID, prefs); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse(prefs))
}
