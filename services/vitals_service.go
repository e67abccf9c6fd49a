package services

import (
	"context"
	"time"

	"vitalwatch/interfaces"
	"vitalwatch/models"
	"vitalwatch/utils"

	"github.com/sirupsen/logrus"
)

// VitalsService is the ingestion entry point: it persists the reading,
// runs detection against the subject's baseline, and creates an alert
// when the anomalies warrant one.
type VitalsService struct {
	readings  interfaces.ReadingStore
	profiles  interfaces.ProfileStore
	anomaly   *AnomalyService
	alertSvc  *AlertService
	validator *utils.ValidationService
}

func NewVitalsService(
	readings interfaces.ReadingStore,
	profiles interfaces.ProfileStore,
	anomaly *AnomalyService,
	alertSvc *AlertService,
) *VitalsService {
	return &VitalsService{
		readings:  readings,
		profiles:  profiles,
		anomaly:   anomaly,
		alertSvc:  alertSvc,
		validator: utils.NewValidationService(),
	}
}

// IngestResult reports what one reading produced.
type IngestResult struct {
	Reading   *models.VitalReading   `json:"reading"`
	Anomalies []models.AnomalyResult `json:"anomalies"`
	Alert     *models.Alert          `json:"alert,omitempty"`
}

func (vs *VitalsService) IngestReading(ctx context.Context, subjectID string, req models.IngestVitalsRequest) (*IngestResult, error) {
	if fieldErrors := vs.validator.ValidateStruct(req); len(fieldErrors) > 0 {
		return nil, utils.NewValidationErrorWithDetails("invalid vitals payload", fieldErrors[0].Message)
	}

	reading := &models.VitalReading{
		SubjectID:        subjectID,
		HeartRate:        req.HeartRate,
		BloodPressure:    req.BloodPressure,
		Temperature:      req.Temperature,
		OxygenSaturation: req.OxygenSaturation,
		Weight:           req.Weight,
		Source:           req.Source,
		DeviceID:         req.DeviceID,
		RecordedAt:       time.Now(),
	}
	if req.Source == "" {
		reading.Source = models.ReadingSourceManual
	}
	if req.RecordedAt != nil {
		reading.RecordedAt = *req.RecordedAt
	}

	if err := vs.readings.Create(ctx, reading); err != nil {
		return nil, err
	}

	baseline, err := vs.profiles.GetBaseline(ctx, subjectID)
	if err != nil {
		// Detection still runs on defaults; a flaky profile store must
		// not drop a potentially critical reading.
		logrus.Warnf("Failed to load baseline for subject %s, using defaults: %v", subjectID, err)
		baseline = nil
	}

	anomalies := vs.anomaly.Detect(reading, baseline)

	result := &IngestResult{
		Reading:   reading,
		Anomalies: anomalies,
	}

	if !ShouldAlert(anomalies) {
		return result, nil
	}

	severity := HighestSeverity(anomalies)
	alert, err := vs.alertSvc.CreateAlert(ctx, models.CreateAlertRequest{
		SubjectID: subjectID,
		Type:      models.AlertTypeVitalSigns,
		Severity:  severity,
		Message:   anomalySummary(anomalies),
		Anomalies: anomalies,
	})
	if err != nil {
		// The reading and its anomalies are already durable; surface the
		// alert failure to the caller.
		return result, err
	}

	result.Alert = alert
	return result, nil
}

func anomalySummary(anomalies []models.AnomalyResult) string {
	if len(anomalies) == 0 {
		return ""
	}
	if len(anomalies) == 1 {
		return anomalies[0].Description
	}

	summary := anomalies[0].Description
	for _, anomaly := range anomalies[1:] {
		summary += "; " + anomaly.Description
	}
	return summary
}
