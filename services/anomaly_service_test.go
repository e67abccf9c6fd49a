package services

import (
	"testing"
	"time"

	"vitalwatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectNormalReadingProducesNoAnomalies(t *testing.T) {
	svc := NewAnomalyService()

	reading := &models.VitalReading{
		HeartRate:        floatPtr(72),
		BloodPressure:    &models.BloodPressure{Systolic: 118, Diastolic: 76},
		Temperature:      floatPtr(98.6),
		OxygenSaturation: floatPtr(98),
		RecordedAt:       time.Now(),
	}

	anomalies := svc.Detect(reading, nil)
	assert.Empty(t, anomalies)
}

func TestDetectSeverityBuckets(t *testing.T) {
	svc := NewAnomalyService()

	// Default heart rate range is 60-100, width 40. Deviation percent
	// buckets: <=10 low, <=25 medium, <=50 high, >50 critical.
	tests := []struct {
		name     string
		value    float64
		severity models.Severity
	}{
		{"just above range is low", 102, models.SeverityLow},
		{"boundary 10 percent is low", 104, models.SeverityLow},
		{"above 10 percent is medium", 106, models.SeverityMedium},
		{"above 25 percent is high", 112, models.SeverityHigh},
		{"above 50 percent is critical", 125, models.SeverityCritical},
		{"below range classifies the same way", 48, models.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading := &models.VitalReading{
				HeartRate:  floatPtr(tt.value),
				RecordedAt: time.Now(),
			}

			anomalies := svc.Detect(reading, nil)
			require.Len(t, anomalies, 1)
			assert.Equal(t, models.MetricHeartRate, anomalies[0].Metric)
			assert.Equal(t, tt.severity, anomalies[0].Severity)
		})
	}
}

func TestDetectUsesBaselineOverDefaults(t *testing.T) {
	svc := NewAnomalyService()

	// 140 bpm is anomalous against the defaults but normal for this
	// subject's personalized range.
	reading := &models.VitalReading{
		HeartRate:  floatPtr(140),
		RecordedAt: time.Now(),
	}
	baseline := &models.Baseline{
		HeartRate: &models.MetricRange{Min: 100, Max: 160},
	}

	assert.Empty(t, svc.Detect(reading, baseline))
	assert.Len(t, svc.Detect(reading, nil), 1)
}

func TestDetectChecksBloodPressureComponentsIndependently(t *testing.T) {
	svc := NewAnomalyService()

	reading := &models.VitalReading{
		BloodPressure: &models.BloodPressure{Systolic: 170, Diastolic: 110},
		RecordedAt:    time.Now(),
	}

	anomalies := svc.Detect(reading, nil)
	require.Len(t, anomalies, 2)
	assert.Equal(t, models.MetricSystolic, anomalies[0].Metric)
	assert.Equal(t, models.MetricDiastolic, anomalies[1].Metric)
}

func TestDetectWeightRequiresBaseline(t *testing.T) {
	svc := NewAnomalyService()

	reading := &models.VitalReading{
		Weight:     floatPtr(400),
		RecordedAt: time.Now(),
	}

	// No population-wide default exists for weight.
	assert.Empty(t, svc.Detect(reading, nil))

	baseline := &models.Baseline{
		Weight: &models.MetricRange{Min: 150, Max: 180},
	}
	anomalies := svc.Detect(reading, baseline)
	require.Len(t, anomalies, 1)
	assert.Equal(t, models.MetricWeight, anomalies[0].Metric)
	assert.Equal(t, models.SeverityCritical, anomalies[0].Severity)
}

func TestDetectReportsAnomaliesInFixedOrder(t *testing.T) {
	svc := NewAnomalyService()

	reading := &models.VitalReading{
		HeartRate:        floatPtr(150),
		BloodPressure:    &models.BloodPressure{Systolic: 180, Diastolic: 110},
		Temperature:      floatPtr(103),
		OxygenSaturation: floatPtr(85),
		RecordedAt:       time.Now(),
	}

	anomalies := svc.Detect(reading, nil)
	require.Len(t, anomalies, 5)

	order := []string{
		models.MetricHeartRate,
		models.MetricSystolic,
		models.MetricDiastolic,
		models.MetricTemperature,
		models.MetricOxygenSaturation,
	}
	for i, metric := range order {
		assert.Equal(t, metric, anomalies[i].Metric)
	}
}

func TestDetectDescriptionNamesMetricAndDirection(t *testing.T) {
	svc := NewAnomalyService()

	recordedAt := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	reading := &models.VitalReading{
		HeartRate:  floatPtr(150),
		RecordedAt: recordedAt,
	}

	anomalies := svc.Detect(reading, nil)
	require.Len(t, anomalies, 1)

	assert.Equal(t, "Heart rate 150.0 is above the expected range 60.0-100.0", anomalies[0].Description)
	assert.Equal(t, recordedAt, anomalies[0].Timestamp)
	assert.Equal(t, models.MetricRange{Min: 60, Max: 100}, anomalies[0].Range)

	reading.HeartRate = floatPtr(40)
	anomalies = svc.Detect(reading, nil)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "Heart rate 40.0 is below the expected range 60.0-100.0", anomalies[0].Description)
}

func TestDetectSkipsAbsentMetrics(t *testing.T) {
	svc := NewAnomalyService()

	anomalies := svc.Detect(&models.VitalReading{RecordedAt: time.Now()}, nil)
	assert.Empty(t, anomalies)
}
