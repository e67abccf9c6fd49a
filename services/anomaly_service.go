package services

import (
	"fmt"

	"vitalwatch/models"
)

// Population-wide default ranges, used when the subject has no
// personalized baseline for a metric. Weight has no population-wide
// normal, so it is only ever evaluated against a baseline.
var defaultRanges = map[string]models.MetricRange{
	models.MetricHeartRate:        {Min: 60, Max: 100},
	models.MetricSystolic:         {Min: 90, Max: 140},
	models.MetricDiastolic:        {Min: 60, Max: 90},
	models.MetricTemperature:      {Min: 97.0, Max: 99.5},
	models.MetricOxygenSaturation: {Min: 95, Max: 100},
}

// AnomalyService classifies out-of-range vitals. Detection is a pure
// function: no I/O, no clock reads beyond the reading's own timestamp.
type AnomalyService struct{}

func NewAnomalyService() *AnomalyService {
	return &AnomalyService{}
}

// Detect compares each metric present in the reading against the
// subject's baseline range (when set) or the default range. Results come
// back in a fixed order: heart rate, systolic, diastolic, temperature,
// oxygen saturation, weight. Systolic and diastolic are checked
// independently since they can diverge on their own.
func (as *AnomalyService) Detect(reading *models.VitalReading, baseline *models.Baseline) []models.AnomalyResult {
	var anomalies []models.AnomalyResult

	check := func(metric string, value *float64, personal *models.MetricRange) {
		if value == nil {
			return
		}

		r, ok := as.rangeFor(metric, personal)
		if !ok {
			return
		}

		if *value < r.Min || *value > r.Max {
			anomalies = append(anomalies, models.AnomalyResult{
				Metric:      metric,
				Value:       *value,
				Range:       r,
				Severity:    classifySeverity(*value, r),
				Description: describeAnomaly(metric, *value, r),
				Timestamp:   reading.RecordedAt,
			})
		}
	}

	var hr, sys, dia, temp, spo2, weight *models.MetricRange
	if baseline != nil {
		hr = baseline.HeartRate
		sys = baseline.Systolic
		dia = baseline.Diastolic
		temp = baseline.Temperature
		spo2 = baseline.OxygenSaturation
		weight = baseline.Weight
	}

	check(models.MetricHeartRate, reading.HeartRate, hr)
	if reading.BloodPressure != nil {
		check(models.MetricSystolic, &reading.BloodPressure.Systolic, sys)
		check(models.MetricDiastolic, &reading.BloodPressure.Diastolic, dia)
	}
	check(models.MetricTemperature, reading.Temperature, temp)
	check(models.MetricOxygenSaturation, reading.OxygenSaturation, spo2)
	check(models.MetricWeight, reading.Weight, weight)

	return anomalies
}

func (as *AnomalyService) rangeFor(metric string, personal *models.MetricRange) (models.MetricRange, bool) {
	if personal != nil {
		return *personal, true
	}

	r, ok := defaultRanges[metric]
	return r, ok
}

// classifySeverity buckets by percent deviation outside the range:
// deviation = max(min-value, value-max, 0), percent relative to the
// range width. <=10% low, <=25% medium, <=50% high, >50% critical.
func classifySeverity(value float64, r models.MetricRange) models.Severity {
	deviation := 0.0
	if d := r.Min - value; d > deviation {
		deviation = d
	}
	if d := value - r.Max; d > deviation {
		deviation = d
	}

	width := r.Max - r.Min
	if width <= 0 {
		return models.SeverityCritical
	}

	percent := deviation / width * 100

	switch {
	case percent > 50:
		return models.SeverityCritical
	case percent > 25:
		return models.SeverityHigh
	case percent > 10:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

var metricLabels = map[string]string{
	models.MetricHeartRate:        "Heart rate",
	models.MetricSystolic:         "Systolic blood pressure",
	models.MetricDiastolic:        "Diastolic blood pressure",
	models.MetricTemperature:      "Temperature",
	models.MetricOxygenSaturation: "Oxygen saturation",
	models.MetricWeight:           "Weight",
}

func describeAnomaly(metric string, value float64, r models.MetricRange) string {
	label, ok := metricLabels[metric]
	if !ok {
		label = metric
	}

	direction := "above"
	if value < r.Min {
		direction = "below"
	}

	return fmt.Sprintf("%s %.1f is %s the expected range %.1f-%.1f",
		label, value, direction, r.Min, r.Max)
}
