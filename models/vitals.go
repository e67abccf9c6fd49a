package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Metric names used across readings, baselines and anomaly results.
const (
	MetricHeartRate        = "heart_rate"
	MetricSystolic         = "blood_pressure_systolic"
	MetricDiastolic        = "blood_pressure_diastolic"
	MetricTemperature      = "temperature"
	MetricOxygenSaturation = "oxygen_saturation"
	MetricWeight           = "weight"
)

const (
	ReadingSourceManual = "manual"
	ReadingSourceDevice = "device"
)

type BloodPressure struct {
	Systolic  float64 `json:"systolic" bson:"systolic"`
	Diastolic float64 `json:"diastolic" bson:"diastolic"`
}

// VitalReading is an immutable snapshot of measured vitals. Metrics the
// device or caregiver did not capture are nil.
type VitalReading struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SubjectID string             `json:"subjectId" bson:"subjectId"`

	HeartRate        *float64       `json:"heartRate,omitempty" bson:"heartRate,omitempty"`
	BloodPressure    *BloodPressure `json:"bloodPressure,omitempty" bson:"bloodPressure,omitempty"`
	Temperature      *float64       `json:"temperature,omitempty" bson:"temperature,omitempty"`
	OxygenSaturation *float64       `json:"oxygenSaturation,omitempty" bson:"oxygenSaturation,omitempty"`
	Weight           *float64       `json:"weight,omitempty" bson:"weight,omitempty"`

	Source     string    `json:"source" bson:"source"` // manual, device
	DeviceID   string    `json:"deviceId,omitempty" bson:"deviceId,omitempty"`
	RecordedAt time.Time `json:"recordedAt" bson:"recordedAt"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// MetricRange is an inclusive [Min, Max] expected band for one metric.
type MetricRange struct {
	Min float64 `json:"min" bson:"min"`
	Max float64 `json:"max" bson:"max"`
}

// Baseline holds per-subject personalized ranges. Any nil range falls
// back to the population default for that metric.
type Baseline struct {
	SubjectID        string       `json:"subjectId" bson:"subjectId"`
	HeartRate        *MetricRange `json:"heartRate,omitempty" bson:"heartRate,omitempty"`
	Systolic         *MetricRange `json:"systolic,omitempty" bson:"systolic,omitempty"`
	Diastolic        *MetricRange `json:"diastolic,omitempty" bson:"diastolic,omitempty"`
	Temperature      *MetricRange `json:"temperature,omitempty" bson:"temperature,omitempty"`
	OxygenSaturation *MetricRange `json:"oxygenSaturation,omitempty" bson:"oxygenSaturation,omitempty"`
	Weight           *MetricRange `json:"weight,omitempty" bson:"weight,omitempty"`
	UpdatedAt        time.Time    `json:"updatedAt" bson:"updatedAt"`
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the position of s in the fixed ordering
// low < medium < high < critical. Unknown severities rank below low.
func (s Severity) Rank() int {
	return severityRank[s]
}

func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// AnomalyResult is one out-of-range metric with its classification. It is
// produced fresh per detection call and embedded into alerts, never
// stored on its own.
type AnomalyResult struct {
	Metric      string      `json:"metric" bson:"metric"`
	Value       float64     `json:"value" bson:"value"`
	Range       MetricRange `json:"range" bson:"range"`
	Severity    Severity    `json:"severity" bson:"severity"`
	Description string      `json:"description" bson:"description"`
	Timestamp   time.Time   `json:"timestamp" bson:"timestamp"`
}

type IngestVitalsRequest struct {
	HeartRate        *float64       `json:"heartRate,omitempty" validate:"omitempty,gt=0"`
	BloodPressure    *BloodPressure `json:"bloodPressure,omitempty"`
	Temperature      *float64       `json:"temperature,omitempty" validate:"omitempty,gt=0"`
	OxygenSaturation *float64       `json:"oxygenSaturation,omitempty" validate:"omitempty,gt=0,lte=100"`
	Weight           *float64       `json:"weight,omitempty" validate:"omitempty,gt=0"`
	Source           string         `json:"source" validate:"omitempty,oneof=manual device"`
	DeviceID         string         `json:"deviceId,omitempty"`
	RecordedAt       *time.Time     `json:"recordedAt,omitempty"`
}
