package models

import (
	"fmt"
	"time"
)

// Feeding is a single feeding event, amount in milliliters.
type Feeding struct {
	ID         int64
	TimelineID int64
	FedAt      time.Time
	AmountML   float64
	Note       string
	RecordedBy int64
}

// BreastPumping is a single milk-collection event, amount in milliliters.
type BreastPumping struct {
	ID         int64
	TimelineID int64
	PumpedAt   time.Time
	AmountML   float64
	Note       string
	RecordedBy int64
}

// Temperature measurement methods.
const (
	MeasurementTemporal = "temporal"
	MeasurementTympanic = "tympanic"
	MeasurementAxillary = "axillary"
)

// BodyTemperature is a single temperature reading in degrees Celsius.
type BodyTemperature struct {
	ID          int64
	TimelineID  int64
	MeasuredAt  time.Time
	Temperature float64
	Measurement string
	Note        string
	RecordedBy  int64
}

// ValidateMeasurement checks a temperature measurement method name.
func ValidateMeasurement(m string) error {
	switch m {
	case MeasurementTemporal, MeasurementTympanic, MeasurementAxillary:
		return nil
	}
	return fmt.Errorf("invalid measurement method: %q", m)
}

// GrowthEntry is a growth checkup: weight in kg, height and head
// circumference in cm. Zero values mean the dimension was not measured.
type GrowthEntry struct {
	ID         int64
	TimelineID int64
	MeasuredAt time.Time
	WeightKG   float64
	HeightCM   float64
	HeadCircCM float64
	Note       string
	RecordedBy int64
}

// Diaper change kinds.
const (
	DiaperWet    = "wet"
	DiaperSoiled = "soiled"
	DiaperMixed  = "mixed"
)

// DiaperChange is a single diaper change event.
type DiaperChange struct {
	ID         int64
	TimelineID int64
	ChangedAt  time.Time
	Kind       string
	Note       string
	RecordedBy int64
}

// ValidateDiaperKind checks a diaper change kind name.
func ValidateDiaperKind(k string) error {
	switch k {
	case DiaperWet, DiaperSoiled, DiaperMixed:
		return nil
	}
	return fmt.Errorf("invalid diaper change kind: %q", k)
}
