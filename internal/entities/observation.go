// Package entities contains the core domain objects for the reservoir scraper
package entities

import (
	"fmt"
	"time"
)

// ObservationFields lists the observation columns in the order the values
// appear on the status page. The first field is the timestamp, the rest are floats.
var ObservationFields = []string{
	"time",
	"surface",
	"volume",
	"inflow",
	"drain",
	"rainfall",
	"temperature",
}

// ObservationArity is the number of values that make up one observation
var ObservationArity = len(ObservationFields)

// Observation is one timestamped set of reservoir measurements
type Observation struct {
	ID          int64
	Time        int64   // Unix epoch seconds of the measurement
	Surface     float64 // Surface elevation
	Volume      float64 // Stored volume
	Inflow      float64 // Inflow rate
	Drain       float64 // Outflow rate
	Rainfall    float64 // Precipitation reading
	Temperature float64 // Water temperature
}

// NewObservation maps an extracted value sequence onto the named observation
// fields. It fails with ErrDataShape when the count or a value kind does not fit.
func NewObservation(values []Value) (Observation, error) {
	if len(values) != ObservationArity {
		return Observation{}, fmt.Errorf("%w: got %d values, want %d", ErrDataShape, len(values), ObservationArity)
	}

	if values[0].Kind != KindEpoch {
		return Observation{}, fmt.Errorf("%w: field %q must be a timestamp, got %s", ErrDataShape, ObservationFields[0], values[0].Kind)
	}

	floats := make([]float64, 0, ObservationArity-1)
	for i, v := range values[1:] {
		if v.Kind != KindFloat {
			return Observation{}, fmt.Errorf("%w: field %q must be a float, got %s", ErrDataShape, ObservationFields[i+1], v.Kind)
		}
		floats = append(floats, v.Float)
	}

	return Observation{
		Time:        values[0].Epoch,
		Surface:     floats[0],
		Volume:      floats[1],
		Inflow:      floats[2],
		Drain:       floats[3],
		Rainfall:    floats[4],
		Temperature: floats[5],
	}, nil
}

// Timestamp returns the observation time as a time.Time in the local zone
func (o Observation) Timestamp() time.Time {
	return time.Unix(o.Time, 0)
}

// Values returns the observation back as its ordered value sequence
func (o Observation) Values() []Value {
	return []Value{
		EpochValue(o.Time),
		FloatValue(o.Surface),
		FloatValue(o.Volume),
		FloatValue(o.Inflow),
		FloatValue(o.Drain),
		FloatValue(o.Rainfall),
		FloatValue(o.Temperature),
	}
}
