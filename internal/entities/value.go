package entities

import (
	"strconv"
	"time"
)

// ValueKind tells which member of a Value is set
type ValueKind uint8

const (
	// KindFloat marks a decimal measurement
	KindFloat ValueKind = iota + 1
	// KindEpoch marks a timestamp in Unix seconds
	KindEpoch
)

func (k ValueKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindEpoch:
		return "epoch"
	default:
		return "unknown"
	}
}

// Value is a single typed value scraped from the page
type Value struct {
	Kind  ValueKind
	Float float64
	Epoch int64
}

// FloatValue wraps a decimal measurement
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// EpochValue wraps a Unix timestamp
func EpochValue(sec int64) Value {
	return Value{Kind: KindEpoch, Epoch: sec}
}

func (v Value) String() string {
	switch v.Kind {
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindEpoch:
		return time.Unix(v.Epoch, 0).Format("02.01.2006 15:04")
	default:
		return "<invalid>"
	}
}
