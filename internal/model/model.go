package model

import "strings"

type Periodicity string

const (
	PeriodicityAnnual    Periodicity = "ANNUAL"
	PeriodicityQuarterly Periodicity = "QUARTERLY"
	PeriodicityMonthly   Periodicity = "MONTHLY"
)

type DimensionType string

const (
	DimensionClassification DimensionType = "CLASSIFICATION"
	DimensionTemporal       DimensionType = "TEMPORAL"
	DimensionTerritorial    DimensionType = "TERRITORIAL"
	DimensionUnitOfMeasure  DimensionType = "UNIT_OF_MEASURE"
)

type TimePeriod struct {
	Year        int         `json:"year"`
	Quarter     *int        `json:"quarter,omitempty"`
	Month       *int        `json:"month,omitempty"`
	Periodicity Periodicity `json:"periodicity,omitempty"`
	ISOPeriod   string      `json:"iso_period,omitempty"`
}

// Unit fields are present only when non-nil and non-blank.
type Unit struct {
	Code   *string `json:"code,omitempty"`
	Symbol *string `json:"symbol,omitempty"`
	Name   *string `json:"name,omitempty"`
}

type Classification struct {
	ID        *int64 `json:"id,omitempty"`
	TypeCode  string `json:"type_code"`
	TypeLabel string `json:"type_label,omitempty"`
	Code      string `json:"code"`
	Label     string `json:"label,omitempty"`
	SortOrder *int   `json:"sort_order,omitempty"`
}

type Observation struct {
	DatasetCode     string           `json:"dataset_code"`
	Value           *string          `json:"value,omitempty"`
	ValueStatus     *string          `json:"value_status,omitempty"`
	TimePeriod      *TimePeriod      `json:"time_period,omitempty"`
	Unit            *Unit            `json:"unit,omitempty"`
	Classifications []Classification `json:"classifications,omitempty"`
}

// HasValue reports whether the observation carries a non-blank value.
func (o Observation) HasValue() bool {
	return Present(o.Value)
}

// HasStatus reports whether the observation carries a quality/suppression flag.
func (o Observation) HasStatus() bool {
	return Present(o.ValueStatus)
}

// ISOPeriod returns the grouping key of the observation, or "" when it has none.
func (o Observation) ISOPeriod() string {
	if o.TimePeriod == nil {
		return ""
	}
	return strings.TrimSpace(o.TimePeriod.ISOPeriod)
}

// RawValue returns the value text, or "" when absent.
func (o Observation) RawValue() string {
	if o.Value == nil {
		return ""
	}
	return *o.Value
}

type ClassificationType struct {
	Code  string `json:"code"`
	Label string `json:"label,omitempty"`
}

type Dimension struct {
	Index              int                 `json:"index"`
	Type               DimensionType       `json:"type"`
	ClassificationType *ClassificationType `json:"classification_type,omitempty"`
}

// ClassificationCode returns the type code of a classification axis, or "" for any other axis.
func (d Dimension) ClassificationCode() string {
	if d.Type != DimensionClassification || d.ClassificationType == nil {
		return ""
	}
	return strings.TrimSpace(d.ClassificationType.Code)
}

type Dataset struct {
	Code         string        `json:"code"`
	Dimensions   []Dimension   `json:"dimensions"`
	Observations []Observation `json:"observations"`
}

// Present reports whether an optional text field is set to something other than whitespace.
func Present(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}

// String returns a pointer to value. Handy for building optional fields.
func String(value string) *string {
	return &value
}

func Int(value int) *int {
	return &value
}

func Int64(value int64) *int64 {
	return &value
}
