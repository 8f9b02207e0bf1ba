package utils

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// DayMonthYearLayout is the date format the upstream extractor emits
// (e.g. "01/01/2024").
const DayMonthYearLayout = "02/01/2006"

// ParseDayMonthYear parses a DD/MM/YYYY date string.
func ParseDayMonthYear(value string) (time.Time, error) {
	return time.Parse(DayMonthYearLayout, value)
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}
