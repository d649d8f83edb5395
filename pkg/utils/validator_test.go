package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type slotInput struct {
	Date  string `json:"date" validate:"required,calendardate"`
	Start string `json:"start_time" validate:"required,timeofday"`
	Kind  string `json:"kind" validate:"omitempty,oneof=single recurring"`
	Count int    `json:"count" validate:"gte=0,max=5"`
}

func TestValidateStruct(t *testing.T) {
	assert.Nil(t, ValidateStruct(slotInput{Date: "2025-11-18", Start: "09:30"}))

	errs := ValidateStruct(slotInput{Date: "18/11/2025", Start: "9am", Kind: "weekly", Count: 9})
	assert.Equal(t, map[string]string{
		"date":       "Must be a date in YYYY-MM-DD format",
		"start_time": "Must be a time in HH:MM format",
		"kind":       "Must be one of: single, recurring",
		"count":      "Maximum is 5",
	}, errs)

	errs = ValidateStruct(slotInput{})
	assert.Equal(t, "This field is required", errs["date"])
	assert.Equal(t, "This field is required", errs["start_time"])
}

func TestFormatValidationErrors_SortedByField(t *testing.T) {
	got := FormatValidationErrors(map[string]string{
		"start_time": "Must be a time in HH:MM format",
		"date":       "This field is required",
	})
	assert.Equal(t, "date: This field is required; start_time: Must be a time in HH:MM format", got)
	assert.Empty(t, FormatValidationErrors(nil))
}

func TestParseID(t *testing.T) {
	id, ok := ParseID(" 42 ")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	for _, bad := range []string{"", "0", "-3", "abc", "1.5"} {
		_, ok := ParseID(bad)
		assert.False(t, ok, bad)
	}
}
