package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginPayload struct {
	Collaborators []string `validate:"required,min=1,max=3,dive,required,collaborator"`
	Date          string   `validate:"required,session_date"`
	Shift         string   `validate:"required,shift"`
	Area          string   `validate:"required,area"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(loginPayload{
		Collaborators: []string{"Ana"},
		Date:          "2025-03-14",
		Shift:         "B",
		Area:          "embalagem",
	}))

	err := ValidateStruct(loginPayload{
		Collaborators: []string{"a", "b", "c", "d"},
		Date:          "14/03/2025",
		Shift:         "D",
		Area:          "expedicao",
	})
	require.Error(t, err)

	msg := ValidationMessage(err)
	assert.Contains(t, msg, "Collaborators failed max=3")
	assert.Contains(t, msg, "Date failed session_date")
	assert.Contains(t, msg, "Shift failed shift")
	assert.Contains(t, msg, "Area failed area")
}

func TestReportStatusTag(t *testing.T) {
	type payload struct {
		Status string `validate:"required,report_status"`
	}
	require.NoError(t, ValidateStruct(payload{Status: "em_lancamento"}))
	require.Error(t, ValidateStruct(payload{Status: "cancelado"}))
}

func TestCollaboratorTag(t *testing.T) {
	valid := loginPayload{Date: "2025-03-14", Shift: "A", Area: "recebimento"}

	valid.Collaborators = []string{"Ana", "Bruno"}
	require.NoError(t, ValidateStruct(valid))

	valid.Collaborators = []string{"Ana", "   "}
	assert.Contains(t, ValidationMessage(ValidateStruct(valid)), "Collaborators[1] failed collaborator")

	valid.Collaborators = []string{"Ana_Bruno"}
	assert.Contains(t, ValidationMessage(ValidateStruct(valid)), "Collaborators[0] failed collaborator")
}

func TestNotBlankTag(t *testing.T) {
	type payload struct {
		Transporter string `validate:"required,notblank,max=255"`
	}
	require.NoError(t, ValidateStruct(payload{Transporter: "TRANSPORTADORA X"}))
	assert.Contains(t, ValidationMessage(ValidateStruct(payload{Transporter: " \t "})), "Transporter failed notblank")
}

func TestValidationMessagePassesOtherErrors(t *testing.T) {
	assert.Equal(t, "boom", ValidationMessage(errors.New("boom")))
}
