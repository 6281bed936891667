package services_test

import (
	"fmt"
	"testing"

	"github.com/dukex/flowgen/pkg/generator"
	"github.com/dukex/flowgen/pkg/n8n"
	"github.com/dukex/flowgen/pkg/persistence"
	"github.com/dukex/flowgen/pkg/services"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		validation bool
		notFound   bool
	}{
		{"empty workflow", generator.ErrEmptyWorkflow, true, false},
		{"duplicate step", &generator.DuplicateStepError{Numbers: []int{2}}, true, false},
		{"invalid options wrapped", fmt.Errorf("%w: platform", generator.ErrInvalidOptions), true, false},
		{"graph required", services.ErrGraphRequired, true, false},
		{"not found", persistence.NewGraphError("GraphByID", "x", persistence.ErrGraphNotFound), false, true},
		{"service wrapped not found", &services.ServiceError{Op: "get", Err: services.ErrGraphNotFound}, false, true},
		{"invalid export", n8n.ErrInvalidWorkflow, false, false},
		{"other", assert.AnError, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.validation, services.IsValidationError(tt.err))
			assert.Equal(t, tt.notFound, services.IsNotFound(tt.err))
		})
	}
}

func TestServiceError_Message(t *testing.T) {
	t.Parallel()

	withMessage := services.NewValidationError("Generate", "EMPTY_WORKFLOW", "no steps", generator.ErrEmptyWorkflow)
	assert.Equal(t, "Generate: no steps", withMessage.Error())
	assert.ErrorIs(t, withMessage, generator.ErrEmptyWorkflow)

	withoutMessage := &services.ServiceError{Op: "Get", Err: services.ErrInvalidRequest}
	assert.Equal(t, "Get: invalid request", withoutMessage.Error())
}
