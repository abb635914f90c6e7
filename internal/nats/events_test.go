package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/appbuilder/internal/model"
)

func TestEventSubject(t *testing.T) {
	assert.Equal(t,
		"appbuilder.generation_completed.0190b6d2-7c1f-7000-8000-000000000001",
		EventSubject("0190b6d2-7c1f-7000-8000-000000000001", model.EventTypeGenerationCompleted),
	)
}
