package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/services/llm"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, "ok"},
		{"service error", &llm.ServiceError{Kind: llm.KindService}, "service"},
		{"wrapped transport error", errors.Join(errors.New("ctx"), &llm.ServiceError{Kind: llm.KindTransport}), "transport"},
		{"other", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestObserveGeneration_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(generationRequests.WithLabelValues(OpQuestion, "malformed"))

	ObserveGeneration(OpQuestion, &llm.ServiceError{Kind: llm.KindMalformed}, 0)

	after := testutil.ToFloat64(generationRequests.WithLabelValues(OpQuestion, "malformed"))
	assert.Equal(t, before+1, after)
}
