package alert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/errors"
)

type recordingPublisher struct {
	calls int
	err   error
}

func (r *recordingPublisher) PublishViolations(context.Context, []models.Violation) error {
	r.calls++
	return r.err
}

func TestFanoutDeliversToAll(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{}
	f := NewFanout(a, b)

	err := f.PublishViolations(context.Background(), []models.Violation{{Type: models.ViolationLowCash}})
	require.NoError(t, err)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestFanoutContinuesPastFailures(t *testing.T) {
	failing := &recordingPublisher{err: errors.Network("broker unreachable")}
	healthy := &recordingPublisher{}
	f := NewFanout(failing, healthy)

	err := f.PublishViolations(context.Background(), nil)
	assert.Error(t, err, "the failure is reported")
	assert.Equal(t, 1, healthy.calls, "remaining channels still receive the alert")
}

func TestFanoutEmpty(t *testing.T) {
	assert.NoError(t, NewFanout().PublishViolations(context.Background(), nil))
}
