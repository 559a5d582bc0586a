package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asthmaguardian/asthmaguardian/internal/ingest"
)

type stubRunner struct {
	result    *ingest.Result
	err       error
	postcodes []string
	calls     int
}

func (s *stubRunner) Run(_ context.Context, postcodes []string) (*ingest.Result, error) {
	s.calls++
	s.postcodes = postcodes
	return s.result, s.err
}

func TestHandleIngest_PassesPostcodesThrough(t *testing.T) {
	runner := &stubRunner{result: &ingest.Result{TotalLocations: 2, Successful: 2}}
	h := &PubSubHandler{runner: runner, logger: zerolog.Nop()}

	err := h.handleIngest(context.Background(), IngestMessage{
		JobType:   "ingest",
		Postcodes: []string{"2000", "2500"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2000", "2500"}, runner.postcodes)
}

func TestHandleIngest_CeilingIsNotRetried(t *testing.T) {
	runner := &stubRunner{
		result: &ingest.Result{TotalLocations: 10, Successful: 6, Failed: 4},
		err:    fmt.Errorf("%w after 5m0s", ingest.ErrRunCeiling),
	}
	h := &PubSubHandler{runner: runner, logger: zerolog.Nop()}

	// A ceiling hit keeps the partial result; nacking the message would
	// replay a run that is doomed to hit the same ceiling.
	err := h.handleIngest(context.Background(), IngestMessage{JobType: "ingest"})
	assert.NoError(t, err)
}

func TestHandleIngest_InvocationFailurePropagates(t *testing.T) {
	runner := &stubRunner{err: errors.New("no locations to ingest")}
	h := &PubSubHandler{runner: runner, logger: zerolog.Nop()}

	err := h.handleIngest(context.Background(), IngestMessage{JobType: "ingest"})
	assert.Error(t, err)
}

func TestHandleHealthCheck(t *testing.T) {
	runner := &stubRunner{result: &ingest.Result{TotalLocations: 1, Successful: 1}}
	h := &PubSubHandler{runner: runner, logger: zerolog.Nop()}

	require.NoError(t, h.handleHealthCheck(context.Background()))
	assert.Equal(t, []string{"2000"}, runner.postcodes)

	runner.result = &ingest.Result{TotalLocations: 1, Failed: 1}
	assert.Error(t, h.handleHealthCheck(context.Background()))
}
