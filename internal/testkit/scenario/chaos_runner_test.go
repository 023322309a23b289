package scenario_test

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"swimcore"
	"swimcore/internal/testkit/scenario"
)

func TestChaosRunnerReplayLogRecordsEveryStep(t *testing.T) {
	s, err := scenario.New(scenario.Config{
		NodeCount: 3,
		Params:    swimcore.Params{TPing: 1, TFail: 10, TRemove: 30},
		Seed:      7,
	})
	assert.NilError(t, err)

	ctx := context.Background()
	assert.NilError(t, s.StartAll(ctx, swimcore.Introducer))

	runner, err := scenario.NewChaosRunner(s, scenario.ChaosRunnerConfig{Seed: 7})
	assert.NilError(t, err)

	assert.NilError(t, runner.Run(ctx, 10))
	log := runner.ReplayLog()
	assert.Equal(t, len(log), 10)
	for i, ev := range log {
		assert.Equal(t, ev.Step, i+1)
		assert.Assert(t, ev.Operation != "")
	}
}

func TestChaosRunnerRejectsZeroSteps(t *testing.T) {
	s, err := scenario.New(scenario.Config{
		NodeCount: 1,
		Params:    swimcore.Params{TPing: 1, TFail: 10, TRemove: 30},
	})
	assert.NilError(t, err)

	runner, err := scenario.NewChaosRunner(s, scenario.ChaosRunnerConfig{})
	assert.NilError(t, err)

	err = runner.Run(context.Background(), 0)
	assert.ErrorContains(t, err, "steps must be")
}
