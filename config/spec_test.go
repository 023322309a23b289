package config_test

import (
	"testing"

	"gotest.tools/v3/assert"

	"swimcore/config"
)

func TestParseValidSpec(t *testing.T) {
	data := []byte(`
nodes: 5
tping: 10
tfail: 5
tremove: 20
seed: 42
default_link:
  latency: 1
links:
  "1-2":
    drop: 0.1
`)
	spec, err := config.Parse(data)
	assert.NilError(t, err)
	assert.Equal(t, spec.Nodes, 5)
	assert.Equal(t, spec.TPing, int32(10))
	assert.Equal(t, spec.TFail, int32(5))
	assert.Equal(t, spec.TRemove, int32(20))
	assert.Equal(t, spec.Seed, int64(42))
	assert.Equal(t, spec.DefaultLink.Latency, int32(1))
}

func TestParseRejectsMissingRequiredField(t *testing.T) {
	data := []byte(`
nodes: 3
tping: 10
tfail: 5
`)
	_, err := config.Parse(data)
	assert.ErrorContains(t, err, "validation")
}

func TestParseRejectsTFailAtOrPastTRemove(t *testing.T) {
	data := []byte(`
nodes: 2
tping: 1
tfail: 20
tremove: 20
`)
	_, err := config.Parse(data)
	assert.ErrorContains(t, err, "tfail")
}

func TestParseRejectsZeroNodes(t *testing.T) {
	data := []byte(`
nodes: 0
tping: 1
tfail: 1
tremove: 2
`)
	_, err := config.Parse(data)
	assert.Assert(t, err != nil)
}

func TestParamsProjection(t *testing.T) {
	spec, err := config.Parse([]byte(`
nodes: 2
tping: 7
tfail: 3
tremove: 9
`))
	assert.NilError(t, err)
	p := spec.Params()
	assert.Equal(t, p.TPing, int32(7))
	assert.Equal(t, p.TFail, int32(3))
	assert.Equal(t, p.TRemove, int32(9))
}
