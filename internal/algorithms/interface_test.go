package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryNames(t *testing.T) {
	assert.Equal(t, []string{"knn", "mog2", "running_average"}, Names())

	for _, name := range Names() {
		assert.True(t, IsValidAlgorithm(name))
		algorithm, ok := Get(name)
		require.True(t, ok)
		assert.NotEmpty(t, algorithm.GetName())
		assert.NotEmpty(t, algorithm.GetDescription())
		assert.NoError(t, algorithm.Validate(algorithm.GetDefaultParams()))

		info := algorithm.GetParameterInfo()
		assert.Len(t, info, len(algorithm.GetDefaultParams()))
	}
	assert.False(t, IsValidAlgorithm("otsu"))
}

func TestNewUnknownAlgorithm(t *testing.T) {
	_, err := New("frame_diff", nil)
	assert.ErrorContains(t, err, "algorithm not found")
}

func TestNewRejectsBadParams(t *testing.T) {
	_, err := New("mog2", map[string]interface{}{"history": 0})
	assert.ErrorContains(t, err, "history must be between")

	_, err = New("knn", map[string]interface{}{"detect_shadows": "yes"})
	assert.ErrorContains(t, err, "detect_shadows must be a bool")

	_, err = New("running_average", map[string]interface{}{"alpha": "fast"})
	assert.ErrorContains(t, err, "alpha must be a number")
}

func TestNewBuildsEveryModel(t *testing.T) {
	for _, name := range Names() {
		model, err := New(name, nil)
		require.NoError(t, err, name)
		assert.NoError(t, model.Close(), name)
	}
}

func TestValidateParameters(t *testing.T) {
	assert.NoError(t, ValidateParameters("mog2", map[string]interface{}{"history": 200, "var_threshold": 25.5}))
	assert.Error(t, ValidateParameters("mog2", map[string]interface{}{"var_threshold": 5000}))
	assert.Error(t, ValidateParameters("unknown", nil))
}

func TestNumberParamForms(t *testing.T) {
	params := map[string]interface{}{
		"f64": 1.5,
		"f32": float32(2.5),
		"int": 3,
		"i64": int64(4),
		"u64": uint64(5),
		"str": "6",
	}

	for key, want := range map[string]float64{"f64": 1.5, "f32": 2.5, "int": 3, "i64": 4, "u64": 5} {
		got, ok := numberParam(params, key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}

	_, ok := numberParam(params, "str")
	assert.False(t, ok)
	_, ok = numberParam(params, "missing")
	assert.False(t, ok)

	assert.Equal(t, 7, intParam(params, "missing", 7))
	assert.Equal(t, 3, intParam(params, "int", 7))
	assert.Equal(t, 0.5, floatParam(params, "str", 0.5))
	assert.True(t, boolParam(params, "missing", true))
}
