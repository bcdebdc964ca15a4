package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInputs_MapsAllFields(t *testing.T) {
	p := generatePayload{
		Seed: 42, N: 10000, P: 24, Jitter: 0.5, NMag: 0.04, NumContinents: 5,
		Smoothing: 0.5, GlacialErosion: 0.5, HydraulicErosion: 0.5,
		ThermalErosion: 0.5, RidgeSharpening: 0.5, ToggledIndices: []int{3, 7},
	}
	in := toInputs(p)
	assert.Equal(t, int64(42), in.Seed)
	assert.Equal(t, 10000, in.N)
	assert.Equal(t, 24, in.P)
	assert.Equal(t, 0.5, in.Jitter)
	assert.Equal(t, 0.04, in.NMag)
	assert.Equal(t, 5, in.NumContinents)
	assert.Equal(t, 0.5, in.Smoothing)
	assert.Equal(t, 0.5, in.GlacialErosion)
	assert.Equal(t, 0.5, in.HydraulicErosion)
	assert.Equal(t, 0.5, in.ThermalErosion)
	assert.Equal(t, 0.5, in.RidgeSharpening)
	assert.Equal(t, []int{3, 7}, in.ToggledIndices)
}

func TestToPostParams_MapsAllFields(t *testing.T) {
	p := postParamsPayload{Smoothing: 0.1, GlacialErosion: 0.2, HydraulicErosion: 0.3, ThermalErosion: 0.4, RidgeSharpening: 0.5}
	out := toPostParams(p)
	assert.Equal(t, 0.1, out.Smoothing)
	assert.Equal(t, 0.2, out.GlacialErosion)
	assert.Equal(t, 0.3, out.HydraulicErosion)
	assert.Equal(t, 0.4, out.ThermalErosion)
	assert.Equal(t, 0.5, out.RidgeSharpening)
}

func TestStringKeysToInt_ParsesNumericKeys(t *testing.T) {
	m, err := stringKeysToInt(map[string]bool{"3": true, "7": false})
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{3: true, 7: false}, m)
}

func TestStringKeysToInt_RejectsNonNumericKeys(t *testing.T) {
	_, err := stringKeysToInt(map[string]bool{"not-a-plate-index": true})
	require.Error(t, err)
}

func TestStringKeysToInt_NilInputReturnsNil(t *testing.T) {
	m, err := stringKeysToInt(nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestStringKeysToIntFloat_ParsesNumericKeys(t *testing.T) {
	m, err := stringKeysToIntFloat(map[string]float64{"2": 3.1})
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{2: 3.1}, m)
}

func TestDenseBoolSet_ExpandsSparseSet(t *testing.T) {
	out := denseBoolSet(map[int]bool{1: true, 3: true}, 5)
	assert.Equal(t, []bool{false, true, false, true, false}, out)
}
