package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"planetgen/internal/apperr"
)

func testInputs(seed int64) Inputs {
	return Inputs{
		Seed:             seed,
		N:                500,
		P:                8,
		NMag:             1,
		NumContinents:    3,
		Smoothing:        0.3,
		GlacialErosion:   0.2,
		HydraulicErosion: 0.2,
		ThermalErosion:   0.2,
		RidgeSharpening:  0.1,
	}
}

func TestGenerate_PopulatesRetainedState(t *testing.T) {
	s := New("test-session")
	out, err := s.Generate(context.Background(), testInputs(1))
	require.NoError(t, err)
	require.Len(t, out.Climate.Summer.Temperature, out.Mesh.N)
	require.NotNil(t, s.state)
}

func TestGenerate_RejectsInvalidInputs(t *testing.T) {
	s := New("test-session")
	_, err := s.Generate(context.Background(), Inputs{N: 0, P: 8, NumContinents: 3})
	require.Error(t, err)
}

func TestReapply_BeforeGenerate_ReturnsNoRetainedState(t *testing.T) {
	s := New("test-session")
	_, err := s.Reapply(context.Background(), PostParams{})
	require.Error(t, err)
	require.Equal(t, "NO_RETAINED_STATE", apperr.Code(err))
}

func TestEditRecompute_BeforeGenerate_ReturnsNoRetainedState(t *testing.T) {
	s := New("test-session")
	_, err := s.EditRecompute(context.Background(), nil, nil, PostParams{})
	require.Error(t, err)
	require.Equal(t, "NO_RETAINED_STATE", apperr.Code(err))
}

func TestReapply_ZeroErosionReproducesRetainedElevation(t *testing.T) {
	s := New("test-session")
	_, err := s.Generate(context.Background(), testInputs(2))
	require.NoError(t, err)

	retained := append([]float64(nil), s.state.elevation.RElevation...)

	out, err := s.Reapply(context.Background(), PostParams{})
	require.NoError(t, err)
	for i, v := range retained {
		require.Equal(t, v, out.Terrain.RElevation[i])
	}
}

func TestEditRecompute_OriginalPlateIsOceanReproducesLandFraction(t *testing.T) {
	s := New("test-session")
	genOut, err := s.Generate(context.Background(), testInputs(3))
	require.NoError(t, err)

	original := make(map[int]bool, len(genOut.Continents.PlateIsOcean))
	for k, v := range genOut.Continents.PlateIsOcean {
		original[k] = v
	}

	editOut, err := s.EditRecompute(context.Background(), original, nil, PostParams{})
	require.NoError(t, err)

	landBefore, landAfter := 0, 0
	for i := range genOut.Elevation.OceanR {
		if !genOut.Elevation.OceanR[i] {
			landBefore++
		}
		if !editOut.Elevation.OceanR[i] {
			landAfter++
		}
	}
	require.InDelta(t, landBefore, landAfter, float64(genOut.Mesh.N)*0.02)
}

func TestGenerate_ToggledIndicesFlipsPlateClassification(t *testing.T) {
	s := New("test-session")
	in := testInputs(4)

	baseline := New("baseline-session")
	baseOut, err := baseline.Generate(context.Background(), in)
	require.NoError(t, err)

	var landPlate int = -1
	for idx, ocean := range baseOut.Continents.PlateIsOcean {
		if !ocean {
			landPlate = idx
			break
		}
	}
	require.NotEqual(t, -1, landPlate)

	in.ToggledIndices = []int{landPlate}
	toggledOut, err := s.Generate(context.Background(), in)
	require.NoError(t, err)
	require.True(t, toggledOut.Continents.PlateIsOcean[landPlate])
}

func TestProgress_ReportsEachStage(t *testing.T) {
	var labels []string
	s := New("test-session", WithProgress(func(pct float64, label string) {
		labels = append(labels, label)
	}))
	_, err := s.Generate(context.Background(), testInputs(5))
	require.NoError(t, err)
	require.Contains(t, labels, "plates")
	require.Contains(t, labels, "climate")
	require.Contains(t, labels, "done")
}

func TestRedisStore_MirrorsStatus(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, 0)
	s := New("mirrored-session", WithStore(store))

	_, err = s.Generate(context.Background(), testInputs(6))
	require.NoError(t, err)

	status, found, err := store.GetStatus(context.Background(), "mirrored-session")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "done", status.Stage)
	require.Equal(t, 1.0, status.Progress)
}
