package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/ecscache/internal/api"
	"github.com/vitaliisemenov/ecscache/internal/ecsworld"
)

const querySetYAML = `
components:
  Position: 1
  Velocity: 2

tables:
  - components: [Position]
  - components: [Position, Velocity]

queries:
  - id: positions
    components: [Position]
  - id: moving
    components: [Position, Velocity]
`

func writeQuerySet(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queryset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadQuerySetParsesComponentsTablesAndQueries(t *testing.T) {
	path := writeQuerySet(t, querySetYAML)

	spec, err := loadQuerySet(path)
	require.NoError(t, err)
	require.Equal(t, uint64(1), spec.Components["Position"])
	require.Len(t, spec.Tables, 2)
	require.Len(t, spec.Queries, 2)
}

func TestApplyQuerySetSeedsWorldAndRegistersCaches(t *testing.T) {
	path := writeQuerySet(t, querySetYAML)
	spec, err := loadQuerySet(path)
	require.NoError(t, err)

	world := ecsworld.New(0)
	reg := api.NewRegistry()

	require.NoError(t, applyQuerySet(world, spec, reg))

	ids := reg.IDs()
	require.ElementsMatch(t, []string{"positions", "moving"}, ids)

	positions, ok := reg.Get("positions")
	require.True(t, ok)
	require.Equal(t, 2, positions.TableCount(), "both seeded tables carry Position")

	moving, ok := reg.Get("moving")
	require.True(t, ok)
	require.Equal(t, 1, moving.TableCount(), "only the second table carries Velocity")
}

func TestApplyQuerySetRejectsUndeclaredComponent(t *testing.T) {
	path := writeQuerySet(t, `
components:
  Position: 1
tables: []
queries:
  - id: bad
    components: [Velocity]
`)
	spec, err := loadQuerySet(path)
	require.NoError(t, err)

	world := ecsworld.New(0)
	reg := api.NewRegistry()
	err = applyQuerySet(world, spec, reg)
	require.Error(t, err)
}
