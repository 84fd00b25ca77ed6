package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lanerunner/lanerunner/internal/config"
	"github.com/lanerunner/lanerunner/internal/core/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
hazards:
  - name: rock
    width: 1
    height: 1
    depth: 1
    y_offset: 0.5
  - name: rocket
    width: 0.5
    height: 2
    depth: 0.5
`

func TestParseHazardCatalog(t *testing.T) {
	t.Run("assigns kinds in file order", func(t *testing.T) {
		c, err := ParseHazardCatalog([]byte(sampleCatalog))
		require.NoError(t, err)
		assert.Equal(t, 2, c.Count())
		assert.Equal(t, []pool.Kind{1, 2}, c.Kinds())

		rock := c.Get(1)
		require.NotNil(t, rock)
		assert.Equal(t, "rock", rock.Name)
		assert.Equal(t, 0.5, rock.YOffset)
		assert.Equal(t, pool.Vec3{X: 0.5, Y: 2, Z: 0.5}, c.Get(2).Scale())
		assert.Nil(t, c.Get(pool.KindTrack))
		assert.Nil(t, c.Get(3))
	})

	t.Run("names match exactly, not by prefix", func(t *testing.T) {
		c, err := ParseHazardCatalog([]byte(sampleCatalog))
		require.NoError(t, err)
		assert.Equal(t, pool.Kind(1), c.ByName("rock").Kind)
		assert.Equal(t, pool.Kind(2), c.ByName("rocket").Kind)
		assert.Nil(t, c.ByName("roc"))
	})

	t.Run("empty catalog is allowed", func(t *testing.T) {
		c, err := ParseHazardCatalog([]byte("hazards: []\n"))
		require.NoError(t, err)
		assert.Zero(t, c.Count())
		assert.Empty(t, c.Kinds())
	})

	for name, doc := range map[string]string{
		"duplicate name": "hazards:\n  - {name: a, width: 1, height: 1, depth: 1}\n  - {name: a, width: 1, height: 1, depth: 1}\n",
		"missing name":   "hazards:\n  - {width: 1, height: 1, depth: 1}\n",
		"zero size":      "hazards:\n  - {name: a, width: 0, height: 1, depth: 1}\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseHazardCatalog([]byte(doc))
			assert.True(t, errors.Is(err, config.ErrInvalid))
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseHazardCatalog([]byte("hazards: [\n"))
		assert.Error(t, err)
	})
}

func TestLoadHazardCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hazards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	c, err := LoadHazardCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count())

	_, err = LoadHazardCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
