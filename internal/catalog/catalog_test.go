package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	frigate, err := c.Get("frigate")
	require.NoError(t, err)
	assert.True(t, frigate.ProjectsZOC)
	assert.Equal(t, 3, frigate.MaxMP)

	scout, err := c.Get("scout")
	require.NoError(t, err)
	assert.False(t, scout.ProjectsZOC)

	assert.Contains(t, c.IDs(), TypeID("dreadnought"))
}

func TestGet_Unknown(t *testing.T) {
	_, err := Default().Get("battlestar")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"empty", `units: []`, "no unit types"},
		{"missing id", "units:\n  - name: x\n    max_steps: 1\n", "empty id"},
		{"zero steps", "units:\n  - id: a\n    max_steps: 0\n", "max_steps"},
		{"duplicate", "units:\n  - id: a\n    max_steps: 1\n  - id: a\n    max_steps: 1\n", "duplicate"},
		{"bad yaml", "units: [", "parse catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "units.yaml")
	doc := "units:\n  - id: lancer\n    name: Lancer Wing\n    max_ap: 1\n    max_mp: 6\n    max_steps: 2\n    vision: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	c, err := Load(path)
	require.NoError(t, err)

	lancer, err := c.Get("lancer")
	require.NoError(t, err)
	assert.Equal(t, "Lancer Wing", lancer.Name)
	assert.Equal(t, 6, lancer.MaxMP)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
