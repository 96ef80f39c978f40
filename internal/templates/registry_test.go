package templates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_FixedOrder(t *testing.T) {
	all := All()
	require.Len(t, all, 3)
	assert.Equal(t, []ID{Minimal, Professional, Creative}, []ID{all[0].ID, all[1].ID, all[2].ID})

	all[0].Name = "mutated"
	assert.Equal(t, "Minimal", All()[0].Name)
}

func TestParse(t *testing.T) {
	id, err := Parse(" Professional ")
	require.NoError(t, err)
	assert.Equal(t, Professional, id)

	_, err = Parse("fancy")
	assert.True(t, errors.Is(err, ErrUnknownTemplate))
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, Minimal, Resolve("unknown").ID)
	assert.Equal(t, "template-creative", Resolve(Creative).ClassName)
}
