package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	original := Version
	t.Cleanup(func() { Version = original })

	assert.Equal(t, "dev", GetVersion())

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", GetVersion())
}
