package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "dev", String())

	oldHash, oldDate := CommitHash, BuildDate
	t.Cleanup(func() { CommitHash, BuildDate = oldHash, oldDate })
	CommitHash = "0123456789abcdef"
	BuildDate = "2024-05-01"
	assert.Equal(t, "dev (0123456, 2024-05-01)", String())
}
