package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t, []string{"membership", "employment"},
		DedupeAndTrim([]string{" membership", "employment", "membership ", "", "  "}))
	assert.Empty(t, DedupeAndTrim(nil))
	assert.Empty(t, DedupeAndTrim([]string{" "}))
}
