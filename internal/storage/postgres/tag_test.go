package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeLabels(t *testing.T) {
	got := dedupeLabels([]string{"go", " go ", "", "  ", "testing", "go", "Go"})
	assert.Equal(t, []string{"go", "testing", "Go"}, got)
	assert.Empty(t, dedupeLabels(nil))
}
