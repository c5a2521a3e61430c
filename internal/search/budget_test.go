package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassBudgetDefault(t *testing.T) {
	var b passBudget
	assert.Equal(t, 16, b.limitFor(0))
	assert.Equal(t, 20, b.limitFor(1))
	assert.Equal(t, 416, b.limitFor(100))
}

func TestPassBudgetOverride(t *testing.T) {
	b := passBudget{max: 7}
	assert.Equal(t, 7, b.limitFor(1))
	assert.Equal(t, 7, b.limitFor(100000))
}
