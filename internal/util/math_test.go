package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	// GIVEN
	expectedInputOutput := map[int]int{
		-10: 0,
		0:   0,
		100: 100,
		255: 255,
		300: 255,
	}

	for input, expected := range expectedInputOutput {
		// WHEN
		result := Coerce(input, 0, 255)

		// THEN
		assert.Equal(t, expected, result)
	}
}

func TestRatio(t *testing.T) {
	// GIVEN
	a := 0.0
	b := 100.0
	c := 50.0

	expected := 0.5

	// WHEN
	result := Ratio(c, a, b)

	// THEN
	assert.Equal(t, expected, result)
}

func TestUpdateSimpleMovingAvg(t *testing.T) {
	// GIVEN
	oldAvg := 100.0

	// WHEN
	result := UpdateSimpleMovingAvg(oldAvg, 10, 200.0)

	// THEN
	assert.InDelta(t, 110.0, result, 0.0001)
}

func TestSortedKeys(t *testing.T) {
	// GIVEN
	input := map[string]int{"b": 2, "a": 1, "c": 3}

	// WHEN
	result := SortedKeys(input)

	// THEN
	assert.Equal(t, []string{"a", "b", "c"}, result)
}
