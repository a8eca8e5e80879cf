package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetKeysReturnsSortedKeys(t *testing.T) {
	assert := assert.New(t)

	m := map[string]int{"6": 1, "1": 2, "5": 3, "2": 4}
	assert.Equal([]string{"1", "2", "5", "6"}, GetKeys(m))

	nums := map[int]string{3: "c", 1: "a", 2: "b"}
	assert.Equal([]int{1, 2, 3}, GetKeys(nums))
}

func TestBaseName(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Abendlied", BaseName("scores/Abendlied.mscz"))
	assert.Equal("hymn-42", BaseName("/tmp/out/hymn-42.musicxml"))
	assert.Equal("plain", BaseName("plain"))
}

func TestMin(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(1, Min(1, 2))
	assert.Equal(1, Min(2, 1))
}
