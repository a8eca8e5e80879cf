package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBeatsArithmetic(t *testing.T) {
	assert := assert.New(t)

	half := B(1, 2)
	quarter := B(1, 4)
	assert.Equal(B(3, 4), half.Add(quarter))
	assert.Equal(B(1, 4), half.Sub(quarter))
	assert.Equal(Whole(1), half.Add(half))
}

func TestBeatsReduces(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(B(1, 2), B(2, 4))
	assert.Equal(Whole(2), B(8, 4))
}

func TestBeatsCmp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, B(1, 2).Cmp(B(2, 4)))
	assert.Equal(-1, B(1, 3).Cmp(B(1, 2)))
	assert.Equal(1, B(3, 2).Cmp(B(4, 3)))
	assert.True(B(1, 3).Less(B(1, 2)))
}

func TestBeatsZeroValueBehaves(t *testing.T) {
	assert := assert.New(t)

	var zero Beats
	assert.True(zero.IsZero())
	assert.Equal(0, zero.Cmp(B(0, 1)))
	assert.Equal(B(1, 4), zero.Add(B(1, 4)))
}

func TestBeatsWithin(t *testing.T) {
	assert := assert.New(t)

	tol := B(1, 1024)
	assert.True(B(1, 1).Within(B(1, 1), tol))
	assert.True(B(1, 1).Within(B(2049, 2048), tol))
	assert.False(B(1, 1).Within(B(1025, 1024), tol))
}

func TestBeatsString(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("3/2", B(3, 2).String())
	assert.Equal("2", B(4, 2).String())
}
