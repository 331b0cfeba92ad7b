package geom

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	t.Parallel()

	r := R(10, 20, 30, 40)
	cases := []struct {
		x, y   int
		expect bool
	}{
		{10, 20, true},
		{39, 59, true},
		{40, 20, false},
		{10, 60, false},
		{9, 20, false},
		{25, 19, false},
	}
	for _, c := range cases {
		c := c
		t.Run(fmt.Sprintf("%d,%d", c.x, c.y), func(t *testing.T) {
			assert.Equal(t, c.expect, r.Contains(c.x, c.y))
		})
	}
	assert.False(t, Rect{}.Contains(0, 0))
}

func TestConvert(t *testing.T) {
	t.Parallel()

	r := R(1, 2, 3, 4)
	assert.Equal(t, image.Rect(1, 2, 4, 6), r.Image())
	assert.Equal(t, r, FromImage(r.Image()))
	assert.Equal(t, image.Pt(3, 4), r.Size())
	assert.Equal(t, R(2, 3, 1, 2), r.Inset(1))
	assert.Equal(t, "3x4+1+2", r.String())
	assert.True(t, R(0, 0, 0, 5).Empty())
}
