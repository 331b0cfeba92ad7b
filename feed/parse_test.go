package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Parallel()

	type Case struct {
		input string
		t, h  float64
		err   bool
	}
	cases := []Case{
		{"21.5 40", 21.5, 40, false},
		{"  -3 99.5\n", -3, 99.5, false},
		{`{"t":22.25,"h":51}`, 22.25, 51, false},
		{`{"t":22.25}`, 0, 0, true},
		{`{"t":`, 0, 0, true},
		{"21.5", 0, 0, true},
		{"warm humid", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, c := range cases {
		c := c
		t.Run(c.input, func(t *testing.T) {
			temperature, humidity, err := ParseEnv([]byte(c.input))
			if c.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.t, temperature)
			assert.Equal(t, c.h, humidity)
		})
	}
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	type Case struct {
		input  string
		expect [3]int
		err    bool
	}
	cases := []Case{
		{"12:34:56", [3]int{12, 34, 56}, false},
		{"07:05", [3]int{7, 5, 0}, false},
		{"23:59:59\n", [3]int{23, 59, 59}, false},
		{"24:00:00", [3]int{}, true},
		{"12:60", [3]int{}, true},
		{"12", [3]int{}, true},
		{"1:2:3:4", [3]int{}, true},
		{"aa:bb", [3]int{}, true},
	}
	for _, c := range cases {
		h, m, s, err := ParseTime([]byte(c.input))
		if c.err {
			assert.Error(t, err, c.input)
			continue
		}
		require.NoError(t, err, c.input)
		assert.Equal(t, c.expect, [3]int{h, m, s}, c.input)
	}
}

func TestParseOnOff(t *testing.T) {
	t.Parallel()

	for input, expect := range map[string]bool{"on": true, "ON": true, "1": true, "true": true, "off": false, " 0 ": false, "false": false} {
		v, err := ParseOnOff([]byte(input))
		require.NoError(t, err, input)
		assert.Equal(t, expect, v, input)
	}
	_, err := ParseOnOff([]byte("maybe"))
	assert.Error(t, err)
}

func TestParsePage(t *testing.T) {
	t.Parallel()

	c, err := ParsePage([]byte("next"))
	require.NoError(t, err)
	assert.Equal(t, PageCommand{Next: true}, c)
	c, err = ParsePage([]byte("Prev"))
	require.NoError(t, err)
	assert.Equal(t, PageCommand{Prev: true}, c)
	c, err = ParsePage([]byte("2"))
	require.NoError(t, err)
	assert.Equal(t, PageCommand{Page: 2}, c)
	_, err = ParsePage([]byte("-1"))
	assert.Error(t, err)
	_, err = ParsePage([]byte("last"))
	assert.Error(t, err)
}
