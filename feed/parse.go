package feed

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// ParseEnv accepts "21.5 40" or {"t":21.5,"h":40}.
func ParseEnv(b []byte) (temperature, humidity float64, err error) {
	b = bytes.TrimSpace(b)
	if len(b) != 0 && b[0] == '{' {
		var v struct {
			T *float64 `json:"t"`
			H *float64 `json:"h"`
		}
		if err = json.Unmarshal(b, &v); err != nil {
			return 0, 0, errors.Annotate(err, "env json")
		}
		if v.T == nil || v.H == nil {
			return 0, 0, errors.NotValidf("env json=%s", b)
		}
		return *v.T, *v.H, nil
	}
	fields := strings.Fields(string(b))
	if len(fields) != 2 {
		return 0, 0, errors.NotValidf("env=%q", b)
	}
	if temperature, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return 0, 0, errors.Annotate(err, "env temperature")
	}
	if humidity, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return 0, 0, errors.Annotate(err, "env humidity")
	}
	return temperature, humidity, nil
}

// ParseTime accepts HH:MM:SS or HH:MM.
func ParseTime(b []byte) (hours, minutes, seconds int, err error) {
	parts := strings.Split(strings.TrimSpace(string(b)), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, errors.NotValidf("time=%q", b)
	}
	var vs [3]int
	limits := [3]int{24, 60, 60}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v >= limits[i] {
			return 0, 0, 0, errors.NotValidf("time=%q", b)
		}
		vs[i] = v
	}
	return vs[0], vs[1], vs[2], nil
}

func ParseOnOff(b []byte) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, errors.NotValidf("on/off=%q", b)
}

type PageCommand struct {
	Next bool
	Prev bool
	Page int
}

// ParsePage accepts next, prev or page number.
func ParsePage(b []byte) (PageCommand, error) {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	switch s {
	case "next":
		return PageCommand{Next: true}, nil
	case "prev":
		return PageCommand{Prev: true}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return PageCommand{}, errors.NotValidf("page=%q", b)
	}
	return PageCommand{Page: n}, nil
}
