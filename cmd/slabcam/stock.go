package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/piwi3910/slabcam/internal/nest"
)

// parseLinearStock parses "id:length:qty".
func parseLinearStock(spec string) (nest.LinearStock, error) {
	fields := strings.Split(spec, ":")
	if len(fields) != 3 || fields[0] == "" {
		return nest.LinearStock{}, fmt.Errorf("invalid board stock %q, want id:length:qty", spec)
	}
	length, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nest.LinearStock{}, fmt.Errorf("invalid board stock %q: bad length", spec)
	}
	qty, err := strconv.Atoi(fields[2])
	if err != nil {
		return nest.LinearStock{}, fmt.Errorf("invalid board stock %q: bad quantity", spec)
	}
	return nest.LinearStock{ID: fields[0], Length: length, Quantity: qty}, nil
}

// parseSheetStock parses "id:WxH:qty".
func parseSheetStock(spec string) (nest.SheetStock, error) {
	fields := strings.Split(spec, ":")
	if len(fields) != 3 || fields[0] == "" {
		return nest.SheetStock{}, fmt.Errorf("invalid sheet stock %q, want id:WxH:qty", spec)
	}
	w, h, ok := strings.Cut(strings.ToLower(fields[1]), "x")
	if !ok {
		return nest.SheetStock{}, fmt.Errorf("invalid sheet stock %q: size must be WxH", spec)
	}
	width, errW := strconv.ParseFloat(w, 64)
	height, errH := strconv.ParseFloat(h, 64)
	if errW != nil || errH != nil {
		return nest.SheetStock{}, fmt.Errorf("invalid sheet stock %q: bad size", spec)
	}
	qty, err := strconv.Atoi(fields[2])
	if err != nil {
		return nest.SheetStock{}, fmt.Errorf("invalid sheet stock %q: bad quantity", spec)
	}
	return nest.SheetStock{ID: fields[0], Width: width, Height: height, Quantity: qty}, nil
}

func parseAll[T any](specs []string, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, 0, len(specs))
	for _, s := range specs {
		v, err := parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
