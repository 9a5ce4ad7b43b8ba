package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/mastplan/internal/domain"
	"github.com/kailas-cloud/mastplan/internal/domain/search/filter"
)

// filterFlags collects --filter and --range values.
type filterFlags struct {
	equals    []string // param=v1,v2
	ranges    []string // param=min:max
	noDefault bool
}

// spec builds the filter list. nil means "use the default planned-JWST filters".
func (f *filterFlags) spec() (*filter.Spec, error) {
	if len(f.equals) == 0 && len(f.ranges) == 0 {
		if f.noDefault {
			empty, _ := filter.NewSpec()
			return &empty, nil
		}
		return nil, nil
	}

	entries := make([]filter.Entry, 0, len(f.equals)+len(f.ranges))
	for _, raw := range f.equals {
		param, vals, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("%w: --filter %q must be param=value[,value...]", domain.ErrInvalidFilterSpec, raw)
		}
		entries = append(entries, filter.Equals(strings.TrimSpace(param), splitValues(vals)...))
	}
	for _, raw := range f.ranges {
		param, bounds, ok := strings.Cut(raw, "=")
		lo, hi, ok2 := strings.Cut(bounds, ":")
		if !ok || !ok2 {
			return nil, fmt.Errorf("%w: --range %q must be param=min:max", domain.ErrInvalidFilterSpec, raw)
		}
		minVal, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		maxVal, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: --range %q has non-numeric bounds", domain.ErrInvalidFilterSpec, raw)
		}
		entries = append(entries, filter.Between(strings.TrimSpace(param), minVal, maxVal))
	}

	spec, err := filter.NewSpec(entries...)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

func splitValues(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
