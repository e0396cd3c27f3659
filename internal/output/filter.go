// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/LorenzoCevolani/datajob/internal/log"
)

// filterRegex splits "key", "key=value" and "key!^value" style specs.
var filterRegex = regexp.MustCompile(`^([^!=^~<>@/]+)(!?[=^~<>@/])?(.*)$`)

// Filter is one parsed --filter expression.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Value   string
}

// ParseFilters parses a comma separated --filter value. DATAJOB_FILTER_DELIM
// replaces the comma for values that contain one.
func ParseFilters(spec string) ([]Filter, error) {
	if spec == "" {
		return nil, nil
	}

	delim := ","
	if d, ok := os.LookupEnv("DATAJOB_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	var out []Filter
	for _, s := range strings.Split(spec, delim) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		m := filterRegex.FindStringSubmatch(s)
		if m == nil || m[2] == "" {
			return nil, fmt.Errorf("invalid filter %q, want <key><op><value>", s)
		}
		out = append(out, Filter{
			Key:     strings.TrimSpace(m[1]),
			Negate:  strings.HasPrefix(m[2], "!"),
			Operand: strings.TrimPrefix(m[2], "!"),
			Value:   m[3],
		})
	}
	return out, nil
}

// Match reports whether row satisfies every filter. Filter keys are
// column titles or keys.
func Match(row gjson.Result, cols ColumnList, filters []Filter) bool {
	for _, f := range filters {
		key := f.Key
		if i := cols.index(f.Key); i >= 0 {
			key = cols[i].Key
		}

		v := row.Get(key)
		if !v.Exists() {
			return false
		}

		var ok bool
		switch v.Type {
		case gjson.Number:
			ok = matchNumber(v.Float(), f)
		default:
			ok = matchString(v.String(), f)
		}
		if !ok {
			return false
		}
	}
	return true
}

func matchNumber(v float64, f Filter) bool {
	target, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
	if err != nil {
		return matchString(strconv.FormatFloat(v, 'f', -1, 64), f)
	}
	switch f.Operand {
	case "=":
		return (v == target) != f.Negate
	case ">":
		return (v > target) != f.Negate
	case "<":
		return (v < target) != f.Negate
	}
	return matchString(strconv.FormatFloat(v, 'f', -1, 64), f)
}

func matchString(v string, f Filter) bool {
	var ok bool
	switch f.Operand {
	case "=":
		ok = v == f.Value
	case "~":
		ok = strings.EqualFold(v, f.Value)
	case "^":
		ok = strings.HasPrefix(v, f.Value)
	case ">":
		ok = v > f.Value
	case "<":
		ok = v < f.Value
	case "@":
		ok = strings.Contains(v, f.Value)
	case "/":
		re, err := regexp.Compile(f.Value)
		if err != nil {
			log.Errorf("invalid filter regex: %s", f.Value)
			return false
		}
		ok = re.MatchString(v)
	}
	return ok != f.Negate
}
