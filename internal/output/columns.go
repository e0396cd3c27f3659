// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/LorenzoCevolani/datajob/internal/log"
)

// Column is one field of an output row.
type Column struct {
	// Key is the gjson path of the value in each dataset object.
	Key string
	// Title is the row key and table header.
	Title string
	// Include is false for columns only used to filter or sort.
	Include bool
	// Transform is a set of flags applied to string values:
	// t local time, T time ago, l lower case, u upper case, a number to
	// truncate (negative elides the middle).
	Transform string
}

// ColumnList is the ordered set of columns a command prints.
type ColumnList []Column

// Columns builds a list from "key" or "key:title:transform" specs.
func Columns(specs ...string) ColumnList {
	var cl ColumnList
	for _, s := range specs {
		_ = cl.Set(s)
	}
	return cl
}

// Set merges a comma separated --columns value into the list. Specs naming
// an existing column update it, others are appended. A leading ! hides the
// column and * applies its transform to every column.
func (cl *ColumnList) Set(value string) error {
	if value == "" {
		return nil
	}

	for _, spec := range strings.Split(value, ",") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}

		fields := strings.SplitN(spec, ":", 3)
		c := Column{Key: fields[0], Include: true}
		if strings.HasPrefix(c.Key, "!") {
			c.Key = c.Key[1:]
			c.Include = false
		}
		if c.Key == "" {
			return fmt.Errorf("invalid column spec %q", spec)
		}

		c.Title = c.Key
		if len(fields) > 1 && fields[1] != "" {
			c.Title = fields[1]
		} else if i := strings.LastIndex(c.Key, "."); i >= 0 {
			c.Title = c.Key[i+1:]
		}
		if len(fields) > 2 {
			c.Transform = fields[2]
		}

		if c.Key == "*" {
			for i := range *cl {
				(*cl)[i].Transform = c.Transform + (*cl)[i].Transform
			}
			continue
		}

		if i := cl.index(c.Key); i >= 0 {
			existing := (*cl)[i]
			c.Key = existing.Key
			if len(fields) < 2 || fields[1] == "" {
				c.Title = existing.Title
			}
			(*cl)[i] = c
			continue
		}
		*cl = append(*cl, c)
		log.Tracef("column added: key=%s title=%s", c.Key, c.Title)
	}
	return nil
}

func (cl ColumnList) index(key string) int {
	for i, c := range cl {
		if c.Key == key || c.Title == key {
			return i
		}
	}
	return -1
}

// Titles returns the titles of included columns.
func (cl ColumnList) Titles() []string {
	var out []string
	for _, c := range cl {
		if c.Include {
			out = append(out, c.Title)
		}
	}
	return out
}

func (cl ColumnList) String() string {
	parts := make([]string, 0, len(cl))
	for _, c := range cl {
		key := c.Key
		if !c.Include {
			key = "!" + key
		}
		parts = append(parts, fmt.Sprintf("%s:%s:%s", key, c.Title, c.Transform))
	}
	return strings.Join(parts, ",")
}

// Apply transforms value according to c.Transform. Non-string values pass
// through.
func (c Column) Apply(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok || c.Transform == "" {
		return value
	}

	if strings.ContainsAny(c.Transform, "tT") {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			if strings.Contains(c.Transform, "T") {
				s = humanize.Time(ts)
			} else {
				s = ts.Local().Format("2006-01-02 15:04:05 MST")
			}
		}
	}

	// The last case flag wins so a column flag overrides a * flag.
	lower := strings.LastIndexAny(c.Transform, "l")
	upper := strings.LastIndexAny(c.Transform, "u")
	switch {
	case lower > upper:
		s = strings.ToLower(s)
	case upper > lower:
		s = strings.ToUpper(s)
	}

	if n, ok := lastNumber(c.Transform); ok {
		s = truncate(s, n)
	}

	return s
}

func lastNumber(spec string) (int, bool) {
	end := -1
	for i := len(spec) - 1; i >= 0; i-- {
		if spec[i] >= '0' && spec[i] <= '9' {
			end = i + 1
			break
		}
	}
	if end < 0 {
		return 0, false
	}
	start := end - 1
	for start > 0 && spec[start-1] >= '0' && spec[start-1] <= '9' {
		start--
	}
	if start > 0 && spec[start-1] == '-' {
		start--
	}
	n, err := strconv.Atoi(spec[start:end])
	return n, err == nil
}

func truncate(s string, n int) string {
	width := n
	if width < 0 {
		width = -width
	}
	if len(s) <= width || width == 0 {
		return s
	}
	if n > 0 {
		return s[:n]
	}
	keep := width/2 - 1
	if keep < 1 {
		return s[:width]
	}
	return s[:keep] + ".." + s[len(s)-keep:]
}
