// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"sort"
	"strings"
)

// SortDataset sorts rows by a comma separated list of column titles. A
// leading - sorts descending, a leading ! compares case sensitively.
func SortDataset(rows []Row, spec string) {
	if spec == "" {
		return
	}
	fields := strings.Split(spec, ",")

	sort.SliceStable(rows, func(one, two int) bool {
		for _, field := range fields {
			ascending := true
			if strings.HasPrefix(field, "-") {
				field = field[1:]
				ascending = false
			}

			caseSensitive := false
			if strings.HasPrefix(field, "!") {
				field = field[1:]
				caseSensitive = true
			}

			a, b := rows[one][field], rows[two][field]

			if af, ok := a.(float64); ok {
				if bf, ok := b.(float64); ok {
					if af == bf {
						continue
					}
					return (af < bf) == ascending
				}
			}

			as, bs := InterfaceToString(a), InterfaceToString(b)
			if !caseSensitive {
				as, bs = strings.ToLower(as), strings.ToLower(bs)
			}
			if as != bs {
				return (as < bs) == ascending
			}
		}
		return false
	})
}
