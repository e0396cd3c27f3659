// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// ErrEmptyDocument is returned when either side of a diff is empty.
var ErrEmptyDocument = errors.New("nothing to compare")

// Options tune Diff.
type Options struct {
	// Ignore lists top level keys dropped from both documents.
	Ignore []string
	Color  bool
}

// Diff writes the changes from deployed to local to w and reports whether
// there are any.
func Diff(w io.Writer, deployed, local []byte, opts Options) (bool, error) {
	if len(deployed) == 0 || len(local) == 0 {
		return false, ErrEmptyDocument
	}

	left, err := normalize(deployed, opts.Ignore)
	if err != nil {
		return false, fmt.Errorf("failed to parse deployed definition: %w", err)
	}
	right, err := normalize(local, opts.Ignore)
	if err != nil {
		return false, fmt.Errorf("failed to parse local definition: %w", err)
	}

	log.Debugf("comparing %d and %d bytes", len(deployed), len(local))

	delta := gojsondiff.New().CompareObjects(left, right)
	if !delta.Modified() {
		fmt.Fprintln(w, "The definitions are identical.")
		return false, nil
	}

	f := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: false,
		Coloring:       opts.Color,
	})
	out, err := f.Format(delta)
	if err != nil {
		return true, fmt.Errorf("failed to format diff: %w", err)
	}

	fmt.Fprint(w, out)
	return true, nil
}

func normalize(doc []byte, ignore []string) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, err
	}
	for _, k := range ignore {
		delete(m, k)
	}
	return m, nil
}
