// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"reflect"
	"strconv"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/LorenzoCevolani/datajob/internal/config"
	"github.com/LorenzoCevolani/datajob/internal/log"
)

// Row is one output record keyed by column title.
type Row map[string]interface{}

// InterfaceToString renders a dataset value for a table cell. emptyValue
// replaces nil and zero values.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(b)
	}
}

// Dataset selects, filters and transforms the objects of raw. parent is the
// gjson path of the array inside raw, empty when raw is the array.
func Dataset(raw []byte, cols ColumnList, filters []Filter, parent string) []Row {
	doc := gjson.ParseBytes(raw)
	if parent != "" {
		doc = doc.Get(parent)
	}

	var rows []Row
	for _, obj := range doc.Array() {
		if !Match(obj, cols, filters) {
			continue
		}
		row := Row{}
		for _, c := range cols {
			row[c.Title] = c.Apply(obj.Get(c.Key).Value())
		}
		rows = append(rows, row)
	}
	return rows
}

// SliceDiceSpit renders raw according to the command's output, columns,
// filter and sort flags. cols are the command defaults.
func SliceDiceSpit(raw []byte, cols ColumnList, cmd *cli.Command, parent string, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	format := cmd.String("output")
	if format == "raw" {
		_, err := w.Write(raw)
		return err
	}

	if err := cols.Set(cmd.String("columns")); err != nil {
		return err
	}
	filters, err := ParseFilters(cmd.String("filter"))
	if err != nil {
		return err
	}

	rows := Dataset(raw, cols, filters, parent)
	SortDataset(rows, cmd.String("sort"))

	switch format {
	case "json":
		b, err := orderedJSON(ordered(rows, cols))
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		b, err := yaml.Marshal(ordered(rows, cols))
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	case "", "text":
		TableWriter(rows, cols, cmd, w)
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

// ordered keeps column order in json and yaml output.
func ordered(rows []Row, cols ColumnList) []yaml.MapSlice {
	out := make([]yaml.MapSlice, 0, len(rows))
	for _, r := range rows {
		ms := yaml.MapSlice{}
		for _, c := range cols {
			if c.Include {
				ms = append(ms, yaml.MapItem{Key: c.Title, Value: r[c.Title]})
			}
		}
		out = append(out, ms)
	}
	return out
}

func orderedJSON(rows []yaml.MapSlice) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, item := range r {
			if j > 0 {
				buf.WriteByte(',')
			}
			k, err := JSON(item.Key)
			if err != nil {
				return nil, err
			}
			v, err := JSON(item.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// TableWriter renders rows as a borderless table honoring the color,
// titles and padding flags.
func TableWriter(rows []Row, cols ColumnList, cmd *cli.Command, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	if len(rows) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left).Bold(true)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if cmd.Bool("color") {
		headerColor, evenColor, oddColor := getColors("colors")
		headerStyle = headerStyle.Foreground(headerColor)
		evenRowStyle = evenRowStyle.Foreground(evenColor)
		oddRowStyle = oddRowStyle.Foreground(oddColor)
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := make([]string, 0, len(cols))
		for _, c := range cols {
			if c.Include {
				line = append(line, InterfaceToString(r[c.Title], "-"))
			}
		}
		cells = append(cells, line)
	}

	if h, ok := cmd.Metadata["header"].(string); ok {
		fmt.Fprintln(w, headerStyle.Render(h))
	}

	pad := int(cmd.Int("padding"))
	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}
			if col > 0 {
				style = style.PaddingLeft(pad)
			}
			return style
		}).
		Headers().
		Rows(cells...)

	if cmd.Bool("titles") {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(cols.Titles()...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)

	if f, ok := cmd.Metadata["footer"].(string); ok {
		fmt.Fprintln(w, headerStyle.Render(f))
	}
}

// getColors picks table colors from the user config, else defaults that
// read on the terminal's background.
func getColors(key string) (header, even, odd color.Color) {
	isDark := lipgloss.HasDarkBackground(os.Stdin, os.Stdout)

	resolve := func(key, light, dark string) color.Color {
		if c, err := config.GetString(key); err == nil {
			return lipgloss.Color(c)
		}
		if isDark {
			return lipgloss.Color(dark)
		}
		return lipgloss.Color(light)
	}

	header = resolve(key+".title", "#b08800", "#f6be00")
	even = resolve(key+".even", "#333333", "#ffffff")
	odd = resolve(key+".odd", "#0088a0", "#00c8f0")
	log.Tracef("table colors resolved")
	return
}

// JSON marshals v and returns the bytes for SliceDiceSpit.
func JSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}
