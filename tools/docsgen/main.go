// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

// docsgen writes a markdown page, a man page and a tldr page per datajob
// command from the CLI definition itself.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/command"
	"github.com/LorenzoCevolani/datajob/internal/version"
)

type Flag struct {
	ID          string
	Syntax      string
	Description string
	Default     string
}

type TemplateData struct {
	ID          string
	IDUpper     string
	Short       string
	Usage       string
	Description string
	Aliases     []string
	Flags       []Flag
	Date        string
	Version     string
}

type Outputs struct {
	Template *template.Template
	Folder   string
	Prefix   string
	Suffix   string
	Man      bool
}

var funcs = template.FuncMap{"join": strings.Join}

var mdTemplate = template.Must(template.New("md").Funcs(funcs).Parse(`# datajob {{ .ID }}

{{ .Short }}

` + "```" + `
{{ .Usage }}
` + "```" + `
{{ if .Aliases }}
Aliases: {{ join .Aliases ", " }}
{{ end }}{{ if .Description }}
{{ .Description }}
{{ end }}
## Flags

| Flag | Description | Default |
|---|---|---|
{{ range .Flags }}| ` + "`{{ .Syntax }}`" + ` | {{ .Description }} | {{ .Default }} |
{{ end }}
_datajob {{ .Version }}, {{ .Date }}_
`))

var tldrTemplate = template.Must(template.New("tldr").Funcs(funcs).Parse(`# datajob {{ .ID }}

> {{ .Short }}.

- Usage:

` + "`{{ .Usage }}`" + `
`))

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: docsgen <docs dir>")
		os.Exit(1)
	}
	docs := os.Args[1]

	app, err := command.InitApp(context.Background(), []string{"datajob"})
	if err != nil {
		panic(err)
	}

	types := []Outputs{
		{Template: mdTemplate, Folder: filepath.Join(docs, "commands"), Suffix: ".md"},
		{Template: mdTemplate, Folder: filepath.Join(docs, "man", "share", "man1"), Prefix: "datajob-", Suffix: ".1", Man: true},
		{Template: tldrTemplate, Folder: filepath.Join(docs, "tldr"), Prefix: "datajob-", Suffix: ".md"},
	}

	for _, sub := range app.Commands {
		if sub.Hidden {
			continue
		}
		metadata := templateData(sub)

		for _, t := range types {
			if err := os.MkdirAll(t.Folder, 0o755); err != nil {
				panic(err)
			}

			path := filepath.Join(t.Folder, t.Prefix+sub.Name+t.Suffix)
			fmt.Println("Generating", path)
			if err := render(path, t, metadata); err != nil {
				panic(err)
			}
		}
	}
}

func templateData(sub *cli.Command) TemplateData {
	return TemplateData{
		ID:          sub.Name,
		IDUpper:     strings.ToUpper(sub.Name),
		Short:       sub.Usage,
		Usage:       sub.UsageText,
		Description: sub.Description,
		Aliases:     sub.Aliases,
		Flags:       flags(sub.Flags),
		Date:        time.Now().Format("January 2, 2006"),
		Version:     version.String(),
	}
}

func flags(in []cli.Flag) []Flag {
	out := make([]Flag, 0, len(in))
	for _, f := range in {
		if v, ok := f.(cli.VisibleFlag); ok && !v.IsVisible() {
			continue
		}

		names := f.Names()
		syntax := make([]string, len(names))
		for i, n := range names {
			if len(n) == 1 {
				syntax[i] = "-" + n
			} else {
				syntax[i] = "--" + n
			}
		}

		flag := Flag{ID: names[0], Syntax: strings.Join(syntax, ", ")}
		if d, ok := f.(cli.DocGenerationFlag); ok {
			flag.Description = d.GetUsage()
			flag.Default = d.GetValue()
		}
		out = append(out, flag)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func render(path string, out Outputs, data TemplateData) error {
	var buf bytes.Buffer
	if err := execute(&buf, out.Template, data); err != nil {
		return err
	}

	content := buf.Bytes()
	if out.Man {
		content = md2man.Render(content)
	}
	return writeFileIfChanged(path, content)
}

// writeFileIfChanged leaves path alone when only whitespace differs, keeping
// regenerated docs out of diffs.
func writeFileIfChanged(path string, content []byte) error {
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, content, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(content)) {
		return nil
	}
	return os.WriteFile(path, content, 0o644)
}

func execute(w io.Writer, tmpl *template.Template, data TemplateData) error {
	return tmpl.Execute(w, data)
}
