// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/apex/log"
	"github.com/aws/constructs-go/constructs/v10"
	"gopkg.in/yaml.v3"

	"github.com/LorenzoCevolani/datajob/glue"
	"github.com/LorenzoCevolani/datajob/stack"
	"github.com/LorenzoCevolani/datajob/stepfunctions"
)

var ErrInvalid = errors.New("invalid pipeline")

// Declaration is a pipeline file.
type Declaration struct {
	ID            string     `yaml:"id"`
	ProjectRoot   string     `yaml:"project_root"`
	IncludeFolder string     `yaml:"include_folder"`
	Account       string     `yaml:"account"`
	Region        string     `yaml:"region"`
	Description   string     `yaml:"description"`
	Jobs          []Job      `yaml:"jobs"`
	Workflows     []Workflow `yaml:"workflows"`

	// Source is the file the declaration was loaded from.
	Source string `yaml:"-"`
}

// Job declares a glue.Job.
type Job struct {
	Name            string            `yaml:"name"`
	Path            string            `yaml:"path"`
	Type            string            `yaml:"type"`
	GlueVersion     string            `yaml:"glue_version"`
	MaxCapacity     *float64          `yaml:"max_capacity"`
	WorkerType      string            `yaml:"worker_type"`
	NumberOfWorkers *int              `yaml:"number_of_workers"`
	PythonVersion   string            `yaml:"python_version"`
	Timeout         int               `yaml:"timeout"`
	MaxRetries      *int              `yaml:"max_retries"`
	Arguments       map[string]string `yaml:"arguments"`
	Tags            map[string]string `yaml:"tags"`
}

// Workflow declares a stepfunctions.Workflow. Each Flow entry is a `>>`
// expression; later entries continue the chain.
type Workflow struct {
	Name         string   `yaml:"name"`
	Notification string   `yaml:"notification"`
	Comment      string   `yaml:"comment"`
	Flow         []string `yaml:"flow"`
}

// TemplateData is available to argument templates.
type TemplateData struct {
	Stage            string
	DataBucket       string
	DeploymentBucket string
	UniqueStackName  string
}

// NamedDefinition is a rendered workflow.
type NamedDefinition struct {
	Name       string
	UniqueName string
	Definition *stepfunctions.StateMachine
}

// Load reads and validates the pipeline at path. Relative project_root and
// include_folder resolve against the file's directory.
func Load(path string) (*Declaration, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open pipeline: %w", err)
	}
	defer f.Close()

	var d Declaration
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline %s: %w", abs, err)
	}
	d.Source = abs

	dir := filepath.Dir(abs)
	if d.ProjectRoot == "" {
		d.ProjectRoot = dir
	} else if !filepath.IsAbs(d.ProjectRoot) {
		d.ProjectRoot = filepath.Join(dir, d.ProjectRoot)
	}
	if d.IncludeFolder != "" && !filepath.IsAbs(d.IncludeFolder) {
		d.IncludeFolder = filepath.Join(dir, d.IncludeFolder)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	log.WithField("pipeline", abs).Debugf("loaded %d jobs, %d workflows", len(d.Jobs), len(d.Workflows))
	return &d, nil
}

// Validate checks names and that every flow references declared jobs.
func (d *Declaration) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}

	names := map[string]bool{}
	for i, j := range d.Jobs {
		if j.Name == "" {
			return fmt.Errorf("%w: jobs[%d] has no name", ErrInvalid, i)
		}
		if names[j.Name] {
			return fmt.Errorf("%w: duplicate job %q", ErrInvalid, j.Name)
		}
		if j.Path == "" {
			return fmt.Errorf("%w: job %q has no path", ErrInvalid, j.Name)
		}
		names[j.Name] = true
	}

	outputs := map[string]string{}
	for i, w := range d.Workflows {
		if w.Name == "" {
			return fmt.Errorf("%w: workflows[%d] has no name", ErrInvalid, i)
		}
		if names[w.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalid, w.Name)
		}
		names[w.Name] = true

		key := stepfunctions.OutputKey(w.Name)
		if other, ok := outputs[key]; ok {
			return fmt.Errorf("%w: workflows %q and %q share the stack output %s", ErrInvalid, other, w.Name, key)
		}
		outputs[key] = w.Name

		if len(w.Flow) == 0 {
			return fmt.Errorf("%w: workflow %q has no flow", ErrInvalid, w.Name)
		}
		if _, err := d.flow(w, func(n string) string { return n }); err != nil {
			return fmt.Errorf("%w: workflow %q: %w", ErrInvalid, w.Name, err)
		}
	}
	return nil
}

// JobNames returns the declared job names, sorted.
func (d *Declaration) JobNames() []string {
	out := make([]string, 0, len(d.Jobs))
	for _, j := range d.Jobs {
		out = append(out, j.Name)
	}
	sort.Strings(out)
	return out
}

// Workflow returns the workflow called name.
func (d *Declaration) Workflow(name string) (Workflow, bool) {
	for _, w := range d.Workflows {
		if w.Name == name {
			return w, true
		}
	}
	return Workflow{}, false
}

// Build creates the stack for stage under scope.
func Build(scope constructs.Construct, d *Declaration, stage string) (*stack.Stack, error) {
	props := &stack.Props{
		Stage:         stage,
		ProjectRoot:   d.ProjectRoot,
		IncludeFolder: d.IncludeFolder,
		Account:       d.Account,
		Region:        d.Region,
		Description:   d.Description,
	}

	return stack.Run(scope, d.ID, props, func(s *stack.Stack) error {
		data := TemplateData{
			Stage:            s.Stage,
			DataBucket:       s.Context.DataBucketName,
			DeploymentBucket: s.Context.DeploymentBucketName,
			UniqueStackName:  s.UniqueStackName,
		}

		jobs := map[string]stepfunctions.Task{}
		for _, jd := range d.Jobs {
			args, err := RenderArguments(jd.Arguments, data)
			if err != nil {
				return fmt.Errorf("job %s: %w", jd.Name, err)
			}

			j, err := glue.New(s, jd.Name, &glue.Props{
				JobPath:         jd.Path,
				JobType:         glue.JobType(jd.Type),
				GlueVersion:     jd.GlueVersion,
				MaxCapacity:     jd.MaxCapacity,
				WorkerType:      jd.WorkerType,
				NumberOfWorkers: jd.NumberOfWorkers,
				PythonVersion:   jd.PythonVersion,
				Arguments:       args,
				Timeout:         jd.Timeout,
				MaxRetries:      jd.MaxRetries,
				Tags:            jd.Tags,
			})
			if err != nil {
				return err
			}
			jobs[jd.Name] = j
		}

		lookup := func(name string) (stepfunctions.Task, bool) {
			t, ok := jobs[name]
			return t, ok
		}

		for _, wd := range d.Workflows {
			w, err := stepfunctions.New(s, wd.Name, &stepfunctions.Props{
				Notification: wd.Notification,
				Region:       d.Region,
				Comment:      wd.Comment,
			})
			if err != nil {
				return err
			}
			for _, expr := range wd.Flow {
				if err := w.Connect(expr, lookup); err != nil {
					return fmt.Errorf("workflow %s: %w", wd.Name, err)
				}
			}
		}
		return nil
	})
}

// Definitions renders every workflow for stage without synthesizing CDK.
func Definitions(d *Declaration, stage string) ([]NamedDefinition, error) {
	unique := stack.UniqueStackName(d.ID, stage)

	out := make([]NamedDefinition, 0, len(d.Workflows))
	for _, w := range d.Workflows {
		f, err := d.flow(w, func(n string) string { return stack.UniqueResourceName(unique, n) })
		if err != nil {
			return nil, fmt.Errorf("workflow %s: %w", w.Name, err)
		}

		uniqueName := stack.UniqueResourceName(unique, w.Name)
		def, err := f.Definition(stepfunctions.DefinitionOptions{
			Name:    uniqueName,
			Comment: w.Comment,
			Notify:  w.Notification != "",
		})
		if err != nil {
			return nil, fmt.Errorf("workflow %s: %w", w.Name, err)
		}
		out = append(out, NamedDefinition{Name: w.Name, UniqueName: uniqueName, Definition: def})
	}
	return out, nil
}

// RenderArguments executes every argument value as a template over data.
func RenderArguments(args map[string]string, data TemplateData) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(args))
	for k, v := range args {
		tmpl, err := template.New(k).Option("missingkey=error").Parse(v)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", k, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("argument %s: %w", k, err)
		}
		out[k] = buf.String()
	}
	return out, nil
}

// namedTask stands in for a job when only names matter.
type namedTask string

func (n namedTask) UniqueName() string { return string(n) }

func (d *Declaration) flow(w Workflow, uniqueName func(string) string) (*stepfunctions.Flow, error) {
	declared := map[string]bool{}
	for _, j := range d.Jobs {
		declared[j.Name] = true
	}
	lookup := func(name string) (stepfunctions.Task, bool) {
		if !declared[name] {
			return nil, false
		}
		return namedTask(uniqueName(name)), true
	}

	f := &stepfunctions.Flow{}
	for _, expr := range w.Flow {
		stages, err := stepfunctions.ParseExpression(expr, lookup)
		if err != nil {
			return nil, err
		}
		if err := f.Chain(stages...); err != nil {
			return nil, err
		}
	}
	return f, nil
}
