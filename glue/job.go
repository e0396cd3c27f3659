// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package glue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/apex/log"
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsglue"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3deployment"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/LorenzoCevolani/datajob/stack"
)

// JobType is the Glue command name.
type JobType string

const (
	PythonShell JobType = "pythonshell"
	GlueETL     JobType = "glueetl"
)

const (
	defaultPythonShellVersion = "1.0"
	defaultGlueETLVersion     = "2.0"
	defaultPythonVersion      = "3"
)

// WorkerTypes lists the accepted Glue worker types.
var WorkerTypes = []string{"Standard", "G.1X", "G.2X"}

var (
	ErrJobPath       = errors.New("invalid job path")
	ErrJobType       = errors.New("unknown job type")
	ErrWorkerType    = errors.New("invalid worker configuration")
	ErrMaxCapacity   = errors.New("invalid max capacity")
	ErrJobNameNeeded = errors.New("job name is required")
)

// Props configures a Job. Zero values select the defaults.
type Props struct {
	// JobPath is the script to run. Relative paths resolve against the
	// stack's ProjectRoot, or the working directory when that is empty.
	JobPath string

	JobType         JobType
	GlueVersion     string
	MaxCapacity     *float64
	Role            awsiam.IRole
	WorkerType      string
	NumberOfWorkers *int
	PythonVersion   string
	Arguments       map[string]string

	// Timeout in minutes.
	Timeout    int
	MaxRetries *int
	Tags       map[string]string
}

// Job is a Glue job registered on a stack.
type Job struct {
	constructs.Construct

	Name  string
	Props Props

	stack *stack.Stack
	role  awsiam.IRole
}

// New validates props and registers the job on s.
func New(s *stack.Stack, name string, props *Props) (*Job, error) {
	if name == "" {
		return nil, ErrJobNameNeeded
	}
	if props == nil {
		props = &Props{}
	}

	resolved, err := props.resolve(s.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("glue job %s: %w", name, err)
	}

	j := &Job{
		Construct: constructs.NewConstruct(s.Stack, jsii.String(name)),
		Name:      name,
		Props:     resolved,
		stack:     s,
	}
	s.Add(j)
	return j, nil
}

// UniqueName is the Glue job name: "<unique stack name>-<name>".
func (j *Job) UniqueName() string {
	return j.stack.UniqueName(j.Name)
}

// Dependency returns the construct the job's resources live under.
func (j *Job) Dependency() constructs.IDependable {
	return j.Construct
}

// Role returns the job role, nil before Create.
func (j *Job) Role() awsiam.IRole {
	return j.role
}

// Create deploys the job code and emits the Glue job.
func (j *Job) Create() error {
	c := j.stack.Context
	if c == nil {
		return stack.ErrContextNotInitialized
	}

	unique := j.UniqueName()
	dir, file := filepath.Split(j.Props.JobPath)

	log.WithField("job", unique).Debug("deploying job code")
	awss3deployment.NewBucketDeployment(j.Construct, jsii.String(unique+"-code"), &awss3deployment.BucketDeploymentProps{
		Sources:              &[]awss3deployment.ISource{awss3deployment.Source_Asset(jsii.String(filepath.Clean(dir)), nil)},
		DestinationBucket:    c.DeploymentBucket,
		DestinationKeyPrefix: jsii.String(unique),
	})

	j.role = j.Props.Role
	if j.role == nil {
		role := awsiam.NewRole(j.Construct, jsii.String(unique+"-role"), &awsiam.RoleProps{
			AssumedBy: awsiam.NewServicePrincipal(jsii.String("glue.amazonaws.com"), nil),
			ManagedPolicies: &[]awsiam.IManagedPolicy{
				awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("service-role/AWSGlueServiceRole")),
			},
		})
		c.DataBucket.GrantReadWrite(role, nil)
		c.DeploymentBucket.GrantReadWrite(role, nil)
		j.role = role
	}

	scriptLocation := fmt.Sprintf("s3://%s/%s/%s", c.DeploymentBucketName, unique, file)

	jobProps := &awsglue.CfnJobProps{
		Name: jsii.String(unique),
		Role: j.role.RoleArn(),
		Command: &awsglue.CfnJob_JobCommandProperty{
			Name:           jsii.String(string(j.Props.JobType)),
			PythonVersion:  jsii.String(j.Props.PythonVersion),
			ScriptLocation: jsii.String(scriptLocation),
		},
		GlueVersion: jsii.String(j.Props.GlueVersion),
	}

	if args := DefaultArguments(c.WheelURL, j.Props.Arguments); args != nil {
		jobProps.DefaultArguments = args
	}
	if j.Props.MaxCapacity != nil {
		jobProps.MaxCapacity = j.Props.MaxCapacity
	}
	if j.Props.WorkerType != "" {
		jobProps.WorkerType = jsii.String(j.Props.WorkerType)
		jobProps.NumberOfWorkers = jsii.Number(float64(*j.Props.NumberOfWorkers))
	}
	if j.Props.Timeout > 0 {
		jobProps.Timeout = jsii.Number(float64(j.Props.Timeout))
	}
	if j.Props.MaxRetries != nil {
		jobProps.MaxRetries = jsii.Number(float64(*j.Props.MaxRetries))
	}
	if len(j.Props.Tags) > 0 {
		jobProps.Tags = j.Props.Tags
	}

	log.WithField("job", unique).WithField("script", scriptLocation).Debug("creating glue job")
	awsglue.NewCfnJob(j.Construct, jsii.String(unique), jobProps)

	awscdk.Tags_Of(j.Construct).Add(jsii.String("datajob:stack"), jsii.String(j.stack.UniqueStackName), nil)

	return nil
}

// DefaultArguments merges the wheel location with user arguments. User
// values win. The result is nil when empty.
func DefaultArguments(wheelURL string, args map[string]string) map[string]string {
	out := map[string]string{}
	if wheelURL != "" {
		out["--extra-py-files"] = wheelURL
	}
	for k, v := range args {
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// resolve validates p and fills in defaults.
func (p Props) resolve(projectRoot string) (Props, error) {
	out := p

	if out.JobPath == "" {
		return Props{}, fmt.Errorf("%w: path is empty", ErrJobPath)
	}
	if !filepath.IsAbs(out.JobPath) && projectRoot != "" {
		out.JobPath = filepath.Join(projectRoot, out.JobPath)
	}
	abs, err := filepath.Abs(out.JobPath)
	if err != nil {
		return Props{}, fmt.Errorf("%w: %w", ErrJobPath, err)
	}
	out.JobPath = abs

	fi, err := os.Stat(out.JobPath)
	if err != nil {
		return Props{}, fmt.Errorf("%w: %w", ErrJobPath, err)
	}
	if !fi.Mode().IsRegular() {
		return Props{}, fmt.Errorf("%w: %s is not a file", ErrJobPath, out.JobPath)
	}

	switch out.JobType {
	case "":
		out.JobType = PythonShell
	case PythonShell, GlueETL:
	default:
		return Props{}, fmt.Errorf("%w: %q (want %s or %s)", ErrJobType, out.JobType, PythonShell, GlueETL)
	}

	if out.GlueVersion == "" {
		out.GlueVersion = defaultPythonShellVersion
		if out.JobType == GlueETL {
			out.GlueVersion = defaultGlueETLVersion
		}
	}
	if out.PythonVersion == "" {
		out.PythonVersion = defaultPythonVersion
	}

	if err := out.validateCapacity(); err != nil {
		return Props{}, err
	}

	if out.Timeout < 0 {
		return Props{}, fmt.Errorf("timeout must be positive, got %d", out.Timeout)
	}
	if out.MaxRetries != nil && *out.MaxRetries < 0 {
		return Props{}, fmt.Errorf("max retries must not be negative, got %d", *out.MaxRetries)
	}

	return out, nil
}

func (p Props) validateCapacity() error {
	if p.WorkerType != "" {
		if !slices.Contains(WorkerTypes, p.WorkerType) {
			return fmt.Errorf("%w: worker type %q not in %v", ErrWorkerType, p.WorkerType, WorkerTypes)
		}
		if p.JobType != GlueETL {
			return fmt.Errorf("%w: worker type needs job type %s", ErrWorkerType, GlueETL)
		}
		if p.NumberOfWorkers == nil || *p.NumberOfWorkers <= 0 {
			return fmt.Errorf("%w: worker type %s needs a positive number of workers", ErrWorkerType, p.WorkerType)
		}
		if p.MaxCapacity != nil {
			return fmt.Errorf("%w: worker type and max capacity are mutually exclusive", ErrWorkerType)
		}
	} else if p.NumberOfWorkers != nil {
		return fmt.Errorf("%w: number of workers needs a worker type", ErrWorkerType)
	}

	if p.MaxCapacity != nil {
		mc := *p.MaxCapacity
		if p.JobType == PythonShell && mc != 0.0625 && mc != 1 {
			return fmt.Errorf("%w: %s accepts 0.0625 or 1, got %g", ErrMaxCapacity, PythonShell, mc)
		}
		if p.JobType == GlueETL && mc < 2 {
			return fmt.Errorf("%w: %s needs at least 2 DPUs, got %g", ErrMaxCapacity, GlueETL, mc)
		}
	}
	return nil
}
