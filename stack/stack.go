// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"errors"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// StageContextKey is the CDK context key holding the deployment stage
// (`cdk deploy -c stage=dev`).
const StageContextKey = "stage"

// Props configures a Stack.
type Props struct {
	// Stage overrides the stage read from the CDK context.
	Stage string

	// ProjectRoot is where dist/*.whl is looked up and relative job paths
	// resolve. Empty skips wheel deployment.
	ProjectRoot string

	// IncludeFolder is deployed as-is to the deployment bucket.
	IncludeFolder string

	Account string
	Region  string

	// Env wins over Account and Region when set.
	Env *awscdk.Environment

	Description string
}

// Resource is anything a Stack creates when CreateResources runs.
type Resource interface {
	UniqueName() string
	Create() error
}

// Stack is the deployment unit of a pipeline.
type Stack struct {
	awscdk.Stack

	ID              string
	Stage           string
	UniqueStackName string
	ProjectRoot     string
	IncludeFolder   string
	Context         *Context

	resources []Resource
	created   bool
}

// New creates the CDK stack named after id and the resolved stage.
func New(scope constructs.Construct, id string, props *Props) (*Stack, error) {
	if props == nil {
		props = &Props{}
	}
	if id == "" {
		return nil, errors.New("stack id is required")
	}

	stage := props.Stage
	if stage == "" {
		stage = contextString(scope, StageContextKey)
	}

	unique := UniqueStackName(id, stage)
	if _, _, err := BucketNames(unique); err != nil {
		return nil, err
	}

	env := props.Env
	if env == nil {
		env = environment(props.Account, props.Region)
	}

	log.WithField("stack", unique).Debug("creating stack")

	cdkStack := awscdk.NewStack(scope, jsii.String(id), &awscdk.StackProps{
		Env:         env,
		StackName:   jsii.String(unique),
		Description: optionalString(props.Description),
	})

	return &Stack{
		Stack:           cdkStack,
		ID:              id,
		Stage:           stage,
		UniqueStackName: unique,
		ProjectRoot:     props.ProjectRoot,
		IncludeFolder:   props.IncludeFolder,
	}, nil
}

// Run is New, InitContext, fn and CreateResources in one call.
func Run(scope constructs.Construct, id string, props *Props, fn func(*Stack) error) (*Stack, error) {
	s, err := New(scope, id, props)
	if err != nil {
		return nil, err
	}
	if err := s.InitContext(); err != nil {
		return nil, err
	}
	if fn != nil {
		if err := fn(s); err != nil {
			return nil, err
		}
	}
	if err := s.CreateResources(); err != nil {
		return nil, err
	}
	return s, nil
}

// InitContext creates the buckets and deployments every resource relies on.
func (s *Stack) InitContext() error {
	if s.Context != nil {
		return ErrContextInitialized
	}

	c, err := NewContext(s.Stack, s.UniqueStackName, &ContextProps{
		ProjectRoot:   s.ProjectRoot,
		IncludeFolder: s.IncludeFolder,
	})
	if err != nil {
		return fmt.Errorf("failed to init context for %s: %w", s.UniqueStackName, err)
	}
	s.Context = c

	awscdk.NewCfnOutput(s.Stack, jsii.String("DataBucketName"), &awscdk.CfnOutputProps{
		Value:       jsii.String(c.DataBucketName),
		Description: jsii.String("Bucket for pipeline data"),
	})
	awscdk.NewCfnOutput(s.Stack, jsii.String("DeploymentBucketName"), &awscdk.CfnOutputProps{
		Value:       jsii.String(c.DeploymentBucketName),
		Description: jsii.String("Bucket holding job code, wheel and included files"),
	})

	return nil
}

// Add registers r for creation. Resource constructors call it.
func (s *Stack) Add(r Resource) {
	log.WithField("resource", r.UniqueName()).Debug("adding resource")
	s.resources = append(s.resources, r)
}

// Resources returns the registered resources in registration order.
func (s *Stack) Resources() []Resource {
	return s.resources
}

// CreateResources creates every registered resource in registration order.
func (s *Stack) CreateResources() error {
	if s.Context == nil {
		return ErrContextNotInitialized
	}
	if s.created {
		return ErrResourcesCreated
	}
	s.created = true

	for _, r := range s.resources {
		log.WithField("resource", r.UniqueName()).Debug("creating resource")
		if err := r.Create(); err != nil {
			return fmt.Errorf("failed to create %s: %w", r.UniqueName(), err)
		}
	}
	return nil
}

// UniqueName returns the stack-scoped name for a resource called name.
func (s *Stack) UniqueName(name string) string {
	return UniqueResourceName(s.UniqueStackName, name)
}

// ContextParameter reads a CDK context value set with `-c name=value`.
func (s *Stack) ContextParameter(name string) (string, error) {
	v := contextString(s.Stack, name)
	if v == "" {
		return "", fmt.Errorf("%w: %s (pass it with -c %s=<value>)", ErrMissingContext, name, name)
	}
	return v, nil
}

func contextString(scope constructs.Construct, key string) string {
	if scope == nil {
		return ""
	}
	v := scope.Node().TryGetContext(jsii.String(key))
	switch val := v.(type) {
	case string:
		return val
	case *string:
		if val != nil {
			return *val
		}
	case nil:
	default:
		return fmt.Sprint(val)
	}
	return ""
}

// environment builds an awscdk.Environment from explicit values falling back
// to the variables the cdk CLI exports. Nil means environment-agnostic.
func environment(account, region string) *awscdk.Environment {
	if account == "" {
		account = firstEnv("AWS_DEFAULT_ACCOUNT", "CDK_DEFAULT_ACCOUNT")
	}
	if region == "" {
		region = firstEnv("AWS_DEFAULT_REGION", "CDK_DEFAULT_REGION")
	}
	if account == "" && region == "" {
		return nil
	}
	return &awscdk.Environment{
		Account: optionalString(account),
		Region:  optionalString(region),
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return jsii.String(s)
}
