// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package stepfunctions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssnssubscriptions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsstepfunctions"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/LorenzoCevolani/datajob/stack"
)

// StateMachineOutputPrefix prefixes the stack output holding a workflow's
// state machine name.
const StateMachineOutputPrefix = "StateMachineName"

// Props configures a Workflow.
type Props struct {
	// Role replaces the generated state machine role.
	Role awsiam.IRole

	// Notification is one or more comma separated email addresses told about
	// success and failure.
	Notification string

	// Region of the Glue jobs, the stack region when empty.
	Region string

	Comment string
}

// Workflow is a state machine registered on a stack.
type Workflow struct {
	constructs.Construct

	Name string
	Flow *Flow

	props        Props
	stack        *stack.Stack
	role         awsiam.IRole
	topic        awssns.Topic
	stateMachine awsstepfunctions.CfnStateMachine
}

// New registers an empty workflow on s.
func New(s *stack.Stack, name string, props *Props) (*Workflow, error) {
	if name == "" {
		return nil, errors.New("workflow name is required")
	}
	if props == nil {
		props = &Props{}
	}
	if _, err := NotificationAddresses(props.Notification); err != nil {
		return nil, fmt.Errorf("workflow %s: %w", name, err)
	}
	key := OutputKey(name)
	for _, r := range s.Resources() {
		if other, ok := r.(*Workflow); ok && OutputKey(other.Name) == key {
			return nil, fmt.Errorf("%w: %s and %s both map to %s", ErrOutputKey, other.Name, name, key)
		}
	}

	w := &Workflow{
		Construct: constructs.NewConstruct(s.Stack, jsii.String(name)),
		Name:      name,
		Flow:      &Flow{},
		props:     *props,
		stack:     s,
	}
	s.Add(w)
	return w, nil
}

// UniqueName is the state machine name: "<unique stack name>-<name>".
func (w *Workflow) UniqueName() string {
	return w.stack.UniqueName(w.Name)
}

// Chain appends stages to the workflow's flow.
func (w *Workflow) Chain(stages ...Stage) error {
	return w.Flow.Chain(stages...)
}

// Connect parses expr and chains the result.
func (w *Workflow) Connect(expr string, lookup func(string) (Task, bool)) error {
	stages, err := ParseExpression(expr, lookup)
	if err != nil {
		return err
	}
	return w.Chain(stages...)
}

// Definition renders the workflow's state machine document.
func (w *Workflow) Definition() (*StateMachine, error) {
	return w.Flow.Definition(DefinitionOptions{
		Name:    w.UniqueName(),
		Comment: w.props.Comment,
		Notify:  w.props.Notification != "",
	})
}

// StateMachine returns the CFN state machine, nil before Create.
func (w *Workflow) StateMachine() awsstepfunctions.CfnStateMachine {
	return w.stateMachine
}

// Create emits the role, optional notification topic and state machine.
func (w *Workflow) Create() error {
	unique := w.UniqueName()

	def, err := w.Definition()
	if err != nil {
		return fmt.Errorf("workflow %s: %w", w.Name, err)
	}
	body, err := def.JSON()
	if err != nil {
		return err
	}

	substitutions := map[string]*string{}
	if w.props.Notification != "" {
		addrs, _ := NotificationAddresses(w.props.Notification)
		w.topic = awssns.NewTopic(w.Construct, jsii.String(unique+"-notification"), &awssns.TopicProps{
			TopicName: jsii.String(unique + "-notification"),
		})
		for _, a := range addrs {
			w.topic.AddSubscription(awssnssubscriptions.NewEmailSubscription(jsii.String(a), nil))
		}
		substitutions["TopicArn"] = w.topic.TopicArn()
	}

	w.role = w.props.Role
	if w.role == nil {
		w.role = w.newRole(unique)
	}

	props := &awsstepfunctions.CfnStateMachineProps{
		StateMachineName: jsii.String(unique),
		RoleArn:          w.role.RoleArn(),
		DefinitionString: jsii.String(body),
	}
	if len(substitutions) > 0 {
		props.DefinitionSubstitutions = substitutions
	}

	log.WithField("workflow", unique).Debug("creating state machine")
	w.stateMachine = awsstepfunctions.NewCfnStateMachine(w.Construct, jsii.String(unique), props)

	for _, t := range w.Flow.Tasks() {
		if d, ok := t.(interface{ Dependency() constructs.IDependable }); ok {
			w.stateMachine.Node().AddDependency(d.Dependency())
		}
	}

	awscdk.NewCfnOutput(w.stack.Stack, jsii.String(OutputKey(w.Name)), &awscdk.CfnOutputProps{
		Value:       w.stateMachine.AttrName(),
		Description: jsii.String("State machine of workflow " + w.Name),
	})

	return nil
}

func (w *Workflow) newRole(unique string) awsiam.IRole {
	role := awsiam.NewRole(w.Construct, jsii.String(unique+"-role"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("states.amazonaws.com"), nil),
	})

	var jobArns []*string
	for _, t := range w.Flow.Tasks() {
		arn := w.stack.FormatArn(&awscdk.ArnComponents{
			Service:      jsii.String("glue"),
			Resource:     jsii.String("job"),
			ResourceName: jsii.String(t.UniqueName()),
			Region:       optionalString(w.props.Region),
		})
		jobArns = append(jobArns, arn)
	}

	if len(jobArns) > 0 {
		role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions: jsii.Strings(
				"glue:StartJobRun",
				"glue:GetJobRun",
				"glue:GetJobRuns",
				"glue:BatchStopJobRun",
			),
			Resources: &jobArns,
		}))
	}

	if w.topic != nil {
		w.topic.GrantPublish(role)
	}

	return role
}

// OutputKey is the stack output key holding the state machine name of the
// workflow called name.
func OutputKey(name string) string {
	var b strings.Builder
	b.WriteString(StateMachineOutputPrefix)
	upper := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			if upper {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			upper = false
		case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	return b.String()
}

// NotificationAddresses splits a comma separated list of email addresses.
func NotificationAddresses(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		at := strings.Index(a, "@")
		if at <= 0 || at == len(a)-1 || strings.ContainsAny(a, " \t") {
			return nil, fmt.Errorf("%w: %q", ErrNotification, a)
		}
		out = append(out, a)
	}
	return out, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return jsii.String(s)
}
