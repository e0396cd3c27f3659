// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/apex/log"
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3deployment"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// ContextProps configures a Context.
type ContextProps struct {
	ProjectRoot   string
	IncludeFolder string
}

// Context holds the resources shared by every job and workflow of a stack.
type Context struct {
	constructs.Construct

	UniqueStackName      string
	DataBucket           awss3.IBucket
	DataBucketName       string
	DeploymentBucket     awss3.IBucket
	DeploymentBucketName string

	// WheelURL is the s3 url of the project wheel, empty when none was found.
	WheelURL string
}

// NewContext creates both buckets and deploys the wheel and include folder.
func NewContext(scope constructs.Construct, uniqueStackName string, props *ContextProps) (*Context, error) {
	if props == nil {
		props = &ContextProps{}
	}

	dataName, deploymentName, err := BucketNames(uniqueStackName)
	if err != nil {
		return nil, err
	}

	c := &Context{
		Construct:            constructs.NewConstruct(scope, jsii.String(uniqueStackName+"-context")),
		UniqueStackName:      uniqueStackName,
		DataBucketName:       dataName,
		DeploymentBucketName: deploymentName,
	}

	c.DataBucket = newBucket(c.Construct, dataName)
	c.DeploymentBucket = newBucket(c.Construct, deploymentName)

	if props.ProjectRoot != "" {
		if err := c.deployWheel(props.ProjectRoot); err != nil {
			return nil, err
		}
	}

	if props.IncludeFolder != "" {
		if err := c.deployFolder(props.ProjectRoot, props.IncludeFolder); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func newBucket(scope constructs.Construct, name string) awss3.IBucket {
	log.WithField("bucket", name).Debug("creating bucket")
	return awss3.NewBucket(scope, jsii.String(name), &awss3.BucketProps{
		BucketName:        jsii.String(name),
		RemovalPolicy:     awscdk.RemovalPolicy_DESTROY,
		AutoDeleteObjects: jsii.Bool(true),
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		EnforceSSL:        jsii.Bool(true),
	})
}

func (c *Context) deployWheel(projectRoot string) error {
	wheel, err := FindWheel(projectRoot)
	if err != nil {
		log.WithError(err).Warnf("no wheel deployed for %s, run `datajob deploy --package` to build one", c.UniqueStackName)
		return nil
	}

	prefix := c.UniqueStackName + "-wheel"
	dist := filepath.Dir(wheel)

	log.WithField("wheel", wheel).Debug("deploying wheel")
	awss3deployment.NewBucketDeployment(c.Construct, jsii.String(prefix), &awss3deployment.BucketDeploymentProps{
		Sources:              &[]awss3deployment.ISource{awss3deployment.Source_Asset(jsii.String(dist), nil)},
		DestinationBucket:    c.DeploymentBucket,
		DestinationKeyPrefix: jsii.String(prefix),
	})

	c.WheelURL = fmt.Sprintf("s3://%s/%s/%s", c.DeploymentBucketName, prefix, filepath.Base(wheel))
	return nil
}

func (c *Context) deployFolder(projectRoot, folder string) error {
	if !filepath.IsAbs(folder) && projectRoot != "" {
		folder = filepath.Join(projectRoot, folder)
	}

	fi, err := os.Stat(folder)
	if err != nil {
		return fmt.Errorf("include folder: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("include folder %s is not a directory", folder)
	}

	prefix := filepath.Base(filepath.Clean(folder))

	log.WithField("folder", folder).Debug("deploying include folder")
	awss3deployment.NewBucketDeployment(c.Construct, jsii.String(c.UniqueStackName+"-"+prefix), &awss3deployment.BucketDeploymentProps{
		Sources:              &[]awss3deployment.ISource{awss3deployment.Source_Asset(jsii.String(folder), nil)},
		DestinationBucket:    c.DeploymentBucket,
		DestinationKeyPrefix: jsii.String(prefix),
	})
	return nil
}

// FindWheel returns the newest dist/*.whl under projectRoot.
func FindWheel(projectRoot string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(projectRoot, "dist", "*.whl"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoWheel, filepath.Join(projectRoot, "dist"))
	}

	type wheel struct {
		path string
		mod  int64
	}
	wheels := make([]wheel, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || fi.IsDir() {
			continue
		}
		wheels = append(wheels, wheel{m, fi.ModTime().UnixNano()})
	}
	if len(wheels) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoWheel, filepath.Join(projectRoot, "dist"))
	}

	sort.SliceStable(wheels, func(i, j int) bool {
		if wheels[i].mod == wheels[j].mod {
			return wheels[i].path > wheels[j].path
		}
		return wheels[i].mod > wheels[j].mod
	})

	return wheels[0].path, nil
}
