// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"

	"github.com/LorenzoCevolani/datajob/internal/log"
)

// deleteBatchSize is the DeleteObjects request limit.
const deleteBatchSize = 1000

// EmptyBucket deletes every object version and delete marker in bucket and
// returns the number of versions removed. A bucket that does not exist counts
// as empty.
func EmptyBucket(ctx context.Context, api S3API, bucket string) (int, error) {
	var (
		keyMarker, versionMarker *string
		deleted                  int
	)

	for {
		out, err := api.ListObjectVersions(ctx, &s3v2.ListObjectVersionsInput{
			Bucket:          awsv2.String(bucket),
			KeyMarker:       keyMarker,
			VersionIdMarker: versionMarker,
		})
		if err != nil {
			if isNoSuchBucket(err) {
				log.Debugf("bucket %s does not exist, nothing to empty", bucket)
				return deleted, nil
			}
			return deleted, fmt.Errorf("failed to list versions of %s: %w", bucket, err)
		}

		ids := make([]types.ObjectIdentifier, 0, len(out.Versions)+len(out.DeleteMarkers))
		for _, v := range out.Versions {
			ids = append(ids, types.ObjectIdentifier{Key: v.Key, VersionId: v.VersionId})
		}
		for _, m := range out.DeleteMarkers {
			ids = append(ids, types.ObjectIdentifier{Key: m.Key, VersionId: m.VersionId})
		}

		n, err := deleteIdentifiers(ctx, api, bucket, ids)
		deleted += n
		if err != nil {
			return deleted, err
		}

		if !awsv2.ToBool(out.IsTruncated) {
			break
		}
		keyMarker, versionMarker = out.NextKeyMarker, out.NextVersionIdMarker
	}

	log.Infof("emptied bucket %s: versions=%d", bucket, deleted)
	return deleted, nil
}

// EmptyBuckets empties each named bucket concurrently. Empty names are
// skipped.
func EmptyBuckets(ctx context.Context, api S3API, buckets ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, bucket := range buckets {
		if bucket == "" {
			continue
		}
		g.Go(func() error {
			_, err := EmptyBucket(ctx, api, bucket)
			return err
		})
	}
	return g.Wait()
}

// deleteIdentifiers removes ids in DeleteObjects-sized batches.
func deleteIdentifiers(ctx context.Context, api S3API, bucket string, ids []types.ObjectIdentifier) (int, error) {
	deleted := 0
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		batch := ids[start:end]

		out, err := api.DeleteObjects(ctx, &s3v2.DeleteObjectsInput{
			Bucket: awsv2.String(bucket),
			Delete: &types.Delete{Objects: batch, Quiet: awsv2.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete objects from %s: %w", bucket, err)
		}
		if len(out.Errors) > 0 {
			msgs := make([]string, 0, len(out.Errors))
			for _, e := range out.Errors {
				msgs = append(msgs, fmt.Sprintf("%s: %s", awsv2.ToString(e.Key), awsv2.ToString(e.Message)))
			}
			return deleted + len(batch) - len(out.Errors), fmt.Errorf("failed to delete %d objects from %s: %s",
				len(out.Errors), bucket, strings.Join(msgs, "; "))
		}
		deleted += len(batch)
	}
	return deleted, nil
}

func isNoSuchBucket(err error) bool {
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "NoSuchBucket"
}
