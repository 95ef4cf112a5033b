// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package s3 ingests objects from an S3 bucket into a Dataset.
package s3

import (
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pilosa/rdk"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Decoder turns one object's bytes into a Dataset. The csv and json
// Ingestors both satisfy it.
type Decoder interface {
	Decode(r io.Reader) (*rdk.Dataset, error)
}

// Ingestor satisfies the rdk.Ingestor interface for S3. The source is
// "bucket" or "bucket/prefix"; every object under the prefix is fetched,
// decoded with the configured Decoder, and the per-object datasets are
// stacked in key order. All objects must agree on columns.
type Ingestor struct {
	dec         Decoder
	region      string
	concurrency int
	client      s3iface.S3API
}

// New creates an Ingestor which decodes each object with dec.
func New(dec Decoder, opts ...Option) *Ingestor {
	ing := &Ingestor{
		dec:         dec,
		region:      "us-east-1",
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Option is a functional option to pass to New.
type Option func(*Ingestor)

// WithRegion returns an Option which sets the AWS region.
func WithRegion(region string) Option {
	return func(ing *Ingestor) {
		ing.region = region
	}
}

// WithConcurrency returns an Option which sets the number of objects
// fetched simultaneously.
func WithConcurrency(c int) Option {
	return func(ing *Ingestor) {
		if c > 0 {
			ing.concurrency = c
		}
	}
}

// WithClient returns an Option which sets the S3 client, mainly so tests
// can substitute a fake. Without it a client is built from the ambient
// AWS configuration.
func WithClient(client s3iface.S3API) Option {
	return func(ing *Ingestor) {
		ing.client = client
	}
}

// Ingest implements rdk.Ingestor.
func (ing *Ingestor) Ingest(source string) (*rdk.Dataset, error) {
	bucket, prefix := splitSource(source)
	client := ing.client
	if client == nil {
		sess, err := session.NewSession(&aws.Config{Region: aws.String(ing.region)})
		if err != nil {
			return nil, errors.Wrap(err, "getting aws session")
		}
		client = awss3.New(sess)
	}

	resp, err := client.ListObjects(&awss3.ListObjectsInput{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, errors.Wrapf(rdk.ErrSourceNotFound, "listing %s: %v", source, err)
	}
	var keys []string
	for _, obj := range resp.Contents {
		key := aws.StringValue(obj.Key)
		if strings.HasSuffix(key, "/") {
			continue // folder placeholder
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, errors.Wrapf(rdk.ErrSourceNotFound, "no objects under %s", source)
	}

	parts := make([]*rdk.Dataset, len(keys))
	g := errgroup.Group{}
	g.SetLimit(ing.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			result, err := client.GetObject(&awss3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return errors.Wrapf(err, "fetching %v", key)
			}
			defer result.Body.Close()
			d, err := ing.dec.Decode(result.Body)
			if err != nil {
				return errors.Wrapf(err, "decoding %v", key)
			}
			parts[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d, err := rdk.Concat(parts...)
	if err != nil {
		return nil, errors.Wrapf(rdk.ErrMalformedSource, "stacking objects of %s: %v", source, err)
	}
	return d, nil
}

// splitSource splits "bucket/prefix" at the first slash.
func splitSource(source string) (bucket, prefix string) {
	if i := strings.Index(source, "/"); i >= 0 {
		return source[:i], source[i+1:]
	}
	return source, ""
}
