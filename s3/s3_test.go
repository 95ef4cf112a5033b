package s3_test

import (
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pilosa/rdk"
	"github.com/pilosa/rdk/csv"
	"github.com/pilosa/rdk/s3"
	"github.com/pilosa/rdk/test"
	"github.com/pkg/errors"
)

// fakeS3 serves objects from a map. Embedding the interface means only
// the methods the Ingestor calls need implementing.
type fakeS3 struct {
	s3iface.S3API
	bucket  string
	objects map[string]string
	listErr error
}

func (f *fakeS3) ListObjects(in *awss3.ListObjectsInput) (*awss3.ListObjectsOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if aws.StringValue(in.Bucket) != f.bucket {
		return nil, errors.New("NoSuchBucket")
	}
	prefix := aws.StringValue(in.Prefix)
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &awss3.ListObjectsOutput{}
	for _, k := range keys {
		out.Contents = append(out.Contents, &awss3.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) GetObject(in *awss3.GetObjectInput) (*awss3.GetObjectOutput, error) {
	body, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestIngest(t *testing.T) {
	client := &fakeS3{
		bucket: "sales",
		objects: map[string]string{
			"2014/":       "",
			"2014/q1.csv": "Country,Sales\nCanada,100\nGermany,200\n",
			"2014/q2.csv": "Country,Sales\nFrance,300\n",
			"other.csv":   "X\n1\n",
		},
	}
	ing := s3.New(csv.New(), s3.WithClient(client))

	d, err := ing.Ingest("sales/2014/")
	test.ErrNil(t, err, "ingesting")
	test.MustBe(t, d.NumRows(), 3)

	// Objects stack in key order; the folder placeholder is skipped.
	country, _ := d.Column("Country")
	test.MustBe(t, country.Strings(), []string{"Canada", "Germany", "France"})
}

func TestIngestWholeBucket(t *testing.T) {
	client := &fakeS3{
		bucket: "sales",
		objects: map[string]string{
			"a.csv": "V\n1\n",
			"b.csv": "V\n2\n",
		},
	}
	d, err := s3.New(csv.New(), s3.WithClient(client), s3.WithConcurrency(1)).Ingest("sales")
	test.ErrNil(t, err, "ingesting")
	v, _ := d.Column("V")
	test.FloatsNear(t, v.Floats(), []float64{1, 2}, 0)
}

func TestIngestNoObjects(t *testing.T) {
	client := &fakeS3{bucket: "sales", objects: map[string]string{"data/": ""}}
	_, err := s3.New(csv.New(), s3.WithClient(client)).Ingest("sales/data/")
	if !rdk.IsSourceNotFound(err) {
		t.Fatalf("expected source not found, got %v", err)
	}
}

func TestIngestBadBucket(t *testing.T) {
	client := &fakeS3{bucket: "sales"}
	_, err := s3.New(csv.New(), s3.WithClient(client)).Ingest("nope")
	if !rdk.IsSourceNotFound(err) {
		t.Fatalf("expected source not found, got %v", err)
	}
}

func TestIngestSchemaMismatch(t *testing.T) {
	client := &fakeS3{
		bucket: "sales",
		objects: map[string]string{
			"a.csv": "A\n1\n",
			"b.csv": "B\n2\n",
		},
	}
	_, err := s3.New(csv.New(), s3.WithClient(client)).Ingest("sales")
	if !rdk.IsMalformedSource(err) {
		t.Fatalf("expected malformed source, got %v", err)
	}
}

func TestIngestDecodeFailure(t *testing.T) {
	client := &fakeS3{
		bucket: "sales",
		objects: map[string]string{
			"a.csv": "A,B\n1\n",
		},
	}
	_, err := s3.New(csv.New(), s3.WithClient(client)).Ingest("sales")
	if !rdk.IsMalformedSource(err) {
		t.Fatalf("expected malformed source, got %v", err)
	}
}
