package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"ghscraper/pkg/config"
	"ghscraper/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type putCall struct {
	bucket      string
	key         string
	contentType string
	body        string
}

type fakeS3 struct {
	calls []putCall
	fail  map[string]bool
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if f.fail[key] {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, putCall{
		bucket:      aws.ToString(in.Bucket),
		key:         key,
		contentType: aws.ToString(in.ContentType),
		body:        string(body),
	})
	return &s3.PutObjectOutput{}, nil
}

func writeFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("content of "+name), 0644))
		paths = append(paths, p)
	}
	return paths
}

func TestUploadFiles(t *testing.T) {
	fake := &fakeS3{}
	u := NewWithClient(fake, config.UploadConfig{Bucket: "data", Prefix: "github/sydney"}, logger.NewNopLogger())
	files := writeFiles(t, "users.csv", "analysis_results.json", "README.md")

	uris, err := u.UploadFiles(context.Background(), "run-1", files)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"s3://data/github/sydney/run-1/users.csv",
		"s3://data/github/sydney/run-1/analysis_results.json",
		"s3://data/github/sydney/run-1/README.md",
	}, uris)

	require.Len(t, fake.calls, 3)
	assert.Equal(t, putCall{
		bucket:      "data",
		key:         "github/sydney/run-1/users.csv",
		contentType: "text/csv",
		body:        "content of users.csv",
	}, fake.calls[0])
	assert.Equal(t, "application/json", fake.calls[1].contentType)
	assert.Equal(t, "text/markdown", fake.calls[2].contentType)
}

func TestUploadFilesCollectsFailures(t *testing.T) {
	fake := &fakeS3{fail: map[string]bool{"run/users.csv": true}}
	u := NewWithClient(fake, config.UploadConfig{Bucket: "data"}, logger.NewNopLogger())
	files := writeFiles(t, "users.csv", "repositories.csv")
	files = append(files, filepath.Join(t.TempDir(), "missing.json"))

	uris, err := u.UploadFiles(context.Background(), "run", files)
	require.Error(t, err)

	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "access denied")
	assert.Equal(t, []string{"s3://data/run/repositories.csv"}, uris)
}

func TestKey(t *testing.T) {
	u := NewWithClient(&fakeS3{}, config.UploadConfig{Bucket: "b"}, nil)
	assert.Equal(t, "abc/users.csv", u.Key("abc", "/tmp/out/users.csv"))

	u = NewWithClient(&fakeS3{}, config.UploadConfig{Bucket: "b", Prefix: "exports/"}, nil)
	assert.Equal(t, "exports/abc/ghscraper.db", u.Key("abc", "ghscraper.db"))
}
