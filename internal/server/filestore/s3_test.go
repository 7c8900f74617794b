package filestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalize/backoffice/internal/common"
)

type fakeObjects struct {
	objects map[string][]byte
	putErr  error
}

func newFakeObjects() *fakeObjects { return &fakeObjects{objects: map[string][]byte{}} }

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, _ := io.ReadAll(in.Body)
	f.objects[*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestNewKey(t *testing.T) {
	now := time.Date(2024, 5, 7, 10, 0, 0, 0, time.UTC)
	key := NewKey(42, "Wezwanie.PDF", now)
	assert.Regexp(t, regexp.MustCompile(`^clients/42/2024/05/07/[0-9a-f-]{36}\.pdf$`), key)
	assert.NotEqual(t, key, NewKey(42, "Wezwanie.PDF", now))
}

func TestS3Store_PutOpenDelete(t *testing.T) {
	objs := newFakeObjects()
	s := &S3Store{bucket: "documents", api: objs}
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "clients/1/a.pdf", strings.NewReader("pdf"), "application/pdf"))

	rc, err := s.Open(ctx, "clients/1/a.pdf")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "pdf", string(b))

	require.NoError(t, s.Delete(ctx, "clients/1/a.pdf"))
	_, err = s.Open(ctx, "clients/1/a.pdf")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.NoError(t, s.Delete(ctx, ""))
}

func TestS3Store_PutError(t *testing.T) {
	objs := newFakeObjects()
	objs.putErr = errors.New("boom")
	s := &S3Store{bucket: "documents", api: objs}

	err := s.Put(context.Background(), "k", strings.NewReader("x"), "")
	assert.ErrorContains(t, err, "put object k")
}

func TestNewS3Store_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		return aws.Config{}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return s3.New(s3.Options{Region: "eu-central-1"})
	}

	s, err := NewS3Store(context.Background(), S3Config{Region: "eu-central-1", Endpoint: "http://minio:9000", Bucket: "docs"})
	require.NoError(t, err)
	assert.Equal(t, "docs", s.bucket)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://minio:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.ErrorContains(t, err, "aws config")
}

func TestCopyToTemp(t *testing.T) {
	objs := newFakeObjects()
	objs.objects["clients/1/scan.png"] = []byte("image")
	s := &S3Store{bucket: "documents", api: objs}

	path, cleanup, err := CopyToTemp(context.Background(), s, "clients/1/scan.png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".png"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image", string(b))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, _, err = CopyToTemp(context.Background(), s, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.Put(ctx, "a/b.pdf", strings.NewReader("pdf"), "application/pdf"))
	assert.True(t, m.Has("a/b.pdf"))

	url, err := m.PresignGet(ctx, "a/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "memory://a/b.pdf", url)

	require.NoError(t, m.Delete(ctx, "a/b.pdf"))
	_, err = m.Open(ctx, "a/b.pdf")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
