package assets

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/juju/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-site/backend/errs"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	gifBytes = append([]byte("GIF89a"), make([]byte, 32)...)
)

func TestInspect(t *testing.T) {
	u, err := Inspect(Upload{Filename: "a.png", ContentType: "text/plain", Data: pngBytes}, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "image/png", u.ContentType)

	_, err = Inspect(Upload{Filename: "a.txt", Data: []byte("hello there")}, 1<<20)
	assert.True(t, errs.IsUnsupportedMediaTypeError(err))
	assert.Equal(t, 415, errs.StatusCode(err))

	_, err = Inspect(Upload{Filename: "a.gif", Data: gifBytes}, 8)
	assert.Equal(t, 413, errs.StatusCode(err))

	_, err = Inspect(Upload{Filename: "a.gif"}, 8)
	assert.True(t, errs.IsMissingRequiredFieldError(err))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "my-holiday-photo", baseName("My Holiday Photo.JPG"))
	assert.Equal(t, "image", baseName("???.png"))
	assert.Equal(t, "passwd", baseName("../../etc/passwd"))
}

func TestLocalStoreDeduplicates(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8080/")
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.Put(ctx, Upload{Filename: "a.png", ContentType: "image/png", Data: pngBytes})
	require.NoError(t, err)
	second, err := store.Put(ctx, Upload{Filename: "b.png", ContentType: "image/png", Data: pngBytes})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "http://localhost:8080/uploads/"))
	assert.True(t, strings.HasSuffix(first, ".png"))

	key := strings.TrimPrefix(first, "http://localhost:8080/uploads/")
	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	_, err = store.Open(ctx, "../outside")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = store.Open(ctx, key[:2])
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = store.Open(ctx, "tmp")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLocalStoreHonorsCanceledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Put(ctx, Upload{ContentType: "image/png", Data: pngBytes})
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3StorePut(t *testing.T) {
	client := &fakeS3{}
	store := NewS3Store(client, "blog-assets", "eu-west-1", "/portfolio/", "")
	store.now = func() time.Time { return time.Unix(0, 42) }

	url, err := store.Put(context.Background(), Upload{Filename: "Cover Shot.png", ContentType: "image/png", Data: pngBytes})
	require.NoError(t, err)

	assert.Equal(t, "https://blog-assets.s3.eu-west-1.amazonaws.com/portfolio/42-cover-shot.png", url)
	assert.Equal(t, "blog-assets", aws.ToString(client.input.Bucket))
	assert.Equal(t, "portfolio/42-cover-shot.png", aws.ToString(client.input.Key))
	assert.Equal(t, "image/png", aws.ToString(client.input.ContentType))
	assert.Equal(t, pngBytes, client.body)
}

func TestS3StoreCustomBaseURL(t *testing.T) {
	store := NewS3Store(&fakeS3{}, "b", "us-east-1", "", "https://cdn.example.com/")
	store.now = func() time.Time { return time.Unix(0, 7) }

	url, err := store.Put(context.Background(), Upload{Filename: "x.gif", ContentType: "image/gif", Data: gifBytes})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/7-x.gif", url)
}

type flakyStore struct {
	calls    atomic.Int32
	failures int32
	err      error
}

func (f *flakyStore) Put(ctx context.Context, u Upload) (string, error) {
	n := f.calls.Add(1)
	if n <= f.failures {
		return "", f.err
	}
	return "https://cdn.example.com/ok.png", nil
}

func TestRetryingRecoversWithinAttempts(t *testing.T) {
	inner := &flakyStore{failures: 1, err: errors.New("connection reset")}
	r := NewRetrying(inner, 2, time.Millisecond, clock.WallClock)

	url, err := r.Put(context.Background(), Upload{Filename: "a.png", Data: pngBytes})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/ok.png", url)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestRetryingReportsExhaustion(t *testing.T) {
	inner := &flakyStore{failures: 100, err: errors.New("service unavailable")}
	r := NewRetrying(inner, 2, time.Millisecond, clock.WallClock)

	_, err := r.Put(context.Background(), Upload{Filename: "a.png", Data: pngBytes})
	require.Error(t, err)
	assert.True(t, errs.IsAssetUploadError(err))
	assert.Equal(t, 502, errs.StatusCode(err))
	assert.Equal(t, int32(2), inner.calls.Load())

	var apiErr *errs.ApiErr
	require.True(t, errors.As(err, &apiErr))
	assert.NotContains(t, apiErr.Message(), "service unavailable")
}

func TestRetryingDoesNotRetryValidation(t *testing.T) {
	inner := &flakyStore{failures: 100, err: errs.NewUnsupportedMediaTypeError("text/plain", AllowedTypes())}
	r := NewRetrying(inner, 3, time.Millisecond, clock.WallClock)

	_, err := r.Put(context.Background(), Upload{Filename: "a.txt"})
	assert.True(t, errs.IsUnsupportedMediaTypeError(err))
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestRetryingStopsOnCanceledContext(t *testing.T) {
	inner := &flakyStore{failures: 100, err: errors.New("timeout")}
	r := NewRetrying(inner, 5, time.Millisecond, clock.WallClock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Put(ctx, Upload{Filename: "a.png"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), inner.calls.Load())
}
