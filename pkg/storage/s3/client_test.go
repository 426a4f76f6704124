package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dirtyfeed/pkg/storage"
)

type fakeObjectAPI struct {
	puts    []*s3.PutObjectInput
	objects map[string][]byte
	getErr  error
}

func (f *fakeObjectAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	body, _ := io.ReadAll(in.Body)
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestPutAndGet(t *testing.T) {
	api := &fakeObjectAPI{}
	client := &Client{api: api, bucket: "feed"}
	ctx := context.Background()

	require.NoError(t, client.Put(ctx, "data/csv/providers.csv", []byte("provider_id\n"), "text/csv"))
	require.Len(t, api.puts, 1)
	assert.Equal(t, "feed", aws.ToString(api.puts[0].Bucket))
	assert.Equal(t, "text/csv", aws.ToString(api.puts[0].ContentType))
	assert.Equal(t, int64(12), aws.ToInt64(api.puts[0].ContentLength))

	body, err := client.Get(ctx, "data/csv/providers.csv")
	require.NoError(t, err)
	assert.Equal(t, "provider_id\n", string(body))
}

func TestGetMapsMissingKeys(t *testing.T) {
	client := &Client{api: &fakeObjectAPI{}, bucket: "feed"}
	_, err := client.Get(context.Background(), "data/json/absent.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	generic := &Client{api: &fakeObjectAPI{getErr: &smithy.GenericAPIError{Code: "NotFound"}}, bucket: "feed"}
	_, err = generic.Get(context.Background(), "data/json/absent.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetWrapsOtherErrors(t *testing.T) {
	cause := errors.New("access denied")
	client := &Client{api: &fakeObjectAPI{getErr: cause}, bucket: "feed"}
	_, err := client.Get(context.Background(), "data/json/customers.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}
