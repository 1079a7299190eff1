package s3

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/Decentr-net/odyssey/internal/blob"
)

type fakeClient struct {
	headErr   error
	createErr error
	putErr    error

	created []string
	creates []*s3.CreateBucketInput
	puts    []*s3.PutObjectInput
	body    []byte
}

func (f *fakeClient) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeClient) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, aws.ToString(in.Bucket))
	f.creates = append(f.creates, in)
	return &s3.CreateBucketOutput{}, f.createErr
}

func (f *fakeClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeClient) ListBuckets(_ context.Context, _ *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	return &s3.ListBucketsOutput{}, f.headErr
}

func TestStore_EnsureContainer(t *testing.T) {
	tt := []struct {
		name      string
		headErr   error
		createErr error

		created []string
		err     error
	}{
		{name: "exists"},
		{name: "created", headErr: errors.New("not found"), created: []string{"photos"}},
		{name: "owned", headErr: errors.New("forbidden"), createErr: &types.BucketAlreadyOwnedByYou{}, created: []string{"photos"}},
		{name: "fail", headErr: errors.New("timeout"), createErr: errors.New("timeout"), created: []string{"photos"}, err: blob.ErrUnavailable},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			c := &fakeClient{headErr: tc.headErr, createErr: tc.createErr}
			s := &Store{client: c, cfg: Config{Region: "eu-west-1"}}

			err := s.EnsureContainer(context.Background(), "photos")
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.created, c.created)
		})
	}
}

func TestStore_EnsureContainer_Location(t *testing.T) {
	tt := []struct {
		region     string
		constraint types.BucketLocationConstraint
	}{
		{region: "eu-west-1", constraint: "eu-west-1"},
		{region: "ap-southeast-2", constraint: "ap-southeast-2"},
		{region: "us-east-1"},
		{region: ""},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.region, func(t *testing.T) {
			c := &fakeClient{headErr: errors.New("not found")}
			s := &Store{client: c, cfg: Config{Region: tc.region}}

			require.NoError(t, s.EnsureContainer(context.Background(), "photos"))
			require.Len(t, c.creates, 1)

			if tc.constraint == "" {
				require.Nil(t, c.creates[0].CreateBucketConfiguration)
				return
			}

			require.NotNil(t, c.creates[0].CreateBucketConfiguration)
			require.Equal(t, tc.constraint, c.creates[0].CreateBucketConfiguration.LocationConstraint)
		})
	}
}

func TestStore_Put(t *testing.T) {
	c := &fakeClient{}
	s := &Store{client: c, cfg: Config{Region: "eu-west-1"}}

	u, err := s.Put(context.Background(), "photos", "1-abc-kyoto.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "https://photos.s3.eu-west-1.amazonaws.com/1-abc-kyoto.jpg", u)

	require.Len(t, c.puts, 1)
	require.Equal(t, "photos", aws.ToString(c.puts[0].Bucket))
	require.Equal(t, "1-abc-kyoto.jpg", aws.ToString(c.puts[0].Key))
	require.Equal(t, "image/jpeg", aws.ToString(c.puts[0].ContentType))
	require.EqualValues(t, 4, aws.ToInt64(c.puts[0].ContentLength))
	require.Equal(t, []byte("jpeg"), c.body)

	c.putErr = errors.New("slow down")
	_, err = s.Put(context.Background(), "photos", "x", []byte("x"), "image/png")
	require.ErrorIs(t, err, blob.ErrUnavailable)
	require.Len(t, c.puts, 2)
}

func TestStore_URL(t *testing.T) {
	tt := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "aws", cfg: Config{Region: "us-east-1"}, want: "https://photos.s3.us-east-1.amazonaws.com/a%20b.jpg"},
		{name: "path style", cfg: Config{Endpoint: "http://localhost:9000/", UsePathStyle: true}, want: "http://localhost:9000/photos/a%20b.jpg"},
		{name: "virtual host", cfg: Config{Endpoint: "https://storage.example.com"}, want: "https://photos.storage.example.com/a%20b.jpg"},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			s := &Store{cfg: tc.cfg}
			require.Equal(t, tc.want, s.url("photos", "a b.jpg"))
		})
	}
}

func TestOpen(t *testing.T) {
	_, err := Open(context.Background(), Config{AccessKeyID: "id"})
	require.ErrorIs(t, err, blob.ErrConfiguration)

	s, err := Open(context.Background(), Config{AccessKeyID: "id", SecretAccessKey: "secret", Endpoint: "http://localhost:9000", UsePathStyle: true})
	require.NoError(t, err)
	require.Equal(t, defaultRegion, s.cfg.Region)
}
