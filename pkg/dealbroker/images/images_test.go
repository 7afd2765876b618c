package images

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

type fakeS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3UploaderUpload(t *testing.T) {
	fake := &fakeS3{}
	up := NewS3UploaderWithClient(fake, S3Config{Bucket: "broker-images", Region: "us-east-2"})

	url, err := up.Upload(context.Background(), dal.KindDeal, "image/webp", bytes.NewReader([]byte("img")))
	require.NoError(t, err)

	key := aws.StringValue(fake.input.Key)
	assert.True(t, strings.HasPrefix(key, "deals/"), key)
	assert.True(t, strings.HasSuffix(key, ".webp"), key)
	assert.Equal(t, "https://broker-images.s3.us-east-2.amazonaws.com/"+key, url)
	assert.Equal(t, "public-read", aws.StringValue(fake.input.ACL))
	assert.Equal(t, "image/webp", aws.StringValue(fake.input.ContentType))
	assert.Equal(t, []byte("img"), fake.body)
}

func TestS3UploaderError(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	up := NewS3UploaderWithClient(fake, S3Config{Bucket: "b", Region: "r", PublicBaseURL: "https://cdn.example.com"})

	_, err := up.Upload(context.Background(), dal.KindDemo, "image/png", bytes.NewReader(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewS3UploaderRequiresSettings(t *testing.T) {
	_, err := NewS3Uploader(S3Config{Bucket: "b"})
	assert.Error(t, err)
}

func TestDiskUploader(t *testing.T) {
	dir := t.TempDir()
	up := NewDiskUploader(dir, "/images/")

	url, err := up.Upload(context.Background(), dal.KindDemo, "image/png", bytes.NewReader([]byte("png")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/images/demos/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/images/"))))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("image/jpeg"))
	assert.True(t, Allowed("image/PNG; charset=binary"))
	assert.False(t, Allowed("application/pdf"))
}

func TestObjectKeyFollowsContentType(t *testing.T) {
	key, err := ObjectKey(dal.KindDeal, "image/JPEG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "deals/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)

	_, err = ObjectKey(dal.KindDeal, "text/html")
	assert.Error(t, err)
}

func TestDiskUploaderRejectsNonImageType(t *testing.T) {
	dir := t.TempDir()
	up := NewDiskUploader(dir, "/images")

	_, err := up.Upload(context.Background(), dal.KindDeal, "text/html; charset=utf-8", strings.NewReader("<script></script>"))
	require.Error(t, err)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"png", "\x89PNG\r\n\x1a\n0000", "image/png"},
		{"jpeg", "\xff\xd8\xff\xe0rest", "image/jpeg"},
		{"gif", "GIF89a....", "image/gif"},
		{"avif", "\x00\x00\x00\x1cftypavif\x00\x00", "image/avif"},
		{"html", "<script>alert(1)</script>", "text/html; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := strings.NewReader(tt.body)
			got, err := Sniff(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			rest, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(rest), "reader is rewound")
		})
	}
}
