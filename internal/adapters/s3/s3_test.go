package s3_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/s3"
	"go.trai.ch/keel/internal/core/domain"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name string
		opts domain.RemoteOptions
		want s3.Config
	}{
		{
			name: "tls with prefix",
			opts: domain.RemoteOptions{URL: "s3://s3.example.com/builds/keel/cache", AccessKey: "ak", SecretKey: "sk", Region: "eu-west-1"},
			want: s3.Config{
				Endpoint: "s3.example.com", Bucket: "builds", Prefix: "keel/cache",
				Region: "eu-west-1", AccessKey: "ak", SecretKey: "sk", UseSSL: true,
			},
		},
		{
			name: "plain with default region",
			opts: domain.RemoteOptions{URL: "s3+http://minio:9000/cache"},
			want: s3.Config{Endpoint: "minio:9000", Bucket: "cache", Region: s3.DefaultRegion},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s3.ParseURL(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseURL_Invalid(t *testing.T) {
	for _, url := range []string{"grpc://host", "s3://host", "s3:///bucket"} {
		_, err := s3.ParseURL(domain.RemoteOptions{URL: url})
		require.ErrorIs(t, err, domain.ErrInvalidRemoteURL, url)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := s3.New(s3.Config{Endpoint: "minio:9000", Bucket: "cache"})
	require.ErrorIs(t, err, domain.ErrRemoteUnauthenticated)
}

func TestKeys(t *testing.T) {
	store, err := s3.New(s3.Config{Endpoint: "minio:9000", Bucket: "cache", Prefix: "team", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)

	d := domain.DigestOf([]byte("x"))
	assert.Equal(t, "team/cas/"+d.String(), store.ObjectKey(d))
	assert.Equal(t, "team/refs/"+d.String(), store.RefKey(domain.CacheKey(d)))
	assert.NoError(t, store.Close())
}

func TestClassify(t *testing.T) {
	resp := func(code string) error {
		return minio.ErrorResponse{Code: code, StatusCode: http.StatusForbidden}
	}
	assert.ErrorIs(t, s3.Classify(resp("AccessDenied")), domain.ErrRemoteUnauthenticated)
	assert.ErrorIs(t, s3.Classify(resp("NoSuchKey")), domain.ErrObjectNotFound)
	assert.ErrorIs(t, s3.Classify(errors.New("dial tcp: connection refused")), domain.ErrRemoteUnavailable)
	assert.ErrorIs(t, s3.Classify(context.Canceled), context.Canceled)
	assert.NoError(t, s3.Classify(nil))
}
