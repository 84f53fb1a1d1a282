package remote_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/cas"
	"go.trai.ch/keel/internal/adapters/remote"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type fixture struct {
	store *cas.Store
	lis   *bufconn.Listener
}

func serve(t *testing.T, token string) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := cas.NewStore(filepath.Join(dir, "cas"))
	require.NoError(t, err)
	refs, err := remote.NewFileRefs(filepath.Join(dir, "refs"))
	require.NoError(t, err)

	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Info(gomock.Any()).AnyTimes()

	lis := bufconn.Listen(1 << 20)
	srv := remote.NewServer(store, refs, token, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return &fixture{store: store, lis: lis}
}

func (f *fixture) dial(t *testing.T, token string) *remote.Client {
	t.Helper()
	client, err := remote.Dial(
		domain.RemoteOptions{URL: "grpc://bufnet", Token: token},
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return f.lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_Objects(t *testing.T) {
	f := serve(t, "")
	client := f.dial(t, "")
	ctx := context.Background()

	d, err := client.Put(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.DigestOf([]byte("hello")), d)

	has, err := f.store.Has(ctx, d)
	require.NoError(t, err)
	assert.True(t, has)

	data, err := client.Get(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	absent := domain.DigestOf([]byte("absent"))
	_, err = client.Get(ctx, absent)
	require.ErrorIs(t, err, domain.ErrObjectNotFound)

	missing, err := client.FindMissing(ctx, []domain.Digest{d, absent})
	require.NoError(t, err)
	assert.Equal(t, []domain.Digest{absent}, missing)

	ok, err := client.Has(ctx, d)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_Trees(t *testing.T) {
	f := serve(t, "")
	client := f.dial(t, "")
	ctx := context.Background()

	blob, err := client.Put(ctx, []byte("int main;"))
	require.NoError(t, err)
	tree, err := client.PutTree(ctx, []domain.TreeEntry{{Path: "src/main.c", Digest: blob}})
	require.NoError(t, err)

	var paths []string
	for e, err := range client.Walk(ctx, tree) {
		require.NoError(t, err)
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"src/main.c"}, paths)
}

func TestClient_Refs(t *testing.T) {
	f := serve(t, "")
	client := f.dial(t, "")
	ctx := context.Background()
	key := domain.CacheKey(domain.DigestOf([]byte("key")))

	_, err := client.GetRef(ctx, key)
	require.ErrorIs(t, err, domain.ErrRemoteMiss)

	err = client.PutRef(ctx, key, domain.DigestOf([]byte("not stored")))
	require.Error(t, err)

	meta, err := client.Put(ctx, []byte(`{"artifact":true}`))
	require.NoError(t, err)
	require.NoError(t, client.PutRef(ctx, key, meta))

	got, err := client.GetRef(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestClient_Authentication(t *testing.T) {
	f := serve(t, "s3cret")
	ctx := context.Background()

	_, err := f.dial(t, "").Put(ctx, []byte("x"))
	require.ErrorIs(t, err, domain.ErrRemoteUnauthenticated)

	_, err = f.dial(t, "wrong").Put(ctx, []byte("x"))
	require.ErrorIs(t, err, domain.ErrRemoteUnauthenticated)

	_, err = f.dial(t, "s3cret").Put(ctx, []byte("x"))
	require.NoError(t, err)
}

func TestClient_Unreachable(t *testing.T) {
	client, err := remote.Dial(
		domain.RemoteOptions{URL: "grpc://unreachable"},
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: assert.AnError}
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.GetRef(context.Background(), domain.CacheKey(domain.DigestOf([]byte("k"))))
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestDial_InvalidURL(t *testing.T) {
	for _, url := range []string{"http://cache.example.com", "grpc://", "::bad"} {
		_, err := remote.Dial(domain.RemoteOptions{URL: url})
		require.ErrorIs(t, err, domain.ErrInvalidRemoteURL, url)
	}
}

func TestFileRefs_RejectsInvalidKey(t *testing.T) {
	refs, err := remote.NewFileRefs(t.TempDir())
	require.NoError(t, err)

	err = refs.PutRef("../../etc/passwd", domain.DigestOf([]byte("x")))
	require.ErrorIs(t, err, domain.ErrInvalidDigest)
}

func TestServer_IdleTimeout(t *testing.T) {
	dir := t.TempDir()
	store, err := cas.NewStore(filepath.Join(dir, "cas"))
	require.NoError(t, err)
	refs, err := remote.NewFileRefs(filepath.Join(dir, "refs"))
	require.NoError(t, err)

	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Info(gomock.Any()).AnyTimes()

	lis := bufconn.Listen(1 << 20)
	srv := remote.NewServer(store, refs, "", logger, remote.WithIdleTimeout(200*time.Millisecond))
	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), lis) }()

	f := &fixture{store: store, lis: lis}
	_, err = f.dial(t, "").Put(context.Background(), []byte("keep alive"))
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after the idle timeout")
	}
}
