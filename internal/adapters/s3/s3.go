// Package s3 implements the remote cache on an S3 compatible object store.
// Objects live under cas/<digest> and refs under refs/<key>.
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.trai.ch/keel/internal/adapters/cas" //nolint:depguard // Tree encoding is shared with the store.
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRegion is used when no region is configured.
	DefaultRegion = "us-east-1"

	casPrefix  = "cas"
	refsPrefix = "refs"

	// statConcurrency bounds parallel existence checks in FindMissing.
	statConcurrency = 16
)

// Config locates a bucket.
type Config struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// ParseURL reads s3://host[:port]/bucket[/prefix] (TLS) or
// s3+http://host[:port]/bucket[/prefix] (plain) with credentials from opts.
func ParseURL(opts domain.RemoteOptions) (Config, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return Config{}, domain.WrapError(err, domain.ErrInvalidRemoteURL, "url", opts.URL)
	}
	cfg := Config{
		Endpoint:  u.Host,
		Region:    opts.Region,
		AccessKey: opts.AccessKey,
		SecretKey: opts.SecretKey,
	}
	switch u.Scheme {
	case "s3":
		cfg.UseSSL = true
	case "s3+http":
	default:
		return Config{}, domain.NewError(domain.ErrInvalidRemoteURL, "url", opts.URL, "reason", "unsupported scheme")
	}

	bucket, prefix, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	cfg.Bucket = bucket
	cfg.Prefix = prefix
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return Config{}, domain.NewError(domain.ErrInvalidRemoteURL, "url", opts.URL, "reason", "expected s3://host/bucket")
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	return cfg, nil
}

var _ ports.RemoteCache = (*Store)(nil)

// Store implements ports.RemoteCache on a bucket.
type Store struct {
	client *minio.Client
	cfg    Config

	initOnce sync.Once
	initErr  error
}

// New creates a Store. The bucket is created on first use when missing.
func New(cfg Config) (*Store, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, domain.NewError(domain.ErrRemoteUnauthenticated, "reason", "s3 access key and secret key are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.ErrInvalidRemoteURL, "endpoint", cfg.Endpoint)
	}
	return &Store{client: client, cfg: cfg}, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
		if err != nil {
			s.initErr = classify(err)
			return
		}
		if exists {
			return
		}
		err = s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region})
		s.initErr = classify(err)
	})
	return s.initErr
}

// ObjectKey returns the object name of a content digest.
func (s *Store) ObjectKey(d domain.Digest) string {
	return path.Join(s.cfg.Prefix, casPrefix, d.String())
}

// RefKey returns the object name of a cache key.
func (s *Store) RefKey(key domain.CacheKey) string {
	return path.Join(s.cfg.Prefix, refsPrefix, key.String())
}

// Put uploads data under its digest.
func (s *Store) Put(ctx context.Context, data []byte) (domain.Digest, error) {
	d := domain.DigestOf(data)
	if err := s.put(ctx, s.ObjectKey(d), data); err != nil {
		return "", zerr.With(err, "digest", d.Short())
	}
	return d, nil
}

// Get downloads d and verifies it.
func (s *Store) Get(ctx context.Context, d domain.Digest) ([]byte, error) {
	data, err := s.get(ctx, s.ObjectKey(d), domain.ErrObjectNotFound)
	if err != nil {
		return nil, zerr.With(err, "digest", d.Short())
	}
	if got := domain.DigestOf(data); got != d {
		return nil, domain.NewError(domain.ErrIntegrity, "expected", d.String(), "actual", got.String())
	}
	return data, nil
}

// Has reports whether d is stored.
func (s *Store) Has(ctx context.Context, d domain.Digest) (bool, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return false, err
	}
	_, err := s.client.StatObject(ctx, s.cfg.Bucket, s.ObjectKey(d), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, classify(err)
}

// PutTree uploads a tree object.
func (s *Store) PutTree(ctx context.Context, entries []domain.TreeEntry) (domain.Digest, error) {
	return cas.PutTree(ctx, s, entries)
}

// Walk downloads a tree and its subtrees lazily.
func (s *Store) Walk(ctx context.Context, tree domain.Digest) iter.Seq2[domain.TreeEntry, error] {
	return cas.Walk(ctx, s, tree)
}

// FindMissing stats every digest, a bounded number at a time.
func (s *Store) FindMissing(ctx context.Context, digests []domain.Digest) ([]domain.Digest, error) {
	present := make([]bool, len(digests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statConcurrency)
	for i, d := range digests {
		g.Go(func() error {
			ok, err := s.Has(gctx, d)
			present[i] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var missing []domain.Digest
	for i, d := range digests {
		if !present[i] {
			missing = append(missing, d)
		}
	}
	return missing, nil
}

// GetRef returns the artifact metadata digest for key or domain.ErrRemoteMiss.
func (s *Store) GetRef(ctx context.Context, key domain.CacheKey) (domain.Digest, error) {
	data, err := s.get(ctx, s.RefKey(key), domain.ErrRemoteMiss)
	if err != nil {
		return "", zerr.With(err, "key", key.Short())
	}
	return domain.ParseDigest(strings.TrimSpace(string(data)))
}

// PutRef points key at d.
func (s *Store) PutRef(ctx context.Context, key domain.CacheKey, d domain.Digest) error {
	return s.put(ctx, s.RefKey(key), []byte(d.String()+"\n"))
}

// Close does nothing; the client holds no connections that need releasing.
func (s *Store) Close() error {
	return nil
}

func (s *Store) put(ctx context.Context, name string, data []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	return classify(err)
}

func (s *Store) get(ctx context.Context, name string, notFound error) ([]byte, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(notFound)
		}
		return nil, classify(err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

// classify maps S3 failures to remote cache errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch minio.ToErrorResponse(err).Code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return domain.WrapError(err, domain.ErrRemoteUnauthenticated)
	case "NoSuchKey", "NoSuchBucket":
		return domain.WrapError(err, domain.ErrObjectNotFound)
	default:
		return domain.WrapError(err, domain.ErrRemoteUnavailable)
	}
}
