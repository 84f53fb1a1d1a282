package remote

import (
	"context"
	"crypto/tls"
	"iter"
	"net/url"

	"go.trai.ch/keel/internal/adapters/cas" //nolint:depguard // Tree encoding is shared with the store.
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// findMissingBatch bounds the digests sent in one FindMissing call.
const findMissingBatch = 2048

var _ ports.RemoteCache = (*Client)(nil)

// Client implements ports.RemoteCache against a gRPC cache server.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for opts.URL. Supported schemes are grpc (plain),
// grpcs (TLS) and unix. The connection is made lazily on the first call.
func Dial(opts domain.RemoteOptions, extra ...grpc.DialOption) (*Client, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, domain.WrapError(err, domain.ErrInvalidRemoteURL, "url", opts.URL)
	}

	var target string
	secure := false
	switch u.Scheme {
	case "grpc", "grpcs":
		if u.Host == "" {
			return nil, domain.NewError(domain.ErrInvalidRemoteURL, "url", opts.URL, "reason", "missing host")
		}
		target = "passthrough:///" + u.Host
		secure = u.Scheme == "grpcs"
	case "unix":
		target = "unix://" + u.Path
	default:
		return nil, domain.NewError(domain.ErrInvalidRemoteURL, "url", opts.URL, "reason", "unsupported scheme")
	}

	dialOpts := []grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(MaxMessageSize),
			grpc.MaxCallSendMsgSize(MaxMessageSize),
		),
	}
	if secure {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})))
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	if opts.Token != "" {
		dialOpts = append(dialOpts, grpc.WithPerRPCCredentials(bearerToken{token: opts.Token, secure: secure}))
	}
	dialOpts = append(dialOpts, extra...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, zerr.Wrap(err, "remote cache client creation failed")
	}
	return &Client{conn: conn}, nil
}

// Put uploads data.
func (c *Client) Put(ctx context.Context, data []byte) (domain.Digest, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, methodPut, wrapperspb.Bytes(data), out); err != nil {
		return "", fromStatus(err, domain.ErrRemoteUnavailable)
	}
	d := domain.DigestOf(data)
	if out.GetValue() != d.String() {
		return "", domain.NewError(domain.ErrIntegrity, "expected", d.String(), "actual", out.GetValue())
	}
	return d, nil
}

// Get downloads d and verifies it.
func (c *Client) Get(ctx context.Context, d domain.Digest) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, methodGet, wrapperspb.String(d.String()), out); err != nil {
		return nil, fromStatus(err, domain.ErrObjectNotFound, "digest", d.Short())
	}
	data := out.GetValue()
	if got := domain.DigestOf(data); got != d {
		return nil, domain.NewError(domain.ErrIntegrity, "expected", d.String(), "actual", got.String())
	}
	return data, nil
}

// Has reports whether the remote holds d.
func (c *Client) Has(ctx context.Context, d domain.Digest) (bool, error) {
	missing, err := c.FindMissing(ctx, []domain.Digest{d})
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// PutTree uploads a tree object.
func (c *Client) PutTree(ctx context.Context, entries []domain.TreeEntry) (domain.Digest, error) {
	return cas.PutTree(ctx, c, entries)
}

// Walk downloads a tree and its subtrees lazily.
func (c *Client) Walk(ctx context.Context, tree domain.Digest) iter.Seq2[domain.TreeEntry, error] {
	return cas.Walk(ctx, c, tree)
}

// FindMissing asks the server which digests it lacks, in batches.
func (c *Client) FindMissing(ctx context.Context, digests []domain.Digest) ([]domain.Digest, error) {
	var missing []domain.Digest
	for start := 0; start < len(digests); start += findMissingBatch {
		end := min(start+findMissingBatch, len(digests))
		in := &structpb.ListValue{Values: make([]*structpb.Value, 0, end-start)}
		for _, d := range digests[start:end] {
			in.Values = append(in.Values, structpb.NewStringValue(d.String()))
		}

		out := new(structpb.ListValue)
		if err := c.conn.Invoke(ctx, methodFindMissing, in, out); err != nil {
			return nil, fromStatus(err, domain.ErrRemoteUnavailable)
		}
		for _, v := range out.GetValues() {
			missing = append(missing, domain.Digest(v.GetStringValue()))
		}
	}
	return missing, nil
}

// GetRef returns the artifact metadata digest for key.
func (c *Client) GetRef(ctx context.Context, key domain.CacheKey) (domain.Digest, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, methodGetRef, wrapperspb.String(key.String()), out); err != nil {
		return "", fromStatus(err, domain.ErrRemoteMiss, "key", key.Short())
	}
	return domain.ParseDigest(out.GetValue())
}

// PutRef points key at d.
func (c *Client) PutRef(ctx context.Context, key domain.CacheKey, d domain.Digest) error {
	in, err := structpb.NewStruct(map[string]any{"key": key.String(), "digest": d.String()})
	if err != nil {
		return zerr.Wrap(err, "failed to encode ref")
	}
	if err := c.conn.Invoke(ctx, methodPutRef, in, new(emptypb.Empty)); err != nil {
		return fromStatus(err, domain.ErrObjectNotFound, "key", key.Short())
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// fromStatus maps a gRPC status to a domain error. notFound is the sentinel
// a NotFound status stands for in the calling method.
func fromStatus(err error, notFound error, kv ...any) error {
	st, ok := status.FromError(err)
	if !ok {
		return domain.WrapError(err, domain.ErrRemoteUnavailable, kv...)
	}
	switch st.Code() {
	case codes.NotFound:
		return domain.NewError(notFound, kv...)
	case codes.Unauthenticated, codes.PermissionDenied:
		return domain.WrapError(err, domain.ErrRemoteUnauthenticated, kv...)
	case codes.DataLoss:
		return domain.WrapError(err, domain.ErrIntegrity, kv...)
	case codes.Canceled:
		return domain.Classify(err, context.Canceled)
	case codes.InvalidArgument:
		return zerr.With(zerr.Wrap(err, "remote cache rejected the request"), "code", st.Code().String())
	default:
		return domain.WrapError(err, domain.ErrRemoteUnavailable, kv...)
	}
}
