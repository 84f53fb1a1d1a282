package remote

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// RefIndex maps cache keys to artifact metadata digests on the server.
type RefIndex interface {
	GetRef(key domain.CacheKey) (domain.Digest, error)
	PutRef(key domain.CacheKey, d domain.Digest) error
}

// Server serves a content store and a ref index over gRPC.
type Server struct {
	store  ports.ContentStore
	refs   RefIndex
	logger ports.Logger
	grpc   *grpc.Server
	idle   *idleTimer
}

var _ cacheServer = (*Server)(nil)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithIdleTimeout stops the server once no call arrived for d.
func WithIdleTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.idle = newIdleTimer(d)
		}
	}
}

// NewServer creates a server. A non-empty token is required from every client.
func NewServer(store ports.ContentStore, refs RefIndex, token string, logger ports.Logger, opts ...ServerOption) *Server {
	s := &Server{
		store:  store,
		refs:   refs,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	interceptors := []grpc.UnaryServerInterceptor{authInterceptor(token)}
	if s.idle != nil {
		interceptors = append([]grpc.UnaryServerInterceptor{s.idle.interceptor()}, interceptors...)
	}
	s.grpc = grpc.NewServer(
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
		grpc.ChainUnaryInterceptor(interceptors...),
	)
	s.grpc.RegisterService(&serviceDesc, s)
	return s
}

// Listen opens addr, either host:port or unix:///path. A stale socket file
// is removed first.
func Listen(addr string) (net.Listener, error) {
	if path, ok := strings.CutPrefix(addr, "unix://"); ok {
		if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
			return nil, zerr.Wrap(err, "failed to create socket directory")
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, zerr.Wrap(err, "failed to remove stale socket")
		}
		lis, err := net.Listen("unix", path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to listen"), "addr", addr)
		}
		return lis, nil
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to listen"), "addr", addr)
	}
	return lis, nil
}

// Serve handles calls on lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info("serving remote cache on " + lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpc.Serve(lis)
	}()

	var idle <-chan struct{}
	if s.idle != nil {
		defer s.idle.stop()
		idle = s.idle.done
	}

	select {
	case <-ctx.Done():
		s.grpc.GracefulStop()
		return nil
	case <-idle:
		s.logger.Info("no calls for " + s.idle.idle().Round(time.Second).String() + ", shutting down")
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Get implements the Get call.
func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	d, err := domain.ParseDigest(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	data, err := s.store.Get(ctx, d)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(data), nil
}

// Put implements the Put call.
func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	d, err := s.store.Put(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(d.String()), nil
}

// FindMissing implements the FindMissing call.
func (s *Server) FindMissing(ctx context.Context, in *structpb.ListValue) (*structpb.ListValue, error) {
	out := &structpb.ListValue{}
	for _, v := range in.GetValues() {
		d, err := domain.ParseDigest(v.GetStringValue())
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		ok, err := s.store.Has(ctx, d)
		if err != nil {
			return nil, toStatus(err)
		}
		if !ok {
			out.Values = append(out.Values, structpb.NewStringValue(d.String()))
		}
	}
	return out, nil
}

// GetRef implements the GetRef call.
func (s *Server) GetRef(_ context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	d, err := s.refs.GetRef(domain.CacheKey(in.GetValue()))
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(d.String()), nil
}

// PutRef implements the PutRef call. The metadata object must already be stored.
func (s *Server) PutRef(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	fields := in.GetFields()
	key := domain.CacheKey(fields["key"].GetStringValue())
	d, err := domain.ParseDigest(fields["digest"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ok, err := s.store.Has(ctx, d)
	if err != nil {
		return nil, toStatus(err)
	}
	if !ok {
		return nil, status.Error(codes.NotFound, "artifact metadata is not stored")
	}
	if err := s.refs.PutRef(key, d); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrObjectNotFound), errors.Is(err, domain.ErrRemoteMiss):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidDigest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrIntegrity):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
