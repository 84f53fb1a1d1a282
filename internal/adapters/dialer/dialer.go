// Package dialer picks the remote cache implementation for a URL scheme.
package dialer

import (
	"context"
	"net/url"

	"go.trai.ch/keel/internal/adapters/remote" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/adapters/s3"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
)

// Dialer implements ports.RemoteDialer.
type Dialer struct{}

var _ ports.RemoteDialer = Dialer{}

// Dial connects to opts.URL: grpc, grpcs and unix URLs reach a keel cache
// server, s3 and s3+http URLs an object store bucket.
func (Dialer) Dial(_ context.Context, opts domain.RemoteOptions) (ports.RemoteCache, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, domain.WrapError(err, domain.ErrInvalidRemoteURL, "url", opts.URL)
	}
	switch u.Scheme {
	case "grpc", "grpcs", "unix":
		return remote.Dial(opts)
	case "s3", "s3+http":
		cfg, err := s3.ParseURL(opts)
		if err != nil {
			return nil, err
		}
		return s3.New(cfg)
	default:
		return nil, domain.NewError(domain.ErrInvalidRemoteURL, "url", opts.URL, "reason", "unsupported scheme")
	}
}
