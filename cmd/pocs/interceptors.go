package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type spiffeIDContextKey struct{}

func spiffeIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(spiffeIDContextKey{}).(string); ok {
		return v
	}
	return ""
}

// spiffeIDFromTLS returns the trust domain of the first SPIFFE URI SAN in the
// client certificate, e.g. spiffe://client1 -> "client1".
func spiffeIDFromTLS(ctx context.Context) string {
	if v := spiffeIDFromContext(ctx); v != "" {
		return v
	}

	p, ok := peer.FromContext(ctx)
	if !ok || p == nil {
		return ""
	}

	ti, ok := p.AuthInfo.(credentials.TLSInfo)
	if !ok {
		return ""
	}

	state := ti.State
	if len(state.PeerCertificates) == 0 || state.PeerCertificates[0] == nil {
		return ""
	}

	for _, uri := range state.PeerCertificates[0].URIs {
		if uri != nil && uri.Scheme == "spiffe" {
			return uri.Host
		}
	}
	return ""
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p != nil && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

func withSpiffeID(ctx context.Context) context.Context {
	if id := spiffeIDFromTLS(ctx); id != "" {
		return context.WithValue(ctx, spiffeIDContextKey{}, id)
	}
	return ctx
}

// logPeerUnary logs every call with the caller's identity when it has one.
func logPeerUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx = withSpiffeID(ctx)
	start := time.Now()

	resp, err := handler(ctx, req)

	log.Debug().
		Str("method", info.FullMethod).
		Str("peer", peerAddr(ctx)).
		Str("spiffe_id", spiffeIDFromContext(ctx)).
		Str("code", status.Code(err).String()).
		Dur("duration", time.Since(start)).
		Msg("gRPC call")
	return resp, err
}

type streamWithCtx struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *streamWithCtx) Context() context.Context { return s.ctx }

// logPeerStream logs streams (health Watch) the same way.
func logPeerStream(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx := withSpiffeID(ss.Context())
	start := time.Now()

	err := handler(srv, &streamWithCtx{ServerStream: ss, ctx: ctx})

	log.Debug().
		Str("method", info.FullMethod).
		Str("peer", peerAddr(ctx)).
		Str("spiffe_id", spiffeIDFromContext(ctx)).
		Str("code", status.Code(err).String()).
		Dur("duration", time.Since(start)).
		Msg("gRPC stream closed")
	return err
}
