package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	defaultAddress = "localhost:50051"

	addressEnv = "POCS_ADDRESS"
	tlsKeyEnv  = "POCS_TLS_KEY"
	tlsCertEnv = "POCS_TLS_CERT"
	tlsCAEnv   = "POCS_CA_TLS_CERT"
)

// GRPCServer encapsulates the listener, the gRPC server and its health service.
type GRPCServer struct {
	lis    net.Listener
	s      *grpc.Server
	health *health.Server
	tls    bool
}

// NewGRPCServer listens on addr, or $POCS_ADDRESS, or the default address.
// When all of POCS_TLS_KEY, POCS_TLS_CERT and POCS_CA_TLS_CERT are set the
// server requires client certificates (mTLS); otherwise it is plaintext.
func NewGRPCServer(addr string) (*GRPCServer, error) {
	addr = resolveAddress(addr)

	var serverOpts []grpc.ServerOption
	creds, err := serverCredentials()
	if err != nil {
		return nil, err
	}
	if creds != nil {
		serverOpts = append(serverOpts, grpc.Creds(creds))
	}
	serverOpts = append(serverOpts, grpc.UnaryInterceptor(logPeerUnary), grpc.StreamInterceptor(logPeerStream))

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	s := grpc.NewServer(serverOpts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	return &GRPCServer{lis: lis, s: s, health: hs, tls: creds != nil}, nil
}

func resolveAddress(addr string) string {
	if strings.TrimSpace(addr) != "" {
		return addr
	}
	if env := os.Getenv(addressEnv); strings.TrimSpace(env) != "" {
		return env
	}
	return defaultAddress
}

// tlsMaterial returns the PEM blocks from the environment, or ok=false when
// none are set. A partial set is an error.
func tlsMaterial() (keyPEM, certPEM, caPEM string, ok bool, err error) {
	keyPEM = os.Getenv(tlsKeyEnv)
	certPEM = os.Getenv(tlsCertEnv)
	caPEM = os.Getenv(tlsCAEnv)

	set := 0
	for _, v := range []string{keyPEM, certPEM, caPEM} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	switch set {
	case 0:
		return "", "", "", false, nil
	case 3:
		return keyPEM, certPEM, caPEM, true, nil
	default:
		return "", "", "", false, fmt.Errorf("incomplete TLS environment; require %s, %s, %s", tlsKeyEnv, tlsCertEnv, tlsCAEnv)
	}
}

func serverCredentials() (credentials.TransportCredentials, error) {
	keyPEM, certPEM, caPEM, ok, err := tlsMaterial()
	if err != nil || !ok {
		return nil, err
	}

	cert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to load server key pair: %w", err)
	}

	caPool := x509.NewCertPool()
	if ok := caPool.AppendCertsFromPEM([]byte(caPEM)); !ok {
		return nil, fmt.Errorf("failed to append CA certificate to pool")
	}

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		ClientCAs:    caPool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
	}), nil
}

// Serve starts serving gRPC on the configured listener.
func (g *GRPCServer) Serve() error {
	return g.s.Serve(g.lis)
}

// Addr returns the network address the server is bound to.
func (g *GRPCServer) Addr() net.Addr { return g.lis.Addr() }

// Health returns the health service to report status on.
func (g *GRPCServer) Health() *health.Server { return g.health }

// TLS reports whether the server requires mTLS.
func (g *GRPCServer) TLS() bool { return g.tls }

// Stop gracefully stops the gRPC server.
func (g *GRPCServer) Stop() { g.s.GracefulStop() }
