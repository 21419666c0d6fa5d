package endpoint

import (
	"context"
	"fmt"
	"net"
)

// Resolver is the subset of the socket facade (spec.md §6) concerned with
// turning strings and local interfaces into Endpoint values. tcpsocket's
// Facade wraps one, passing context.Background() for the ctx argument.
type Resolver interface {
	ResolveIP(ctx context.Context, ip string, port uint16) (Endpoint, error)
	ResolveHost(ctx context.Context, host string, port uint16) ([]Endpoint, error)
	LocalInterfaces(port uint16) ([]Endpoint, error)
	AllInterfaces(port uint16) ([]Endpoint, error)
}

type resolver struct {
	resolve *net.Resolver
}

// NewResolver returns the default Resolver, backed by net.DefaultResolver.
func NewResolver() Resolver {
	return &resolver{resolve: net.DefaultResolver}
}

func (r *resolver) ResolveIP(ctx context.Context, ip string, port uint16) (Endpoint, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("endpoint: %q is not a valid IP address", ip)
	}
	return New(parsed.String(), port, nil), nil
}

func (r *resolver) ResolveHost(ctx context.Context, host string, port uint16) ([]Endpoint, error) {
	addrs, err := r.resolve.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("endpoint: resolving host %q: %w", host, err)
	}

	out := make([]Endpoint, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, New(a.IP.String(), port, nil))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("endpoint: host %q resolved to no addresses", host)
	}
	return out, nil
}

func (r *resolver) LocalInterfaces(port uint16) ([]Endpoint, error) {
	return r.interfaces(port, true)
}

func (r *resolver) AllInterfaces(port uint16) ([]Endpoint, error) {
	return r.interfaces(port, false)
}

func (r *resolver) interfaces(port uint16, loopbackOnly bool) ([]Endpoint, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("endpoint: listing interfaces: %w", err)
	}

	out := make([]Endpoint, 0, len(addrs))
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if loopbackOnly && !ipNet.IP.IsLoopback() {
			continue
		}
		out = append(out, New(ipNet.IP.String(), port, nil))
	}
	return out, nil
}

// FromTCPAddr introspects an accepted or bound *net.TCPAddr into an Endpoint,
// as spec.md §3 allows ("or by introspection of an accepted/bound socket").
func FromTCPAddr(a *net.TCPAddr) Endpoint {
	if a == nil {
		return Empty
	}
	return New(a.IP.String(), uint16(a.Port), a.IP)
}
