package tcpsocket

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/nabbar/wirerpc/endpoint"
)

type facade struct {
	resolver endpoint.Resolver
}

func (f *facade) ResolveIP(ip string, port uint16) (endpoint.Endpoint, error) {
	return f.resolver.ResolveIP(context.Background(), ip, port)
}

func (f *facade) ResolveHost(host string, port uint16) ([]endpoint.Endpoint, error) {
	return f.resolver.ResolveHost(context.Background(), host, port)
}

func (f *facade) LocalInterfaces(port uint16) ([]endpoint.Endpoint, error) {
	return f.resolver.LocalInterfaces(port)
}

func (f *facade) AllInterfaces(port uint16) ([]endpoint.Endpoint, error) {
	return f.resolver.AllInterfaces(port)
}

func (f *facade) Bind(ep endpoint.Endpoint) (Acceptor, error) {
	ln, err := net.ListenTCP("tcp", ep.TCPAddr())
	if err != nil {
		return nil, fmt.Errorf("tcpsocket: bind %s: %w", ep.String(), err)
	}
	return newAcceptor(ln), nil
}

func (f *facade) Connect(ep endpoint.Endpoint, timeout time.Duration) (Conn, error) {
	d := net.Dialer{Timeout: timeout}
	c, err := d.Dial("tcp", ep.TCPAddr().String())
	if err != nil {
		return nil, fmt.Errorf("tcpsocket: connect %s: %w", ep.String(), err)
	}
	tc, ok := c.(*net.TCPConn)
	if !ok {
		_ = c.Close()
		return nil, fmt.Errorf("tcpsocket: connect %s: not a TCP connection", ep.String())
	}
	return newConn(tc)
}
