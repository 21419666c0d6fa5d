//go:build !unix

package tcpsocket

import (
	"net"
	"os"
	"syscall"
	"time"
)

// rawFD is unavailable off unix; the epoll backend never applies here, and
// netpoller's callWhen falls back to Arm, which this file supplies via
// deadline polling instead of a raw descriptor.
func rawFD(sc syscall.Conn) (fd int, ok bool) { return 0, false }

const pollInterval = 5 * time.Millisecond

func armReadable(sc syscall.Conn, done func()) func() {
	c, ok := sc.(net.Conn)
	if !ok {
		go done()
		return func() {}
	}
	// A zero-length Read is used purely as a readiness probe: most net.Conn
	// implementations (including *net.TCPConn) return immediately with
	// (0, nil) once the deadline logic is satisfied, without consuming any
	// application byte, so this never steals data from the real TryRead that
	// follows.
	stop := make(chan struct{})
	go func() {
		one := make([]byte, 0)
		for {
			select {
			case <-stop:
				return
			default:
			}
			_ = c.SetReadDeadline(time.Now().Add(pollInterval))
			if _, err := c.Read(one); err == nil || !os.IsTimeout(err) {
				done()
				return
			}
		}
	}()
	return func() { close(stop) }
}

func armWritable(sc syscall.Conn, done func()) func() {
	// Without raw descriptor access, assume writable and let the first real
	// TryWrite report would-block if that assumption was wrong; the caller
	// will re-request.
	go done()
	return func() {}
}

func tryReadNonBlocking(c *net.TCPConn, p []byte) (n int, wouldBlock bool, err error) {
	if err := c.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return 0, false, err
	}
	n, err = c.Read(p)
	if err != nil && os.IsTimeout(err) {
		return 0, true, nil
	}
	return n, false, err
}

func tryWriteNonBlocking(c *net.TCPConn, p []byte) (n int, wouldBlock bool, err error) {
	if err := c.SetWriteDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return 0, false, err
	}
	n, err = c.Write(p)
	if err != nil && os.IsTimeout(err) {
		return n, true, nil
	}
	return n, false, err
}

// acceptNonBlocking emulates non-blocking accept with a short deadline, since
// a raw descriptor isn't available off unix.
func acceptNonBlocking(ln *net.TCPListener) (conn *net.TCPConn, wouldBlock bool, err error) {
	if err := ln.SetDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return nil, false, err
	}
	tcp, err := ln.AcceptTCP()
	if err != nil {
		if os.IsTimeout(err) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return tcp, false, nil
}
