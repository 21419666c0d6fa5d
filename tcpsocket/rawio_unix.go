//go:build unix

package tcpsocket

import (
	"net"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// rawFD extracts the underlying file descriptor, for the epoll scheduler
// backend's types.FDAware path.
func rawFD(sc syscall.Conn) (fd int, ok bool) {
	rc, err := sc.SyscallConn()
	if err != nil {
		return 0, false
	}
	var got int
	err = rc.Control(func(f uintptr) { got = int(f) })
	if err != nil {
		return 0, false
	}
	return got, true
}

// armReadable parks a goroutine in the runtime poller until the connection
// is readable (data, EOF, or error all count), using a non-consuming
// MSG_PEEK probe so it never steals bytes nb_inbuf's own TryRead needs.
func armReadable(sc syscall.Conn, done func()) func() {
	canceled := make(chan struct{})
	var closed bool
	cancel := func() {
		if !closed {
			closed = true
			close(canceled)
		}
	}

	rc, err := sc.SyscallConn()
	if err != nil {
		go done()
		return cancel
	}

	go func() {
		var buf [1]byte
		_ = rc.Read(func(fd uintptr) bool {
			select {
			case <-canceled:
				return true
			default:
			}
			_, _, errno := unix.Recvfrom(int(fd), buf[:], unix.MSG_PEEK)
			return errno != unix.EAGAIN
		})
		select {
		case <-canceled:
		default:
			done()
		}
	}()

	return cancel
}

// armWritable parks a goroutine until the connection is writable. No probe
// read/write is needed: the runtime poller only invokes the callback once
// the socket is actually writable, and returning true immediately is
// sufficient to report that edge without performing real I/O.
func armWritable(sc syscall.Conn, done func()) func() {
	canceled := make(chan struct{})
	var closed bool
	cancel := func() {
		if !closed {
			closed = true
			close(canceled)
		}
	}

	rc, err := sc.SyscallConn()
	if err != nil {
		go done()
		return cancel
	}

	go func() {
		_ = rc.Write(func(fd uintptr) bool {
			return true
		})
		select {
		case <-canceled:
		default:
			done()
		}
	}()

	return cancel
}

// tryReadNonBlocking attempts exactly one non-blocking read via Control,
// which invokes the callback once without the retry-on-EAGAIN looping that
// RawConn.Read/Write perform — that looping is exactly what we want for
// armReadable/armWritable, and exactly what we must NOT do here, since
// TryRead/TryWrite must never block.
func tryReadNonBlocking(c *net.TCPConn, p []byte) (n int, wouldBlock bool, err error) {
	rc, scErr := c.SyscallConn()
	if scErr != nil {
		return 0, false, scErr
	}
	var errno error
	ctrlErr := rc.Control(func(fd uintptr) {
		n, errno = unix.Read(int(fd), p)
	})
	if ctrlErr != nil {
		return 0, false, ctrlErr
	}
	if errno == unix.EAGAIN {
		return 0, true, nil
	}
	if errno != nil {
		return 0, false, errno
	}
	return n, false, nil
}

// acceptNonBlocking performs one non-blocking accept(2) on ln, wrapping the
// result as a *net.TCPConn via FileConn so the rest of the package can keep
// treating every accepted connection uniformly. wouldBlock is true when no
// connection is currently pending.
func acceptNonBlocking(ln *net.TCPListener) (conn *net.TCPConn, wouldBlock bool, err error) {
	rc, scErr := ln.SyscallConn()
	if scErr != nil {
		return nil, false, scErr
	}

	var nfd int
	var errno error
	ctrlErr := rc.Control(func(fd uintptr) {
		nfd, _, errno = unix.Accept4(int(fd), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	})
	if ctrlErr != nil {
		return nil, false, ctrlErr
	}
	if errno == unix.EAGAIN {
		return nil, true, nil
	}
	if errno != nil {
		return nil, false, errno
	}

	f := os.NewFile(uintptr(nfd), "wirerpc-accepted")
	defer f.Close()
	c, err := net.FileConn(f)
	if err != nil {
		return nil, false, err
	}
	tcp, ok := c.(*net.TCPConn)
	if !ok {
		_ = c.Close()
		return nil, false, syscall.EINVAL
	}
	return tcp, false, nil
}

func tryWriteNonBlocking(c *net.TCPConn, p []byte) (n int, wouldBlock bool, err error) {
	rc, scErr := c.SyscallConn()
	if scErr != nil {
		return 0, false, scErr
	}
	var errno error
	ctrlErr := rc.Control(func(fd uintptr) {
		n, errno = unix.Write(int(fd), p)
	})
	if ctrlErr != nil {
		return 0, false, ctrlErr
	}
	if errno == unix.EAGAIN {
		return 0, true, nil
	}
	if errno != nil {
		return 0, false, errno
	}
	return n, false, nil
}
