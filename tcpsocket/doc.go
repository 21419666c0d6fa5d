// Non-blocking I/O here follows the idiom used throughout nabbar-golib's
// ioutils packages for wrapping *net.TCPConn with narrower, purpose-built
// interfaces (see ioutils/delim's BufferDelim wrapping an io.Reader); the
// readiness-vs-actual-I/O split in rawio_unix.go is the Go translation of
// spec.md §6's non-blocking socket facade, using golang.org/x/sys/unix the
// way the rest of the retrieved corpus's socket code does.
package tcpsocket
