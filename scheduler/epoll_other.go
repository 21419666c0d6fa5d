//go:build !linux

package scheduler

import "errors"

// NewEpoll is only available on linux; elsewhere it returns an error, which
// wirerpcd reports as a configuration error at startup.
func NewEpoll() (Scheduler, error) {
	return nil, errors.New("scheduler: epoll backend is only available on linux")
}
