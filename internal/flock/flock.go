// Package flock takes advisory exclusive locks on open files.
//
// Locks are tied to the file handle and released when it is closed or the
// process exits. They only exclude other cooperating lockers.
package flock

import "errors"

// ErrLocked is returned when another handle already holds the lock.
var ErrLocked = errors.New("flock: file is locked by another writer")

// Lock takes a non-blocking exclusive lock on the file descriptor fd.
func Lock(fd uintptr) error { return lock(fd) }

// Unlock releases a lock taken by Lock.
func Unlock(fd uintptr) error { return unlock(fd) }
