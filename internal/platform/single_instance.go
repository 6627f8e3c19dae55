package platform

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
)

// ErrAlreadyRunning indicates another tray instance holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	lockPortMin = 20000
	lockPortMax = 39999
)

// InstanceLock keeps a loopback listener open for the life of the process.
// A second process binding the same port fails.
type InstanceLock struct {
	listener net.Listener
	address  string
}

// LockInstance binds the loopback port derived from appName.
func LockInstance(appName string) (*InstanceLock, error) {
	address := LockAddress(appName)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %v", ErrAlreadyRunning, address, err)
	}
	return &InstanceLock{listener: listener, address: address}, nil
}

// Release closes the listener. It is safe on a nil lock and when called twice.
func (lock *InstanceLock) Release() error {
	if lock == nil || lock.listener == nil {
		return nil
	}
	err := lock.listener.Close()
	lock.listener = nil
	return err
}

func (lock *InstanceLock) Address() string {
	if lock == nil {
		return ""
	}
	return lock.address
}

// LockAddress returns the loopback address used for appName.
func LockAddress(appName string) string {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	span := uint32(lockPortMax - lockPortMin + 1)
	port := lockPortMin + int(hash.Sum32()%span)
	return fmt.Sprintf("127.0.0.1:%d", port)
}
