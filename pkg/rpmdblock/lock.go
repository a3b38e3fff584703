/*
Copyright SUSE LLC.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package rpmdblock serializes processes working on the same package
// database with an advisory file lock.
package rpmdblock

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// DefaultRetryDelay is how often Lock polls a held lock.
const DefaultRetryDelay = 250 * time.Millisecond

// Lock is an advisory lock over the package database.
type Lock struct {
	fl         *flock.Flock
	RetryDelay time.Duration
}

// New returns an unlocked Lock on path. The directory holding path is
// created on Lock when missing.
func New(path string) *Lock {
	return &Lock{fl: flock.New(path), RetryDelay: DefaultRetryDelay}
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.fl.Path() }

// Lock waits for the lock until ctx is done.
func (l *Lock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0755); err != nil {
		return errors.Wrap(err, "creating lock directory")
	}
	ok, err := l.fl.TryLockContext(ctx, l.RetryDelay)
	if err != nil {
		return errors.Wrapf(err, "locking %s", l.fl.Path())
	}
	if !ok {
		return errors.Errorf("could not lock %s", l.fl.Path())
	}
	return nil
}

// TryLock takes the lock if it is free and reports whether it did.
func (l *Lock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0755); err != nil {
		return false, errors.Wrap(err, "creating lock directory")
	}
	ok, err := l.fl.TryLock()
	return ok, errors.Wrapf(err, "locking %s", l.fl.Path())
}

// Locked reports whether this Lock holds the lock.
func (l *Lock) Locked() bool { return l.fl.Locked() }

// Unlock releases the lock. Releasing a lock that is not held is a no-op.
func (l *Lock) Unlock() error {
	return errors.Wrapf(l.fl.Unlock(), "unlocking %s", l.fl.Path())
}
