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

package rpmdblock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock(t *testing.T) {
	is := assert.New(t)
	path := filepath.Join(t.TempDir(), "run", "rpmtx.lock")

	first := New(path)
	require.NoError(t, first.Lock(context.Background()))
	is.True(first.Locked())
	is.FileExists(path)

	second := New(path)
	ok, err := second.TryLock()
	is.NoError(err)
	is.False(ok)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	second.RetryDelay = 10 * time.Millisecond
	is.Error(second.Lock(ctx))

	is.NoError(first.Unlock())
	is.False(first.Locked())
	ok, err = second.TryLock()
	is.NoError(err)
	is.True(ok)
	is.NoError(second.Unlock())
}

func TestUnlockNotHeld(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "rpmtx.lock"))
	assert.NoError(t, l.Unlock())
}
