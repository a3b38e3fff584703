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

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func successors(m map[string]string) func(string) (string, bool) {
	return func(s string) (string, bool) {
		n, ok := m[s]
		return n, ok
	}
}

func TestChase(t *testing.T) {
	for _, tcase := range []struct {
		name   string
		edges  map[string]string
		want   string
		result Result
	}{
		{"no successor", map[string]string{}, "", NoSuccessor},
		{"single hop", map[string]string{"a": "b"}, "b", Found},
		{"chain", map[string]string{"a": "b", "b": "c", "c": "d", "d": "e"}, "e", Found},
		{"self loop", map[string]string{"a": "a"}, "", Cycle},
		{"two cycle", map[string]string{"a": "b", "b": "a"}, "", Cycle},
		{"tail into cycle", map[string]string{"a": "b", "b": "c", "c": "d", "d": "e", "e": "c"}, "", Cycle},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			is := assert.New(t)
			got, res := Chase("a", successors(tcase.edges))
			is.Equal(tcase.result, res)
			is.Equal(tcase.want, got)
		})
	}
}
