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

// Package graph holds small graph walks shared by the resolver.
package graph

// Result is the outcome of following a successor chain.
type Result int

const (
	NoSuccessor Result = iota // start has no successor
	Found                     // the chain ends in a node without successor
	Cycle                     // the chain loops
)

func (r Result) String() string {
	switch r {
	case Found:
		return "found"
	case Cycle:
		return "cycle"
	}
	return "no successor"
}

// Chase follows next from start until a node without successor and returns
// that node. Loops are detected with a slow and a fast walker, so chains of
// any length run in constant memory. On NoSuccessor and Cycle the returned
// node is the zero value.
func Chase[T comparable](start T, next func(T) (T, bool)) (T, Result) {
	var zero T

	fast, ok := next(start)
	if !ok {
		return zero, NoSuccessor
	}
	slow := start
	for {
		n, ok := next(fast)
		if !ok {
			return fast, Found
		}
		fast = n
		if fast == slow {
			return zero, Cycle
		}

		n, ok = next(fast)
		if !ok {
			return fast, Found
		}
		fast = n
		if fast == slow {
			return zero, Cycle
		}

		slow, _ = next(slow)
		if fast == slow {
			return zero, Cycle
		}
	}
}
