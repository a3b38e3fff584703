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

/*
Package solver turns a populated transaction into a checked one.

The selection mutators fill a transaction.Info with what the user asked
for. To get from there to something rpm can run, the Resolver:

 1. Runs the pre-resolve hook and the DependencyChecker. The checker pulls in
 providers for new requirements, erases what depends on erased packages and
 reports the problems it cannot fix as (package, related package, message)
 triples.

 2. Applies the install-only limit: when installing a new kernel takes the
 installed copies over the limit, the oldest ones are erased. The running
 kernel is never picked.

 3. When clean_requirements_on_remove is set, prunes the dependencies nothing
 needs anymore once the erased packages are gone (PruneLeaves).

 4. When the check failed and skip_broken is set, runs SkipBroken: the
 packages with problems, and what only came along with them, are dropped
 from the transaction and from the package sack, and the checker runs again.
 Rounds are capped, and rounds that change nothing abort the recovery.

 5. Runs the post-resolve hook. If it changed the transaction, steps 1 to 4
 run once more.

 6. Rejects transactions leaving a multilib package at different versions
 per arch, or removing every installed copy of a protected package.

Verify encodes the resulting system as a MaxSAT problem with gophersat, as a
cross-check independent of the checker.
*/
package solver
