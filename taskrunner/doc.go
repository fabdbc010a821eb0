// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package taskrunner provides bounded fan-out/fan-in over an ordered list of
// work items.
//
// RunAll executes a worker for every item on an ants pool sized for the
// invocation and returns one Result per item in input order, whatever order
// the workers finish in. Failures stay in their own slot: a failing or
// panicking worker never cancels its siblings.
//
// # Cleanup
//
// Workers receive a Scope. Cleanup registered with Scope.Defer runs exactly
// once after the worker returns, on success, failure, timeout or panic.
// Cleanup runs on a context detached from the item deadline so that, for
// example, a temporary upload is still deleted after a timed out call.
//
//	results, err := taskrunner.RunAll(ctx, pages,
//	    func(ctx context.Context, s *taskrunner.Scope, i int, page []byte) (string, error) {
//	        key, err := store.Put(ctx, pageKey(i), page, "image/png")
//	        if err != nil {
//	            return "", err
//	        }
//	        s.Defer(func(ctx context.Context) error { return store.Delete(ctx, key) })
//	        url, err := store.Presign(ctx, key, time.Hour)
//	        if err != nil {
//	            return "", err
//	        }
//	        return vision.ExtractText(ctx, url)
//	    },
//	    taskrunner.WithMaxConcurrency(5),
//	)
package taskrunner
