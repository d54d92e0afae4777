// Copyright 2025 go-highway Authors
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

package blocking

import "log/slog"

// Resolve returns the detected cache sizes, or DefaultCacheSizes if
// detection fails. This is the only place cache-size detection errors are
// observed; every caller above this (the public GetCacheSize entry point
// and the driver's run) sees only a usable CacheSizes, never an error, matching
// spec.md §4.1's "no error surfaces to the caller."
func Resolve() CacheSizes {
	sizes, err := Detect()
	if err != nil {
		slog.Debug("blocking: cache size detection failed, using defaults", "error", err)
		return DefaultCacheSizes
	}
	return sizes
}
