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

package gemm

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/janpfeifer/gemm/internal/blocking"
	"github.com/janpfeifer/gemm/internal/kernel"
	"github.com/janpfeifer/gemm/internal/parallel"
)

var (
	poolMu     sync.Mutex
	sharedPool *parallel.Pool
	numThreads atomic.Int64
)

func init() {
	numThreads.Store(int64(runtime.GOMAXPROCS(0)))
}

// SetThreads configures how many worker goroutines subsequent Gemm calls
// use. n <= 0 resets to runtime.GOMAXPROCS(0). Safe to call concurrently
// with Gemm calls already in flight; in-flight calls keep using whatever
// pool they already acquired.
func SetThreads(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	poolMu.Lock()
	defer poolMu.Unlock()
	numThreads.Store(int64(n))
	if sharedPool != nil {
		sharedPool.Close()
		sharedPool = nil
	}
}

// GetCoreNum returns the number of worker goroutines Gemm calls currently
// use, mirroring original_source/gemm.h's get_core_num.
func GetCoreNum() int {
	return int(numThreads.Load())
}

func pool() *parallel.Pool {
	poolMu.Lock()
	defer poolMu.Unlock()
	if sharedPool == nil {
		sharedPool = parallel.New(int(numThreads.Load()))
	}
	return sharedPool
}

// GetCacheSize returns the detected (or, on detection failure, assumed)
// L1D/L2/L3 data-cache sizes in bytes, mirroring original_source/gemm.h's
// get_cache_size.
func GetCacheSize() (l1d, l2, l3 int) {
	c := blocking.Resolve()
	return c.L1D, c.L2, c.L3
}

// FormatCacheSizes renders the detected cache sizes the way
// original_source/gemm.h's show_cache prints them, supplementing the
// distilled spec with a human-readable diagnostic.
func FormatCacheSizes() string {
	l1d, l2, l3 := GetCacheSize()
	return fmt.Sprintf("L1D: %d KB, L2: %d KB, L3: %d KB", l1d/1024, l2/1024, l3/1024)
}

// SetBlockSize derives MC, KC, NC from explicit cache sizes (bytes),
// thread count, and register-tile shape, without touching cache detection
// or the package-level thread count — mirroring original_source/gemm.h's
// set_block_size, which takes the cache sizes as an explicit parameter
// rather than re-detecting them.
func SetBlockSize(l1d, l2, l3, nthreads, mr, nr int, dtype DType) (mc, kc, nc int) {
	c := blocking.CacheSizes{L1D: l1d, L2: l2, L3: l3}
	bs := blocking.Sizes(c, nthreads, mr, nr, dtype.elemSize())
	return bs.MC, bs.KC, bs.NC
}

// SGemm computes c.Data += a.Data * b.Data for row-major float32 matrices.
func SGemm(a, b, c Matrix[float32]) { gemm(a, b, c) }

// DGemm computes c.Data += a.Data * b.Data for row-major float64 matrices.
func DGemm(a, b, c Matrix[float64]) { gemm(a, b, c) }

// IGemm computes c.Data += a.Data * b.Data for row-major int32 matrices,
// wrapping modulo 2^32 on overflow like native Go integer arithmetic.
func IGemm(a, b, c Matrix[int32]) { gemm(a, b, c) }

// HQGemm computes c.Data += a.Data * b.Data for row-major int16 matrices,
// wrapping modulo 2^16 on overflow.
func HQGemm(a, b, c Matrix[int16]) { gemm(a, b, c) }

// QGemm computes c.Data += a.Data * b.Data for row-major int8 matrices,
// wrapping modulo 2^8 on overflow.
func QGemm(a, b, c Matrix[int8]) { gemm(a, b, c) }

func gemm[T Elem](a, b, c Matrix[T]) {
	p := pool()
	tile := kernel.TileFor[T](currentLevel())
	run(p, a, b, c, tile)
}
