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

//go:build !amd64

package hwy

func init() {
	// Non-amd64 architectures (arm64, wasm, riscv64, ...) run the scalar
	// fallback kernels. The packed layouts and driver are portable; only
	// the register-resident micro-kernel tile shapes are x86-ISA-specific.
	currentLevel = DispatchScalar
	currentWidth = 16
}

// HasFMA reports false outside the amd64 fused-multiply-add detection path.
func HasFMA() bool {
	return false
}

// HasAVX512BW reports false outside the amd64 detection path.
func HasAVX512BW() bool {
	return false
}
