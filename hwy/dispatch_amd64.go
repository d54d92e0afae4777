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

//go:build amd64

package hwy

import "golang.org/x/sys/cpu"

// hasFMA records whether the running CPU supports fused multiply-add
// (AVX2+FMA3 or AVX-512F). The micro-kernels consult this to decide whether
// MulAdd should be expressed as a true rank-1 FMA or as separate mul/add
// instructions — it does not change currentLevel, since both AVX2 FMA and
// non-FMA AVX2 share the same 256-bit register width and tile shape.
var hasFMA bool

// hasAVX512BW records AVX-512BW (byte/word) support, gating the 30x32 (i16)
// and 30x64 (i8) register tiles that only exist at that level; plain
// AVX-512F alone does not provide efficient epi16/epi8 lanes.
var hasAVX512BW bool

func init() {
	if NoSimdEnv() {
		setScalarMode()
		return
	}
	detectCPUFeatures()
}

func detectCPUFeatures() {
	switch {
	case cpu.X86.HasAVX512F:
		currentLevel = DispatchAVX512
		currentWidth = 64
	case cpu.X86.HasAVX2:
		currentLevel = DispatchAVX2
		currentWidth = 32
	case cpu.X86.HasAVX:
		currentLevel = DispatchAVX2
		currentWidth = 32
	case cpu.X86.HasSSE2:
		currentLevel = DispatchSSE2
		currentWidth = 16
	default:
		setScalarMode()
		return
	}
	hasFMA = cpu.X86.HasFMA
	hasAVX512BW = cpu.X86.HasAVX512BW && cpu.X86.HasAVX512F
}

func setScalarMode() {
	currentLevel = DispatchScalar
	currentWidth = 16
}

// HasFMA reports whether the running CPU has hardware fused multiply-add.
func HasFMA() bool {
	return hasFMA
}

// HasAVX512BW reports whether the running CPU has AVX-512BW, the level
// at which the int16 and int8 micro-kernels grow their widest register tiles.
func HasAVX512BW() bool {
	return hasAVX512BW
}
