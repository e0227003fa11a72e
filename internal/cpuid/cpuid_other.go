// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build !amd64

package cpuid

// Identify reports all-zero registers on architectures without the
// identification instruction. Decoders treat zeros as "leaf unsupported",
// so the whole probe degrades to an empty-but-valid snapshot.
func (HardwareSource) Identify(leaf, subleaf uint32) Registers {
	return Registers{}
}
