// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build amd64

package cpuid

// rawIdentify executes the CPUID instruction. Implemented in cpuid_amd64.s.
func rawIdentify(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)

// Identify executes the identification instruction on the logical processor
// the calling thread is currently scheduled on.
func (HardwareSource) Identify(leaf, subleaf uint32) Registers {
	eax, ebx, ecx, edx := rawIdentify(leaf, subleaf)
	return Registers{EAX: eax, EBX: ebx, ECX: ecx, EDX: edx}
}
