// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package cpuid issues the x86 processor identification instruction and
// decodes the instruction-set-agnostic portions of its output. The raw
// four-register query is abstracted behind the Source interface so that
// every decoder in this program can be exercised against scripted register
// values instead of live hardware.
package cpuid

// Registers holds the four machine-word outputs of one (leaf, subleaf) query.
type Registers struct {
	EAX uint32
	EBX uint32
	ECX uint32
	EDX uint32
}

// Source answers identification queries. HardwareSource executes the CPUID
// instruction; ScriptedSource replays recorded register values.
type Source interface {
	Identify(leaf, subleaf uint32) Registers
}

// Identification leaf selectors.
const (
	LeafVendor       uint32 = 0x0        // vendor string, max standard leaf
	LeafFeatures     uint32 = 0x1        // family/model/stepping, feature flags
	LeafCacheParams  uint32 = 0x4        // deterministic cache parameters (Intel)
	LeafThermalPower uint32 = 0x6        // thermal and power management
	LeafTopology     uint32 = 0xB        // extended topology enumeration
	LeafCrystalClock uint32 = 0x15       // TSC/core crystal clock ratio
	LeafFrequency    uint32 = 0x16       // processor frequency information
	LeafHybrid       uint32 = 0x1A       // native model ID and core type
	LeafTopologyV2   uint32 = 0x1F       // V2 topology enumeration (adds die/tile)
	LeafExtendedMax  uint32 = 0x80000000 // max extended leaf
	LeafBrand0       uint32 = 0x80000002 // brand string, bytes 0..15
	LeafBrand1       uint32 = 0x80000003 // brand string, bytes 16..31
	LeafBrand2       uint32 = 0x80000004 // brand string, bytes 32..47
	LeafAMDL1        uint32 = 0x80000005 // AMD L1 cache and TLB
	LeafAMDL2L3      uint32 = 0x80000006 // AMD L2/L3 cache and TLB
)

// MaxLeaf returns the maximum supported standard leaf.
func MaxLeaf(src Source) uint32 {
	return src.Identify(LeafVendor, 0).EAX
}

// MaxExtendedLeaf returns the maximum supported extended leaf.
func MaxExtendedLeaf(src Source) uint32 {
	return src.Identify(LeafExtendedMax, 0).EAX
}

// HardwareSource issues the identification instruction on the executing
// logical processor. On architectures without the instruction it reports
// all-zero registers, which downstream decoders treat as "unsupported".
type HardwareSource struct{}
