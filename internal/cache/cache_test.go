// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpuprobe/internal/cpuid"
)

// intelCacheSubleaf encodes one deterministic cache parameters subleaf.
func intelCacheSubleaf(cacheType, level, ways, partitions, lineSize, sets, apicField, inclusive int) cpuid.Registers {
	return cpuid.Registers{
		EAX: uint32(cacheType) | uint32(level)<<cacheLevelShift |
			uint32(inclusive)<<inclusiveBit | uint32(apicField)<<sharingShift,
		EBX: uint32(lineSize-1) | uint32(partitions-1)<<partitionsShift | uint32(ways-1)<<waysShift,
		ECX: uint32(sets - 1),
	}
}

func TestDetectIntelCapacity(t *testing.T) {
	src := cpuid.NewScriptedSource()
	// 8-way, 1 partition, 64B lines, 64 sets = 32 KB L1D
	src.Script(cpuid.LeafCacheParams, 0, intelCacheSubleaf(cacheTypeData, 1, 8, 1, 64, 64, 0x1, 1))
	// terminator at subleaf 1 (type 0) is the scripted default

	topo := Detect(src, cpuid.VendorIntel)
	require.NotZero(t, topo.L1D.SizeKB)
	assert.Equal(t, 32, topo.L1D.SizeKB)
	assert.Equal(t, 8, topo.L1D.Ways)
	assert.Equal(t, 64, topo.L1D.LineSize)
	assert.Equal(t, 1, topo.L1D.Partitions)
	assert.Equal(t, 64, topo.L1D.Sets)
	assert.Equal(t, 2, topo.L1D.CoresSharing) // one trailing set bit
	assert.Equal(t, 1, topo.L1D.Inclusive)
	assert.Zero(t, topo.L2.SizeKB)
	assert.Zero(t, topo.L3.SizeKB)
}

func TestDetectIntelFullHierarchy(t *testing.T) {
	src := cpuid.NewScriptedSource()
	src.Script(cpuid.LeafCacheParams, 0, intelCacheSubleaf(cacheTypeData, 1, 8, 1, 64, 64, 0x1, 0))
	src.Script(cpuid.LeafCacheParams, 1, intelCacheSubleaf(cacheTypeInstruction, 1, 8, 1, 64, 64, 0x1, 0))
	src.Script(cpuid.LeafCacheParams, 2, intelCacheSubleaf(cacheTypeUnified, 2, 8, 1, 64, 512, 0x1, 0))
	src.Script(cpuid.LeafCacheParams, 3, intelCacheSubleaf(cacheTypeUnified, 3, 12, 1, 64, 16384, 0xF, 1))

	topo := Detect(src, cpuid.VendorIntel)
	assert.Equal(t, 32, topo.L1D.SizeKB)
	assert.Equal(t, 32, topo.L1I.SizeKB)
	assert.Equal(t, 256, topo.L2.SizeKB)
	assert.Equal(t, 12288, topo.L3.SizeKB)
	assert.Equal(t, 16, topo.L3.CoresSharing) // four trailing set bits
	assert.Equal(t, 1, topo.L3.Inclusive)
}

func TestDetectIntelKeepsFirstDescriptorPerLevel(t *testing.T) {
	src := cpuid.NewScriptedSource()
	src.Script(cpuid.LeafCacheParams, 0, intelCacheSubleaf(cacheTypeUnified, 2, 8, 1, 64, 512, 0, 0))
	src.Script(cpuid.LeafCacheParams, 1, intelCacheSubleaf(cacheTypeUnified, 2, 16, 1, 64, 2048, 0, 0))

	topo := Detect(src, cpuid.VendorIntel)
	assert.Equal(t, 256, topo.L2.SizeKB)
	assert.Equal(t, 8, topo.L2.Ways)
}

func TestSharingFromAPICField(t *testing.T) {
	tests := []struct {
		field   int
		sharing int
	}{
		{0x0, 1},
		{0x1, 2},
		{0x3, 4},
		{0x7, 8}, // three trailing set bits
		{0xB, 4}, // 0b1011: only the contiguous low bits count
		{0xFFF, 4096},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.sharing, sharingFromAPICField(tt.field), "field %#x", tt.field)
	}
}

func TestDetectAMD(t *testing.T) {
	src := cpuid.NewScriptedSource()
	src.Script(cpuid.LeafAMDL1, 0, cpuid.Registers{
		ECX: 32 << amdL1SizeShift, // L1D 32 KB
		EDX: 64 << amdL1SizeShift, // L1I 64 KB
	})
	src.Script(cpuid.LeafAMDL2L3, 0, cpuid.Registers{
		ECX: 512 << amdL2SizeShift, // L2 512 KB
		EDX: 64 << amdL3SizeShift,  // L3 64 x 512 KB = 32 MB
	})

	topo := Detect(src, cpuid.VendorAMD)
	assert.Equal(t, 32, topo.L1D.SizeKB)
	assert.Equal(t, 64, topo.L1I.SizeKB)
	assert.Equal(t, 512, topo.L2.SizeKB)
	assert.Equal(t, 32768, topo.L3.SizeKB)
	assert.Equal(t, Unknown, topo.L3.CoresSharing)
	assert.Equal(t, Unknown, topo.L3.Inclusive)
	assert.Zero(t, topo.L3.Ways) // geometry not exposed by these leaves
}

func TestDetectUnknownVendor(t *testing.T) {
	src := cpuid.NewScriptedSource()
	topo := Detect(src, cpuid.VendorUnknown)
	assert.Equal(t, Topology{}, topo)
}
