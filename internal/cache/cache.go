// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package cache decodes the processor's cache hierarchy from the
// identification instruction and derives which cores share each physical
// cache instance.
package cache

import (
	"log/slog"

	"cpuprobe/internal/cpuid"
)

// Sentinel for fields a vendor does not expose. Distinct from 1, which
// means "not shared", and from 0, which means "non-inclusive".
const Unknown = -1

// Descriptor describes one cache level. A SizeKB of zero means the level
// is absent (or the vendor is unrecognized).
type Descriptor struct {
	SizeKB       int
	Ways         int
	LineSize     int
	Partitions   int
	Sets         int
	CoresSharing int // power of two, 1 = not shared, Unknown if not exposed
	Inclusive    int // 1 = inclusive, 0 = not, Unknown if not exposed
}

// Topology holds the four tracked cache levels.
type Topology struct {
	L1D Descriptor
	L1I Descriptor
	L2  Descriptor
	L3  Descriptor
}

// Deterministic cache parameters leaf (0x4) bit fields.
const (
	cacheTypeMask        = 0x1F // EAX[4:0], 0 terminates subleaf iteration
	cacheTypeData        = 1
	cacheTypeInstruction = 2
	cacheTypeUnified     = 3
	cacheLevelShift      = 5 // EAX[7:5]
	cacheLevelMask       = 0x7
	inclusiveBit         = 9  // EAX[9]
	sharingShift         = 14 // EAX[25:14], APIC id mask field
	sharingMask          = 0xFFF
	lineSizeMask         = 0xFFF // EBX[11:0], minus one
	partitionsShift      = 12    // EBX[21:12], minus one
	partitionsMask       = 0x3FF
	waysShift            = 22 // EBX[31:22], minus one
	waysMask             = 0x3FF

	maxCacheSubleaves = 32
)

// AMD fixed extended leaf (0x80000005/0x80000006) bit fields.
const (
	amdL1SizeShift = 24 // ECX/EDX[31:24], KB
	amdL1SizeMask  = 0xFF
	amdL2SizeShift = 16 // ECX[31:16], KB
	amdL2SizeMask  = 0xFFFF
	amdL3SizeShift = 18 // EDX[31:18], units of 512 KB
	amdL3SizeMask  = 0x3FFF
	amdL3UnitKB    = 512
)

// Detect decodes the cache hierarchy using the vendor-appropriate leaves.
// An unrecognized vendor yields all-zero descriptors; callers treat zero
// capacity as "cache absent".
func Detect(src cpuid.Source, vendor cpuid.Vendor) Topology {
	switch vendor {
	case cpuid.VendorIntel:
		return detectIntel(src)
	case cpuid.VendorAMD:
		return detectAMD(src)
	}
	slog.Debug("unrecognized vendor, skipping cache detection")
	return Topology{}
}

// detectIntel iterates subleaves of the deterministic cache parameters leaf
// until a subleaf reports cache type 0. Only the first descriptor seen for
// each level slot is kept.
func detectIntel(src cpuid.Source) Topology {
	var topo Topology
	for subleaf := uint32(0); subleaf < maxCacheSubleaves; subleaf++ {
		r := src.Identify(cpuid.LeafCacheParams, subleaf)
		cacheType := int(r.EAX) & cacheTypeMask
		if cacheType == 0 {
			break
		}
		level := int(r.EAX>>cacheLevelShift) & cacheLevelMask
		lineSize := int(r.EBX&lineSizeMask) + 1
		partitions := int(r.EBX>>partitionsShift)&partitionsMask + 1
		ways := int(r.EBX>>waysShift)&waysMask + 1
		sets := int(r.ECX) + 1

		target := levelSlot(&topo, cacheType, level)
		if target == nil || target.SizeKB != 0 {
			continue
		}
		sizeBytes := int64(ways) * int64(partitions) * int64(lineSize) * int64(sets)
		target.SizeKB = int(sizeBytes / 1024)
		target.Ways = ways
		target.LineSize = lineSize
		target.Partitions = partitions
		target.Sets = sets
		target.CoresSharing = sharingFromAPICField(int(r.EAX>>sharingShift) & sharingMask)
		target.Inclusive = int(r.EAX>>inclusiveBit) & 1
	}
	return topo
}

// levelSlot maps a (type, level) pair to the tracked descriptor slot.
func levelSlot(topo *Topology, cacheType, level int) *Descriptor {
	switch cacheType {
	case cacheTypeData:
		if level == 1 {
			return &topo.L1D
		}
	case cacheTypeInstruction:
		if level == 1 {
			return &topo.L1I
		}
	case cacheTypeUnified:
		switch level {
		case 1:
			return &topo.L1D
		case 2:
			return &topo.L2
		case 3:
			return &topo.L3
		}
	}
	return nil
}

// sharingFromAPICField approximates the number of logical processors sharing
// a cache from the 12-bit APIC id mask field: the count of contiguous set
// bits starting at bit 0 gives log2 of the sharing count. This mirrors the
// field's architectural use as an id mask but is not a fully general decode;
// non-power-of-two configurations are not representable and are reported as
// the nearest power of two below.
func sharingFromAPICField(field int) int {
	bits := 0
	for bits < 12 && field>>bits&1 == 1 {
		bits++
	}
	return 1 << bits
}

// detectAMD reads the two fixed extended cache leaves. AMD does not expose
// associativity, geometry, or sharing in these leaves, so those fields stay
// zero and sharing/inclusivity report Unknown.
func detectAMD(src cpuid.Source) Topology {
	var topo Topology
	r5 := src.Identify(cpuid.LeafAMDL1, 0)
	r6 := src.Identify(cpuid.LeafAMDL2L3, 0)

	fill := func(d *Descriptor, sizeKB int) {
		if sizeKB <= 0 {
			return
		}
		d.SizeKB = sizeKB
		d.CoresSharing = Unknown
		d.Inclusive = Unknown
	}
	fill(&topo.L1D, int(r5.ECX>>amdL1SizeShift)&amdL1SizeMask)
	fill(&topo.L1I, int(r5.EDX>>amdL1SizeShift)&amdL1SizeMask)
	fill(&topo.L2, int(r6.ECX>>amdL2SizeShift)&amdL2SizeMask)
	fill(&topo.L3, (int(r6.EDX>>amdL3SizeShift)&amdL3SizeMask)*amdL3UnitKB)
	return topo
}
