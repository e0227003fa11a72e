// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// scriptVendor loads the vendor leaf with a 12-character manufacturer string
// in the architectural EBX, EDX, ECX order.
func scriptVendor(src *ScriptedSource, maxLeaf uint32, id string) {
	le := func(s string) uint32 {
		return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
	}
	src.Script(LeafVendor, 0, Registers{
		EAX: maxLeaf,
		EBX: le(id[0:4]),
		EDX: le(id[4:8]),
		ECX: le(id[8:12]),
	})
}

func TestVendorOfIntel(t *testing.T) {
	src := NewScriptedSource()
	scriptVendor(src, 0x20, IntelVendorID)
	vendor, id := VendorOf(src)
	assert.Equal(t, VendorIntel, vendor)
	assert.Equal(t, IntelVendorID, id)
}

func TestVendorOfAMD(t *testing.T) {
	src := NewScriptedSource()
	scriptVendor(src, 0x10, AMDVendorID)
	vendor, id := VendorOf(src)
	assert.Equal(t, VendorAMD, vendor)
	assert.Equal(t, AMDVendorID, id)
}

func TestVendorOfUnknown(t *testing.T) {
	src := NewScriptedSource()
	scriptVendor(src, 0x5, "SomeOtherCpu")
	vendor, id := VendorOf(src)
	assert.Equal(t, VendorUnknown, vendor)
	assert.Equal(t, "SomeOtherCpu", id)
}

func TestMaxLeaves(t *testing.T) {
	src := NewScriptedSource()
	src.Script(LeafVendor, 0, Registers{EAX: 0x1F})
	src.Script(LeafExtendedMax, 0, Registers{EAX: 0x80000008})
	assert.Equal(t, uint32(0x1F), MaxLeaf(src))
	assert.Equal(t, uint32(0x80000008), MaxExtendedLeaf(src))
}

func TestSignatureEffectiveFamilyModel(t *testing.T) {
	src := NewScriptedSource()
	// family 6, model 0xA, extended model 0x9 -> effective model 0x9A (ADL)
	src.Script(LeafFeatures, 0, Registers{EAX: 0x9<<16 | 0x6<<8 | 0xA<<4 | 0x3})
	family, model, stepping := Signature(src)
	assert.Equal(t, 0x6, family)
	assert.Equal(t, 0x9A, model)
	assert.Equal(t, 0x3, stepping)
}

func TestSignatureExtendedFamily(t *testing.T) {
	src := NewScriptedSource()
	// family 0xF folds in the extended family (AMD family 0x19 = Zen 3/4)
	src.Script(LeafFeatures, 0, Registers{EAX: 0xA<<20 | 0x6<<16 | 0xF<<8 | 0x1<<4})
	family, model, stepping := Signature(src)
	assert.Equal(t, 0x19, family)
	assert.Equal(t, 0x61, model)
	assert.Equal(t, 0, stepping)
}

func TestBrandString(t *testing.T) {
	src := NewScriptedSource()
	src.Script(LeafExtendedMax, 0, Registers{EAX: LeafBrand2})
	brand := "Intel(R) Core(TM) i9-12900K"
	scriptBrand(src, brand)
	assert.Equal(t, brand, BrandString(src))
}

func TestBrandStringUnsupported(t *testing.T) {
	src := NewScriptedSource()
	src.Script(LeafExtendedMax, 0, Registers{EAX: LeafExtendedMax})
	assert.Equal(t, "", BrandString(src))
}

func TestScriptedSourceDefaultsToZeros(t *testing.T) {
	src := NewScriptedSource()
	assert.Equal(t, Registers{}, src.Identify(LeafFrequency, 0))
}

// scriptBrand loads the three extended brand leaves with a padded 48-byte
// copy of the given string.
func scriptBrand(src *ScriptedSource, brand string) {
	buf := make([]byte, 48)
	copy(buf, brand)
	for i := 0; i < 3; i++ {
		chunk := buf[i*16 : (i+1)*16]
		word := func(off int) uint32 {
			return uint32(chunk[off]) | uint32(chunk[off+1])<<8 | uint32(chunk[off+2])<<16 | uint32(chunk[off+3])<<24
		}
		src.Script(LeafBrand0+uint32(i), 0, Registers{
			EAX: word(0), EBX: word(4), ECX: word(8), EDX: word(12),
		})
	}
}
