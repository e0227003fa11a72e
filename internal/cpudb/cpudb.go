// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package cpudb maps processor signatures (vendor, effective family,
// effective model) to microarchitecture names. Used by the human-readable
// summary only; an unknown signature is not an error.
package cpudb

import "cpuprobe/internal/cpuid"

// Intel family 6 models. Hybrid client parts (Alder Lake onward) are the
// rows this probe's core-type classification most often pairs with.
var intelFamily6 = map[int]string{
	0x3C: "Haswell",
	0x3F: "Haswell-EP",
	0x4E: "Skylake",
	0x55: "Skylake-SP/Cascade Lake-SP",
	0x5E: "Skylake",
	0x8E: "Kaby Lake",
	0x9E: "Coffee Lake",
	0xA5: "Comet Lake",
	0x7E: "Ice Lake",
	0x6A: "Ice Lake-SP",
	0x6C: "Ice Lake-D",
	0x8C: "Tiger Lake",
	0x8D: "Tiger Lake",
	0xA7: "Rocket Lake",
	0x97: "Alder Lake",
	0x9A: "Alder Lake",
	0xB7: "Raptor Lake",
	0xBA: "Raptor Lake",
	0xBF: "Raptor Lake",
	0xAA: "Meteor Lake",
	0xC6: "Arrow Lake",
	0xBD: "Lunar Lake",
	0x8F: "Sapphire Rapids",
	0xCF: "Emerald Rapids",
	0xAF: "Sierra Forest",
	0xAD: "Granite Rapids",
	0xAE: "Granite Rapids",
}

// Lookup returns the microarchitecture name for a signature, or "" when the
// signature is not in the database.
func Lookup(vendor cpuid.Vendor, family, model int) string {
	switch vendor {
	case cpuid.VendorIntel:
		if family == 6 {
			return intelFamily6[model]
		}
	case cpuid.VendorAMD:
		return amdUarch(family, model)
	}
	return ""
}

// amdUarch resolves AMD Zen generations from the effective family. Model
// ranges within a family distinguish the core variants coarsely.
func amdUarch(family, model int) string {
	switch family {
	case 0x17:
		if model >= 0x30 {
			return "Zen 2"
		}
		return "Zen/Zen+"
	case 0x19:
		if (model >= 0x10 && model <= 0x1F) || model >= 0x60 {
			return "Zen 4"
		}
		return "Zen 3"
	case 0x1A:
		return "Zen 5"
	}
	return ""
}
