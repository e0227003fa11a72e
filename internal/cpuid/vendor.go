// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import "strings"

// Vendor classifies the processor manufacturer.
type Vendor int

const (
	VendorUnknown Vendor = iota
	VendorIntel
	VendorAMD
)

func (v Vendor) String() string {
	switch v {
	case VendorIntel:
		return "Intel"
	case VendorAMD:
		return "AMD"
	}
	return "Unknown"
}

// Manufacturer strings as reported by the vendor leaf.
const (
	IntelVendorID = "GenuineIntel"
	AMDVendorID   = "AuthenticAMD"
)

var vendorIDs = map[string]Vendor{
	IntelVendorID: VendorIntel,
	AMDVendorID:   VendorAMD,
}

// VendorOf decodes the 12-character manufacturer string from the vendor
// leaf (EBX, EDX, ECX order) and classifies it. Unrecognized strings map to
// VendorUnknown; downstream decoders then skip vendor-specific leaves.
func VendorOf(src Source) (Vendor, string) {
	r := src.Identify(LeafVendor, 0)
	id := registerString(r.EBX) + registerString(r.EDX) + registerString(r.ECX)
	return vendorIDs[id], id
}

// Signature fields from the features leaf, EAX.
const (
	steppingMask        = 0xF
	modelShift          = 4
	modelMask           = 0xF
	familyShift         = 8
	familyMask          = 0xF
	extendedModelShift  = 16
	extendedModelMask   = 0xF
	extendedFamilyShift = 20
	extendedFamilyMask  = 0xFF
)

// Signature returns the effective family, model, and stepping from the
// features leaf. The extended fields are folded in per the architectural
// composition rules: extended family is added when family is 0xF, extended
// model extends the model for families 0x6 and 0xF.
func Signature(src Source) (family, model, stepping int) {
	a := src.Identify(LeafFeatures, 0).EAX
	stepping = int(a & steppingMask)
	model = int((a >> modelShift) & modelMask)
	family = int((a >> familyShift) & familyMask)
	if family == 0x6 || family == 0xF {
		model += int((a>>extendedModelShift)&extendedModelMask) << 4
	}
	if family == 0xF {
		family += int((a >> extendedFamilyShift) & extendedFamilyMask)
	}
	return family, model, stepping
}

// BrandString assembles the 48-byte processor brand string from the three
// extended brand leaves. Returns "" when the extended leaves are not
// supported.
func BrandString(src Source) string {
	if MaxExtendedLeaf(src) < LeafBrand2 {
		return ""
	}
	var sb strings.Builder
	for leaf := LeafBrand0; leaf <= LeafBrand2; leaf++ {
		r := src.Identify(leaf, 0)
		sb.WriteString(registerString(r.EAX))
		sb.WriteString(registerString(r.EBX))
		sb.WriteString(registerString(r.ECX))
		sb.WriteString(registerString(r.EDX))
	}
	brand := sb.String()
	// the brand string is NUL-terminated within its 48 bytes
	if i := strings.IndexByte(brand, 0); i >= 0 {
		brand = brand[:i]
	}
	return strings.TrimSpace(brand)
}

// registerString interprets a register as four little-endian ASCII bytes.
func registerString(r uint32) string {
	return string([]byte{byte(r), byte(r >> 8), byte(r >> 16), byte(r >> 24)})
}
