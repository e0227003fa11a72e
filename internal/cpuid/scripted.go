// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

type leafKey struct {
	leaf    uint32
	subleaf uint32
}

// ScriptedSource replays register values recorded per (leaf, subleaf).
// Queries without a scripted answer return all-zero registers, matching
// the behavior of hardware for out-of-range leaves.
type ScriptedSource struct {
	regs map[leafKey]Registers
}

// NewScriptedSource returns an empty scripted source.
func NewScriptedSource() *ScriptedSource {
	return &ScriptedSource{regs: make(map[leafKey]Registers)}
}

// Script records the register values returned for a (leaf, subleaf) query.
func (s *ScriptedSource) Script(leaf, subleaf uint32, r Registers) {
	s.regs[leafKey{leaf: leaf, subleaf: subleaf}] = r
}

// Identify returns the scripted registers for the query, or zeros.
func (s *ScriptedSource) Identify(leaf, subleaf uint32) Registers {
	return s.regs[leafKey{leaf: leaf, subleaf: subleaf}]
}
