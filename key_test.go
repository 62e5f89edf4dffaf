// key_test.go: tests for the bidirectional flow key.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

import "testing"

func TestKey_EqualIsBidirectional(t *testing.T) {
	forward := Key{SIP: 10, DIP: 20, SPort: 1000, DPort: 443, VLAN: 7}
	reverse := forward.Reverse()

	if !forward.Equal(reverse) {
		t.Error("a key and its reverse should be Equal")
	}
	if !reverse.Equal(forward) {
		t.Error("Equal should be symmetric")
	}
}

func TestKey_EqualRejectsDifferentVLAN(t *testing.T) {
	a := Key{SIP: 1, DIP: 2, SPort: 10, DPort: 20, VLAN: 1}
	b := Key{SIP: 1, DIP: 2, SPort: 10, DPort: 20, VLAN: 2}
	if a.Equal(b) {
		t.Error("keys differing only in VLAN must not be Equal")
	}
}

func TestKey_EqualRejectsUnrelatedFlow(t *testing.T) {
	a := Key{SIP: 1, DIP: 2, SPort: 10, DPort: 20}
	b := Key{SIP: 1, DIP: 2, SPort: 10, DPort: 21}
	if a.Equal(b) {
		t.Error("keys differing in a port must not be Equal")
	}
}

func TestKey_HashIsBidirectional(t *testing.T) {
	forward := Key{SIP: 10, DIP: 20, SPort: 1000, DPort: 443, VLAN: 3}
	reverse := forward.Reverse()

	const numRows = 100003
	if forward.hash(numRows) != reverse.hash(numRows) {
		t.Errorf("hash(forward)=%d, hash(reverse)=%d, want equal", forward.hash(numRows), reverse.hash(numRows))
	}
}

func TestKey_HashWithinBounds(t *testing.T) {
	const numRows = 50047
	keys := []Key{
		{SIP: 0, DIP: 0, SPort: 0, DPort: 0, VLAN: 0},
		{SIP: 0xFFFFFFFF, DIP: 0xFFFFFFFF, SPort: 0xFFFF, DPort: 0xFFFF, VLAN: 0xFF},
		{SIP: 192, DIP: 168, SPort: 1, DPort: 1, VLAN: 1},
	}
	for _, k := range keys {
		h := k.hash(numRows)
		if h >= numRows {
			t.Errorf("hash(%v) = %d, out of bounds for numRows=%d", k, h, numRows)
		}
	}
}
