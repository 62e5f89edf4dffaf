// key.go: the bidirectional flow key and its hash.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

// Key identifies a flow by its 5-tuple. Equality is directional-agnostic:
// a flow observed as (sip,sport)->(dip,dport) and the same flow observed
// in reverse both resolve to the same table row.
type Key struct {
	SIP, DIP     uint32
	SPort, DPort uint16
	VLAN         uint8
}

// Reverse returns the key with source and destination swapped. It is used
// by tests to exercise the bidirectional-equality invariant; production
// code never needs to construct it explicitly because Equal already
// accounts for both directions.
func (k Key) Reverse() Key {
	return Key{SIP: k.DIP, DIP: k.SIP, SPort: k.DPort, DPort: k.SPort, VLAN: k.VLAN}
}

// Equal reports whether k and other identify the same flow, regardless of
// the direction either was observed in.
func (k Key) Equal(other Key) bool {
	if k.VLAN != other.VLAN {
		return false
	}
	forward := k.SIP == other.SIP && k.DIP == other.DIP &&
		k.SPort == other.SPort && k.DPort == other.DPort
	reverse := k.SIP == other.DIP && k.DIP == other.SIP &&
		k.SPort == other.DPort && k.DPort == other.SPort
	return forward || reverse
}

// hash reduces k modulo numRows. It is order-insensitive by construction:
// XOR is commutative over (sip, dip) and the port product is symmetric
// over (sport, dport), so a key and its reverse always hash to the same
// slot; directional equality is resolved separately in Key.Equal.
func (k Key) hash(numRows uint64) uint64 {
	h := uint64(k.SIP^k.DIP) ^ uint64(k.SPort)*uint64(k.DPort)
	h *= 1 + uint64(k.VLAN)
	return h % numRows
}
