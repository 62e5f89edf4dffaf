// primes.go: the prime capacity ladder used to size flow tables.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

import "sort"

// primeLadder is a monotonically increasing, compiled-in sequence of prime
// table capacities. Primes avoid pathological modulo aliasing with the
// simple XOR/multiply hash in key.go. The ladder is immutable package data,
// not per-Tracker configuration, so it is the one piece of process-wide
// state this library carries.
var primeLadder = []uint64{
	50047,
	100003,
	200003,
	300043,
	400067,
	500107,
	600101,
	700027,
	800029,
	900091,
	1000117,
	2000081,
	3000017,
	4000081,
	5000153,
	5500003,
	6000101,
	7000003,
	8000071,
	9000143,
	10000141,
	11000081,
	12000097,
	13000133,
	14000071,
	15000017,
	15485783,
}

func primeTotal() int {
	return len(primeLadder)
}

// primeAt returns the ladder entry at idx, clamped to the ladder ends.
func primeAt(idx int) uint64 {
	if idx < 0 {
		return primeLadder[0]
	}
	if idx >= len(primeLadder) {
		return primeLadder[len(primeLadder)-1]
	}
	return primeLadder[idx]
}

// primeNearestIdx returns the index of the smallest ladder entry that is
// greater than or equal to val, clamped to the ladder ends.
func primeNearestIdx(val uint64) int {
	idx := sort.Search(len(primeLadder), func(i int) bool {
		return primeLadder[i] >= val
	})
	if idx >= len(primeLadder) {
		return len(primeLadder) - 1
	}
	return idx
}

// primeLargerIdx returns the ladder entry one step above idx, clamped to
// the top of the ladder.
func primeLargerIdx(idx int) uint64 {
	if idx < len(primeLadder)-1 {
		return primeLadder[idx+1]
	}
	return primeLadder[len(primeLadder)-1]
}

// primeSmallerIdx returns the ladder entry one step below idx, clamped to
// the bottom of the ladder.
func primeSmallerIdx(idx int) uint64 {
	if idx > 0 {
		return primeLadder[idx-1]
	}
	return primeLadder[0]
}
