// Copyright 2015 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

package common

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBytesConversion(t *testing.T) {
	bytes := []byte{5}
	hash := BytesToHash(bytes)

	var exp Hash
	exp[31] = 5

	if hash != exp {
		t.Errorf("expected %x got %x", exp, hash)
	}
}

func TestIsHexAddress(t *testing.T) {
	tests := []struct {
		str string
		exp bool
	}{
		{"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"0X5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", true},
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed00", false}, // one byte too long
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea", false},     // too short
		{"0xxaaeb6053f3e94c9b9a09f33669435e7ef1beaed", false},   // invalid hex char
	}

	for _, test := range tests {
		if result := IsHexAddress(test.str); result != test.exp {
			t.Errorf("IsHexAddress(%s) == %v; expected %v", test.str, result, test.exp)
		}
	}
}

func TestAddressRegex(t *testing.T) {
	if !AddressRegex.MatchString("0x0000000000000000000000000000000000000000") {
		t.Errorf("expected canonical zero address to match AddressRegex")
	}
	if AddressRegex.MatchString("not-an-address") {
		t.Errorf("did not expect junk input to match AddressRegex")
	}
}

func TestHashUnmarshalText(t *testing.T) {
	var tests = []struct {
		input string
		err   bool
	}{
		{"0x00", true},
		{"0x" + strings.Repeat("0", 64), false},
		{strings.Repeat("0", 64), true}, // missing 0x prefix
	}
	for _, test := range tests {
		var h Hash
		err := json.Unmarshal([]byte(`"`+test.input+`"`), &h)
		if test.err && err == nil {
			t.Errorf("input %q: expected error, got none", test.input)
		}
		if !test.err && err != nil {
			t.Errorf("input %q: unexpected error: %v", test.input, err)
		}
	}
}

func TestAddressUnmarshalJSON(t *testing.T) {
	var tests = []struct {
		input string
		err   bool
	}{
		{"", true},
		{`""`, true},
		{`"0x"`, true},
		{`"0x00"`, true},
		{`"0x000000000000000000000000000000000000000g"`, true}, // non-hex character
		{`"0x0000000000000000000000000000000000000000"`, false},
	}
	for _, test := range tests {
		var a Address
		err := json.Unmarshal([]byte(test.input), &a)
		if test.err && err == nil {
			t.Errorf("input %q: expected error, got none", test.input)
		}
		if !test.err && err != nil {
			t.Errorf("input %q: unexpected error: %v", test.input, err)
		}
	}
}

func TestAddressHexRoundTrip(t *testing.T) {
	a := HexToAddress("0x0123456789abcdef0123456789abcdef01234567")
	if got := a.Hex(); got != "0x0123456789abcdef0123456789abcdef01234567" {
		t.Errorf("got %s, want 0x0123456789abcdef0123456789abcdef01234567", got)
	}
}

func TestCopyBytes(t *testing.T) {
	input := []byte{1, 2, 3, 4}
	v := CopyBytes(input)
	if len(v) != len(input) {
		t.Fatal("bytes not copied")
	}
	v[0] = 99
	if input[0] == 99 {
		t.Fatal("copy shares storage with input")
	}
}
