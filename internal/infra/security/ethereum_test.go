package security

import "testing"

func TestIsEthereumAddressChecksummed(t *testing.T) {
	valid := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}

	for _, addr := range valid {
		if !IsEthereumAddress(addr) {
			t.Errorf("expected %s to validate", addr)
		}
	}
}

func TestIsEthereumAddressUniformCase(t *testing.T) {
	// Uniformly cased addresses carry no checksum and pass outright.
	if !IsEthereumAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed") {
		t.Error("expected all-lowercase address to validate")
	}
	if !IsEthereumAddress("0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED") {
		t.Error("expected all-uppercase address to validate")
	}
}

func TestIsEthereumAddressPrefixOptional(t *testing.T) {
	// The same address must validate with and without the 0x prefix.
	cases := []string{
		"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED",
		"5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", // checksummed
	}

	for _, addr := range cases {
		if !IsEthereumAddress(addr) {
			t.Errorf("expected unprefixed %s to validate", addr)
		}
	}
}

func TestIsEthereumAddressSingleCaseFlipFails(t *testing.T) {
	// Last character flipped d -> D in an otherwise valid checksum.
	if IsEthereumAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD") {
		t.Error("expected flipped-case address to fail the checksum")
	}
	if IsEthereumAddress("5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD") {
		t.Error("expected unprefixed flipped-case address to fail the checksum")
	}
}

func TestIsEthereumAddressMalformed(t *testing.T) {
	cases := []string{
		"",
		"0x",
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAe",    // too short
		"5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAe",      // too short, unprefixed
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed1",  // too long
		"0xg5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAe",   // non-hex
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAe ",   // trailing space
		"00x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed5", // garbage prefix
	}

	for _, addr := range cases {
		if IsEthereumAddress(addr) {
			t.Errorf("expected %q to fail validation", addr)
		}
	}
}
