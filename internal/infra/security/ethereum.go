package security

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var ethereumAddressRegex = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{40}$`)

// IsEthereumAddress reports whether the string is a well-formed Ethereum
// address, with or without the 0x prefix. Uniformly-cased addresses carry no
// checksum and are accepted as-is; mixed-case addresses must satisfy the
// EIP-55 checksum.
func IsEthereumAddress(address string) bool {
	if !ethereumAddressRegex.MatchString(address) {
		return false
	}

	hexPart := strings.TrimPrefix(address, "0x")
	if hexPart == strings.ToLower(hexPart) || hexPart == strings.ToUpper(hexPart) {
		return true
	}

	return isChecksumAddress(hexPart)
}

// isChecksumAddress verifies the EIP-55 mixed-case checksum over the 40 hex
// characters: each alphabetic character is uppercase exactly when the
// corresponding nibble of keccak256(lowercase address) is greater than 7.
func isChecksumAddress(hexPart string) bool {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(strings.ToLower(hexPart)))
	hash := hasher.Sum(nil)

	for i := 0; i < 40; i++ {
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		nibble &= 0x0f

		c := hexPart[i]
		if c >= '0' && c <= '9' {
			continue
		}

		if nibble > 7 {
			if c < 'A' || c > 'F' {
				return false
			}
		} else {
			if c < 'a' || c > 'f' {
				return false
			}
		}
	}

	return true
}
