package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress valida una dirección de wallet (20 bytes, prefijo 0x) y la devuelve
// en minúsculas. Acepta direcciones todo-minúsculas, todo-mayúsculas o con checksum EIP-55;
// una dirección con mayúsculas mezcladas y checksum incorrecto se rechaza.
func NormalizeAddress(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", InvalidInputf("empty wallet address")
	}
	if !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return "", InvalidInputf("malformed wallet address %q", raw)
	}

	hexPart := s[2:]
	mixed := hexPart != strings.ToLower(hexPart) && hexPart != strings.ToUpper(hexPart)
	if mixed && common.HexToAddress(s).Hex() != s {
		return "", InvalidInputf("bad checksum for wallet address %q", raw)
	}

	return strings.ToLower(s), nil
}

// ShortAddress devuelve la forma abreviada 0x1234...abcd usada en logs y tablas.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
