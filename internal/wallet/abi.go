package wallet

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Contract is the avatar collection on Ethereum mainnet.
	Contract = "0x8a1bbef259b00ced668a8c69e50d92619c672176"

	tokensOfOwnerSelector = "0x8462151c"
	wordHex               = 64
	// Offset and length words precede the array elements.
	headerHex = 2 * wordHex
)

var (
	ErrBadAddress = errors.New("wallet: address must be 0x followed by 40 hex digits")
	ErrBadPayload = errors.New("wallet: malformed tokensOfOwner result")
)

// CallRequest is the eth_call transaction object sent to the provider.
type CallRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Data string `json:"data"`
}

// TokensOfOwnerCall builds the eth_call request listing the tokens owned by
// owner.
func TokensOfOwnerCall(owner string) (CallRequest, error) {
	data, err := TokensOfOwnerCallData(owner)
	if err != nil {
		return CallRequest{}, err
	}
	return CallRequest{
		From: "0x0000000000000000000000000000000000000000",
		To:   Contract,
		Data: data,
	}, nil
}

// TokensOfOwnerCallData encodes tokensOfOwner(owner): the selector followed
// by the address left-padded to one word.
func TokensOfOwnerCallData(owner string) (string, error) {
	if !strings.HasPrefix(owner, "0x") || len(owner) != 42 || !isHex(owner[2:]) {
		return "", ErrBadAddress
	}
	return tokensOfOwnerSelector + strings.Repeat("0", wordHex-40) + owner[2:], nil
}

// DecodeTokenIDs decodes the uint256[] returned by tokensOfOwner. The
// payload is 0x, an offset word, a length word and one word per element.
func DecodeTokenIDs(payload string) ([]int, error) {
	hex, ok := strings.CutPrefix(payload, "0x")
	if !ok || !isHex(hex) {
		return nil, ErrBadPayload
	}
	if len(hex) < headerHex || (len(hex)-headerHex)%wordHex != 0 {
		return nil, fmt.Errorf("%w: %d hex digits", ErrBadPayload, len(hex))
	}
	n, err := word(hex[wordHex:headerHex])
	if err != nil {
		return nil, err
	}
	body := hex[headerHex:]
	if n*wordHex > len(body) {
		return nil, fmt.Errorf("%w: length %d exceeds %d elements", ErrBadPayload, n, len(body)/wordHex)
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		id, err := word(body[i*wordHex : (i+1)*wordHex])
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

var maxID = big.NewInt(1<<31 - 1)

func word(w string) (int, error) {
	v, ok := new(big.Int).SetString(w, 16)
	if !ok {
		return 0, ErrBadPayload
	}
	if v.Cmp(maxID) > 0 {
		return 0, fmt.Errorf("%w: value %s out of range", ErrBadPayload, v)
	}
	return int(v.Int64()), nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
