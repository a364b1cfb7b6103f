// Package aptos implements the on-chain swap submitter: it signs and
// submits the entry-function payload carried on a DEX swap quote directly
// against an Aptos fullnode, without routing through the node's JSON
// simulation endpoint (which rejects Option<signer> parameters).
package aptos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aptosarb/arbitrage-bot/internal/apperror"
)

// routerParamTypes is the router entry function's fixed 20-argument
// signature (excluding the implicit &signer), used to validate and
// positionally BCS-encode the txData arguments a DEX aggregator returns.
var routerParamTypes = []string{
	"0x1::option::Option<signer>",
	"address",
	"u64",
	"u8",
	"vector<u8>",
	"vector<vector<vector<u8>>>",
	"vector<vector<vector<u64>>>",
	"vector<vector<vector<bool>>>",
	"vector<vector<u8>>",
	"vector<vector<vector<address>>>",
	"vector<vector<address>>",
	"vector<vector<address>>",
	"0x1::option::Option<vector<vector<vector<vector<vector<u8>>>>>>",
	"vector<vector<vector<u64>>>",
	"0x1::option::Option<vector<vector<vector<u8>>>>",
	"address",
	"vector<u64>",
	"u64",
	"u64",
	"address",
}

// bcsBuf accumulates BCS-encoded bytes the way aptos_sdk.bcs.Serializer
// does: one append per primitive, no backpatching.
type bcsBuf struct {
	b []byte
}

func (s *bcsBuf) writeByte(v byte) { s.b = append(s.b, v) }

func (s *bcsBuf) writeBool(v bool) {
	if v {
		s.writeByte(1)
	} else {
		s.writeByte(0)
	}
}

func (s *bcsBuf) writeU8(v uint8) { s.writeByte(v) }

func (s *bcsBuf) writeU64(v uint64) {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	s.b = append(s.b, buf[:]...)
}

func (s *bcsBuf) writeU128(v [16]byte) {
	// v is already little-endian, 16 bytes.
	s.b = append(s.b, v[:]...)
}

// writeULEB128 writes an unsigned LEB128 integer, used for vector/Option
// length and variant prefixes.
func (s *bcsBuf) writeULEB128(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		s.writeByte(b)
		if v == 0 {
			return
		}
	}
}

func (s *bcsBuf) writeAddress(addr [32]byte) {
	s.b = append(s.b, addr[:]...)
}

// parseAddress normalizes a hex address string (with or without "0x",
// short or full width) to its canonical 32-byte form.
func parseAddress(hexAddr string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimPrefix(hexAddr, "0x")
	if len(trimmed) > 64 {
		return out, apperror.Validation(apperror.CodeSchemaMismatch, "aptos.parse_address: too long")
	}
	trimmed = strings.Repeat("0", 64-len(trimmed)) + trimmed
	raw, err := hexDecode(trimmed)
	if err != nil {
		return out, apperror.Validation(apperror.CodeSchemaMismatch, "aptos.parse_address: "+err.Error())
	}
	copy(out[:], raw)
	return out, nil
}

func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexNibble(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q", c)
	}
}

// bcsEncodeArg BCS-encodes a single Move value given its type string,
// mirroring the reference _bcs_encode recursive dispatch: primitives,
// addresses, nested vector<T>, and Option<T> (including the always-None
// Option<signer> slot the router reserves for the implicit signer).
func bcsEncodeArg(typeStr string, value any) ([]byte, error) {
	s := &bcsBuf{}
	if err := writeValue(s, strings.TrimSpace(typeStr), value); err != nil {
		return nil, err
	}
	return s.b, nil
}

func writeValue(s *bcsBuf, t string, v any) error {
	switch {
	case t == "bool":
		b, err := asBool(v)
		if err != nil {
			return err
		}
		s.writeBool(b)
		return nil
	case t == "u8":
		n, err := asUint(v)
		if err != nil {
			return err
		}
		s.writeU8(uint8(n))
		return nil
	case t == "u64":
		n, err := asUint(v)
		if err != nil {
			return err
		}
		s.writeU64(n)
		return nil
	case t == "u128":
		n, err := asUint(v)
		if err != nil {
			return err
		}
		var buf [16]byte
		for i := 0; i < 8; i++ {
			buf[i] = byte(n >> (8 * i))
		}
		s.writeU128(buf)
		return nil
	case t == "address":
		addrStr, ok := v.(string)
		if !ok {
			return apperror.Validation(apperror.CodeSchemaMismatch, "aptos.bcs: address arg not a string")
		}
		addr, err := parseAddress(addrStr)
		if err != nil {
			return err
		}
		s.writeAddress(addr)
		return nil
	case t == "0x1::option::Option<signer>":
		// The implicit signer slot is always encoded as None; the VM
		// supplies the real signer itself.
		s.writeULEB128(0)
		return nil
	case strings.HasPrefix(t, "0x1::option::Option<") && strings.HasSuffix(t, ">"):
		inner := t[len("0x1::option::Option<") : len(t)-1]
		if v == nil {
			s.writeULEB128(0)
			return nil
		}
		s.writeULEB128(1)
		return writeValue(s, inner, v)
	case strings.HasPrefix(t, "vector<") && strings.HasSuffix(t, ">"):
		inner := t[len("vector<") : len(t)-1]
		items, err := asSlice(v)
		if err != nil {
			return err
		}
		s.writeULEB128(uint64(len(items)))
		for _, item := range items {
			if err := writeValue(s, inner, item); err != nil {
				return err
			}
		}
		return nil
	default:
		return apperror.Validation(apperror.CodeSchemaMismatch, "aptos.bcs: unsupported move type "+t)
	}
}

func asBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return x == "true" || x == "1", nil
	case float64:
		return x != 0, nil
	default:
		return false, apperror.Validation(apperror.CodeSchemaMismatch, "aptos.bcs: expected bool")
	}
}

func asUint(v any) (uint64, error) {
	switch x := v.(type) {
	case string:
		n, err := strconv.ParseUint(x, 10, 64)
		if err != nil {
			return 0, apperror.Validation(apperror.CodeSchemaMismatch, "aptos.bcs: invalid integer "+x)
		}
		return n, nil
	case float64:
		return uint64(x), nil
	case int:
		return uint64(x), nil
	case int64:
		return uint64(x), nil
	case uint64:
		return x, nil
	default:
		return 0, apperror.Validation(apperror.CodeSchemaMismatch, "aptos.bcs: expected integer")
	}
}

func asSlice(v any) ([]any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, apperror.Validation(apperror.CodeSchemaMismatch, "aptos.bcs: expected array")
	}
	return items, nil
}

// encodeArguments validates the payload's argument count against the fixed
// router schema and BCS-encodes each one positionally.
func encodeArguments(args []any) ([][]byte, error) {
	if len(args) != len(routerParamTypes) {
		return nil, apperror.Validation(apperror.CodeSchemaMismatch,
			fmt.Sprintf("aptos.bcs: expected %d args, got %d", len(routerParamTypes), len(args)))
	}
	encoded := make([][]byte, len(args))
	for i, arg := range args {
		b, err := bcsEncodeArg(routerParamTypes[i], arg)
		if err != nil {
			return nil, apperror.Validation(apperror.CodeSchemaMismatch,
				fmt.Sprintf("aptos.bcs: arg %d: %v", i, err))
		}
		encoded[i] = b
	}
	return encoded, nil
}
