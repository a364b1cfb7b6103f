package aptos

import (
	"strings"

	"github.com/aptosarb/arbitrage-bot/internal/apperror"
)

// rawTransaction is the BCS-serializable envelope signed and submitted for
// every swap: sender, sequence number, the entry-function payload, the gas
// budget, an expiration, and the chain id.
type rawTransaction struct {
	Sender                  [32]byte
	SequenceNumber          uint64
	ModuleAddr              [32]byte
	ModuleName              string
	FunctionName            string
	TypeArgs                []string
	Args                    [][]byte
	MaxGasAmount            uint64
	GasUnitPrice            uint64
	ExpirationTimestampSecs uint64
	ChainID                 uint8
}

// entryFunctionPayloadVariant is the TransactionPayload enum's BCS variant
// index for an EntryFunction call.
const entryFunctionPayloadVariant = 2

func encodeRawTransaction(tx rawTransaction) ([]byte, error) {
	s := &bcsBuf{}
	s.writeAddress(tx.Sender)
	s.writeU64(tx.SequenceNumber)

	// TransactionPayload::EntryFunction(EntryFunction)
	s.writeULEB128(entryFunctionPayloadVariant)

	// ModuleId { address, name }
	s.writeAddress(tx.ModuleAddr)
	writeBCSString(s, tx.ModuleName)

	// function name (Identifier)
	writeBCSString(s, tx.FunctionName)

	// ty_args: Vec<TypeTag>
	s.writeULEB128(uint64(len(tx.TypeArgs)))
	for _, ta := range tx.TypeArgs {
		if err := writeTypeTag(s, ta); err != nil {
			return nil, err
		}
	}

	// args: Vec<Vec<u8>>
	s.writeULEB128(uint64(len(tx.Args)))
	for _, a := range tx.Args {
		s.writeULEB128(uint64(len(a)))
		s.b = append(s.b, a...)
	}

	s.writeU64(tx.MaxGasAmount)
	s.writeU64(tx.GasUnitPrice)
	s.writeU64(tx.ExpirationTimestampSecs)
	s.writeU8(tx.ChainID)

	return s.b, nil
}

func writeBCSString(s *bcsBuf, v string) {
	s.writeULEB128(uint64(len(v)))
	s.b = append(s.b, v...)
}

// typeTag BCS variant indices, per the Aptos move_core_types::language_storage::TypeTag enum.
const (
	typeTagBool    = 0
	typeTagU8      = 1
	typeTagU64     = 2
	typeTagU128    = 3
	typeTagAddress = 4
	typeTagSigner  = 5
	typeTagVector  = 6
	typeTagStruct  = 7
)

// writeTypeTag encodes a type-argument string into a TypeTag. It handles
// bool, u8, u64, u128, address, signer, vector<T>, and struct tags like
// "0x1::aptos_coin::AptosCoin" with or without generic arguments. Generic
// arguments are split on every comma, so a generic argument that itself
// carries several generic arguments is not parsed; u16, u32 and u256 are
// not handled.
func writeTypeTag(s *bcsBuf, typeStr string) error {
	t := strings.TrimSpace(typeStr)
	switch t {
	case "bool":
		s.writeULEB128(typeTagBool)
		return nil
	case "u8":
		s.writeULEB128(typeTagU8)
		return nil
	case "u64":
		s.writeULEB128(typeTagU64)
		return nil
	case "u128":
		s.writeULEB128(typeTagU128)
		return nil
	case "address":
		s.writeULEB128(typeTagAddress)
		return nil
	case "signer":
		s.writeULEB128(typeTagSigner)
		return nil
	}
	if strings.HasPrefix(t, "vector<") && strings.HasSuffix(t, ">") {
		s.writeULEB128(typeTagVector)
		return writeTypeTag(s, t[len("vector<"):len(t)-1])
	}

	// Struct tag: "<addr>::<module>::<name>", optionally with generics
	// that our router's type-argument positions never carry.
	generic := ""
	base := t
	if idx := strings.Index(t, "<"); idx >= 0 && strings.HasSuffix(t, ">") {
		base = t[:idx]
		generic = t[idx+1 : len(t)-1]
	}
	parts := strings.Split(base, "::")
	if len(parts) != 3 {
		return apperror.Validation(apperror.CodeSchemaMismatch, "aptos.type_tag: malformed struct tag "+t)
	}
	addr, err := parseAddress(parts[0])
	if err != nil {
		return err
	}
	s.writeULEB128(typeTagStruct)
	s.writeAddress(addr)
	writeBCSString(s, parts[1])
	writeBCSString(s, parts[2])

	if generic == "" {
		s.writeULEB128(0)
		return nil
	}
	genericArgs := strings.Split(generic, ",")
	s.writeULEB128(uint64(len(genericArgs)))
	for _, g := range genericArgs {
		if err := writeTypeTag(s, strings.TrimSpace(g)); err != nil {
			return err
		}
	}
	return nil
}

// ed25519AuthenticatorVariant is the TransactionAuthenticator enum's BCS
// variant index for a single-signer Ed25519 authenticator.
const ed25519AuthenticatorVariant = 0

func encodeSignedTransaction(rawTxnBytes []byte, pubKey, signature []byte) []byte {
	s := &bcsBuf{b: append([]byte{}, rawTxnBytes...)}
	s.writeULEB128(ed25519AuthenticatorVariant)
	s.writeULEB128(uint64(len(pubKey)))
	s.b = append(s.b, pubKey...)
	s.writeULEB128(uint64(len(signature)))
	s.b = append(s.b, signature...)
	return s.b
}
