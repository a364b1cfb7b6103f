package aptos

import (
	"bytes"
	"testing"
)

func TestBcsEncodeArg_Primitives(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		value   any
		want    []byte
	}{
		{"bool true", "bool", true, []byte{1}},
		{"bool false", "bool", false, []byte{0}},
		{"u8", "u8", float64(7), []byte{7}},
		{"u64 zero", "u64", "0", []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{"u64 one", "u64", "1", []byte{1, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bcsEncodeArg(tt.typ, tt.value)
			if err != nil {
				t.Fatalf("bcsEncodeArg: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBcsEncodeArg_OptionSigner_AlwaysNone(t *testing.T) {
	got, err := bcsEncodeArg("0x1::option::Option<signer>", nil)
	if err != nil {
		t.Fatalf("bcsEncodeArg: %v", err)
	}
	if !bytes.Equal(got, []byte{0}) {
		t.Errorf("Option<signer> must always encode as None, got %v", got)
	}
}

func TestBcsEncodeArg_OptionSome(t *testing.T) {
	got, err := bcsEncodeArg("0x1::option::Option<u8>", float64(5))
	if err != nil {
		t.Fatalf("bcsEncodeArg: %v", err)
	}
	want := []byte{1, 5} // uleb128(1) then the u8 value
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBcsEncodeArg_VectorU8(t *testing.T) {
	got, err := bcsEncodeArg("vector<u8>", []any{float64(1), float64(2), float64(3)})
	if err != nil {
		t.Fatalf("bcsEncodeArg: %v", err)
	}
	want := []byte{3, 1, 2, 3} // uleb128 length then three u8 elements
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBcsEncodeArg_Address(t *testing.T) {
	got, err := bcsEncodeArg("address", "0x1")
	if err != nil {
		t.Fatalf("bcsEncodeArg: %v", err)
	}
	if len(got) != 32 {
		t.Fatalf("address must encode to 32 bytes, got %d", len(got))
	}
	for i := 0; i < 31; i++ {
		if got[i] != 0 {
			t.Fatalf("expected leading zero padding, byte %d = %d", i, got[i])
		}
	}
	if got[31] != 1 {
		t.Fatalf("expected trailing byte 1, got %d", got[31])
	}
}

func TestEncodeArguments_RejectsWrongArity(t *testing.T) {
	_, err := encodeArguments([]any{"only one arg"})
	if err == nil {
		t.Fatal("expected schema-mismatch error for wrong argument count")
	}
}

func TestWriteULEB128_MultiByte(t *testing.T) {
	s := &bcsBuf{}
	s.writeULEB128(300) // 300 = 0b100101100 -> [0xac, 0x02]
	want := []byte{0xac, 0x02}
	if !bytes.Equal(s.b, want) {
		t.Errorf("got %v, want %v", s.b, want)
	}
}

func TestParseAddress_ShortForm(t *testing.T) {
	addr, err := parseAddress("0xa")
	if err != nil {
		t.Fatalf("parseAddress: %v", err)
	}
	for i := 0; i < 31; i++ {
		if addr[i] != 0 {
			t.Fatalf("expected zero padding, byte %d = %d", i, addr[i])
		}
	}
	if addr[31] != 0x0a {
		t.Fatalf("expected trailing byte 0x0a, got %x", addr[31])
	}
}
