package keyspace

import (
	"bytes"
	"errors"
	"testing"
)

func allKinds() []Key {
	return []Key{
		ActiveProposals{Org: "acme"},
		ArchivedProposal{ID: 7},
		Metadata{ID: 7},
		Configuration{Org: "acme"},
		Checkpoints{Token: "tok", Account: "alice"},
		Balance{Token: "tok", Account: "alice"},
		Allowance{Token: "tok", Owner: "alice", Spender: "bob"},
		VoteRecord{Voter: "alice", ProposalID: 7},
		ProposalSeq{},
		Deposit{ID: 7},
		Token{Token: "tok"},
		Organization{Org: "acme"},
		Clock{},
	}
}

func TestKinds_NeverCollide(t *testing.T) {
	seen := make(map[string]Key)
	for _, k := range allKinds() {
		enc := string(k.Encode())
		if prev, ok := seen[enc]; ok {
			t.Errorf("%T and %T encode to the same bytes", prev, k)
		}
		seen[enc] = k
		if enc[0] != byte(k.Tag()) {
			t.Errorf("%T does not start with its tag", k)
		}
	}
}

func TestSegments_CannotForgeKeys(t *testing.T) {
	// Without length prefixes these two would both be "tok" + "ab" + "c".
	a := Allowance{Token: "tok", Owner: "ab", Spender: "c"}.Encode()
	b := Allowance{Token: "tok", Owner: "a", Spender: "bc"}.Encode()
	if bytes.Equal(a, b) {
		t.Fatal("segment boundaries are ambiguous")
	}

	// Balance of account "x" in token "t" must not be a prefix match for
	// checkpoints of the same pair.
	if bytes.HasPrefix(Checkpoints{Token: "t", Account: "x"}.Encode(), Balance{Token: "t", Account: "x"}.Encode()) {
		t.Fatal("balance key is a prefix of checkpoints key")
	}
}

func TestDecode(t *testing.T) {
	for _, k := range allKinds() {
		got, err := Decode(k.Encode())
		if err != nil {
			t.Errorf("Decode(%T): %v", k, err)
			continue
		}
		if got != k {
			t.Errorf("Decode(%T) = %#v, want %#v", k, got, k)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"unknown tag", []byte{0xff}},
		{"truncated number", []byte{byte(TagDeposit), 0x00, 0x01}},
		{"truncated string", []byte{byte(TagOrganization), 0x05, 'a'}},
		{"trailing bytes", append(Clock{}.Encode(), 0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.in); !errors.Is(err, ErrMalformedKey) {
				t.Errorf("Decode() error = %v, want ErrMalformedKey", err)
			}
		})
	}
}

func TestPrefix_MatchesKind(t *testing.T) {
	for _, k := range allKinds() {
		if !bytes.HasPrefix(k.Encode(), Prefix(k.Tag())) {
			t.Errorf("%T not under Prefix(%s)", k, k.Tag())
		}
	}
}

func TestDeposit_NumbersSortNumerically(t *testing.T) {
	if bytes.Compare(ArchivedProposal{ID: 2}.Encode(), ArchivedProposal{ID: 10}.Encode()) >= 0 {
		t.Error("ids must sort in numeric order")
	}
}
