// Package keyspace maps governance entities onto byte keys.
//
// A Key is one of a closed set of kinds. Its encoding starts with a one-byte
// tag followed by length-prefixed segments, so keys of different kinds never
// collide and no segment value can forge another key.
package keyspace

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

// Tag identifies the kind of a key. Values are persisted; never renumber.
type Tag byte

const (
	TagActiveProposals  Tag = 0x01
	TagArchivedProposal Tag = 0x02
	TagMetadata         Tag = 0x03
	TagConfiguration    Tag = 0x04
	TagCheckpoints      Tag = 0x05
	TagBalance          Tag = 0x06
	TagAllowance        Tag = 0x07
	TagVoteRecord       Tag = 0x08
	TagProposalSeq      Tag = 0x09
	TagDeposit          Tag = 0x0a
	TagToken            Tag = 0x0b
	TagOrganization     Tag = 0x0c
	TagClock            Tag = 0x0d
)

var tagNames = map[Tag]string{
	TagActiveProposals:  "active_proposals",
	TagArchivedProposal: "archived_proposal",
	TagMetadata:         "metadata",
	TagConfiguration:    "configuration",
	TagCheckpoints:      "checkpoints",
	TagBalance:          "balance",
	TagAllowance:        "allowance",
	TagVoteRecord:       "vote_record",
	TagProposalSeq:      "proposal_seq",
	TagDeposit:          "deposit",
	TagToken:            "token",
	TagOrganization:     "organization",
	TagClock:            "clock",
}

func (t Tag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return fmt.Sprintf("tag(0x%02x)", byte(t))
}

// ErrMalformedKey is returned by Decode for bytes that are not a valid key.
var ErrMalformedKey = errors.New("keyspace: malformed key")

// Key is a typed storage key.
type Key interface {
	Tag() Tag
	// Encode returns the byte form of the key.
	Encode() []byte

	segments() []segment
}

type segment struct {
	str string
	num uint32
	isN bool
}

func str(a domain.Address) segment { return segment{str: string(a)} }
func num(n uint32) segment         { return segment{num: n, isN: true} }

func encode(t Tag, segs ...segment) []byte {
	size := 1
	for _, s := range segs {
		if s.isN {
			size += 4
		} else {
			size += binary.MaxVarintLen32 + len(s.str)
		}
	}
	b := make([]byte, 1, size)
	b[0] = byte(t)
	for _, s := range segs {
		if s.isN {
			b = binary.BigEndian.AppendUint32(b, s.num)
			continue
		}
		b = binary.AppendUvarint(b, uint64(len(s.str)))
		b = append(b, s.str...)
	}
	return b
}

// Prefix returns the encoding shared by every key of the given tag.
func Prefix(t Tag) []byte {
	return []byte{byte(t)}
}

// ActiveProposals holds the running proposals of an organization.
type ActiveProposals struct{ Org domain.Address }

// ArchivedProposal holds a proposal after it left the running state.
type ArchivedProposal struct{ ID uint32 }

// Metadata holds the metadata attached to a proposal.
type Metadata struct{ ID uint32 }

// Configuration holds the governance parameters of an organization.
type Configuration struct{ Org domain.Address }

// Checkpoints holds the balance history of an account.
type Checkpoints struct {
	Token   domain.Address
	Account domain.Address
}

// Balance holds the current balance of an account.
type Balance struct {
	Token   domain.Address
	Account domain.Address
}

// Allowance holds how much spender may move on behalf of owner.
type Allowance struct {
	Token   domain.Address
	Owner   domain.Address
	Spender domain.Address
}

// VoteRecord holds the direction a voter chose on a proposal.
type VoteRecord struct {
	Voter      domain.Address
	ProposalID uint32
}

// ProposalSeq holds the last assigned proposal id.
type ProposalSeq struct{}

// Deposit holds the unrefunded anti-spam deposit of a proposal.
type Deposit struct{ ID uint32 }

// Token holds the metadata of a membership token.
type Token struct{ Token domain.Address }

// Organization holds a registry entry.
type Organization struct{ Org domain.Address }

// Clock holds the persisted logical time.
type Clock struct{}

func (ActiveProposals) Tag() Tag  { return TagActiveProposals }
func (ArchivedProposal) Tag() Tag { return TagArchivedProposal }
func (Metadata) Tag() Tag         { return TagMetadata }
func (Configuration) Tag() Tag    { return TagConfiguration }
func (Checkpoints) Tag() Tag      { return TagCheckpoints }
func (Balance) Tag() Tag          { return TagBalance }
func (Allowance) Tag() Tag        { return TagAllowance }
func (VoteRecord) Tag() Tag       { return TagVoteRecord }
func (ProposalSeq) Tag() Tag      { return TagProposalSeq }
func (Deposit) Tag() Tag          { return TagDeposit }
func (Token) Tag() Tag            { return TagToken }
func (Organization) Tag() Tag     { return TagOrganization }
func (Clock) Tag() Tag            { return TagClock }

func (k ActiveProposals) segments() []segment  { return []segment{str(k.Org)} }
func (k ArchivedProposal) segments() []segment { return []segment{num(k.ID)} }
func (k Metadata) segments() []segment         { return []segment{num(k.ID)} }
func (k Configuration) segments() []segment    { return []segment{str(k.Org)} }
func (k Checkpoints) segments() []segment      { return []segment{str(k.Token), str(k.Account)} }
func (k Balance) segments() []segment          { return []segment{str(k.Token), str(k.Account)} }
func (k Allowance) segments() []segment {
	return []segment{str(k.Token), str(k.Owner), str(k.Spender)}
}
func (k VoteRecord) segments() []segment   { return []segment{str(k.Voter), num(k.ProposalID)} }
func (ProposalSeq) segments() []segment    { return nil }
func (k Deposit) segments() []segment      { return []segment{num(k.ID)} }
func (k Token) segments() []segment        { return []segment{str(k.Token)} }
func (k Organization) segments() []segment { return []segment{str(k.Org)} }
func (Clock) segments() []segment          { return nil }

func (k ActiveProposals) Encode() []byte  { return encode(k.Tag(), k.segments()...) }
func (k ArchivedProposal) Encode() []byte { return encode(k.Tag(), k.segments()...) }
func (k Metadata) Encode() []byte         { return encode(k.Tag(), k.segments()...) }
func (k Configuration) Encode() []byte    { return encode(k.Tag(), k.segments()...) }
func (k Checkpoints) Encode() []byte      { return encode(k.Tag(), k.segments()...) }
func (k Balance) Encode() []byte          { return encode(k.Tag(), k.segments()...) }
func (k Allowance) Encode() []byte        { return encode(k.Tag(), k.segments()...) }
func (k VoteRecord) Encode() []byte       { return encode(k.Tag(), k.segments()...) }
func (k ProposalSeq) Encode() []byte      { return encode(k.Tag()) }
func (k Deposit) Encode() []byte          { return encode(k.Tag(), k.segments()...) }
func (k Token) Encode() []byte            { return encode(k.Tag(), k.segments()...) }
func (k Organization) Encode() []byte     { return encode(k.Tag(), k.segments()...) }
func (k Clock) Encode() []byte            { return encode(k.Tag()) }

// Decode parses the byte form of a key.
func Decode(b []byte) (Key, error) {
	if len(b) == 0 {
		return nil, ErrMalformedKey
	}
	d := decoder{buf: b[1:]}
	var k Key
	switch Tag(b[0]) {
	case TagActiveProposals:
		k = ActiveProposals{Org: d.str()}
	case TagArchivedProposal:
		k = ArchivedProposal{ID: d.num()}
	case TagMetadata:
		k = Metadata{ID: d.num()}
	case TagConfiguration:
		k = Configuration{Org: d.str()}
	case TagCheckpoints:
		k = Checkpoints{Token: d.str(), Account: d.str()}
	case TagBalance:
		k = Balance{Token: d.str(), Account: d.str()}
	case TagAllowance:
		k = Allowance{Token: d.str(), Owner: d.str(), Spender: d.str()}
	case TagVoteRecord:
		k = VoteRecord{Voter: d.str(), ProposalID: d.num()}
	case TagProposalSeq:
		k = ProposalSeq{}
	case TagDeposit:
		k = Deposit{ID: d.num()}
	case TagToken:
		k = Token{Token: d.str()}
	case TagOrganization:
		k = Organization{Org: d.str()}
	case TagClock:
		k = Clock{}
	default:
		return nil, fmt.Errorf("%w: unknown tag 0x%02x", ErrMalformedKey, b[0])
	}
	if d.err != nil || len(d.buf) != 0 {
		return nil, fmt.Errorf("%w: %s", ErrMalformedKey, Tag(b[0]))
	}
	return k, nil
}

type decoder struct {
	buf []byte
	err error
}

func (d *decoder) str() domain.Address {
	if d.err != nil {
		return ""
	}
	n, w := binary.Uvarint(d.buf)
	if w <= 0 || uint64(len(d.buf)-w) < n {
		d.err = ErrMalformedKey
		return ""
	}
	s := string(d.buf[w : w+int(n)])
	d.buf = d.buf[w+int(n):]
	return domain.Address(s)
}

func (d *decoder) num() uint32 {
	if d.err != nil {
		return 0
	}
	if len(d.buf) < 4 {
		d.err = ErrMalformedKey
		return 0
	}
	v := binary.BigEndian.Uint32(d.buf)
	d.buf = d.buf[4:]
	return v
}
