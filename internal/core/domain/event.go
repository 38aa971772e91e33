package domain

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Topic names an event stream.
type Topic string

const (
	TopicProposalCreated  Topic = "proposal_created"
	TopicMetadataSet      Topic = "metadata_set"
	TopicConfigurationSet Topic = "configuration_set"
	TopicVoteCast         Topic = "vote_cast"
	TopicProposalFaulted  Topic = "proposal_faulted"
	TopicStatusUpdate     Topic = "status_update"
	TopicDepositRefunded  Topic = "deposit_refunded"

	TopicTokenMinted      Topic = "token_minted"
	TopicTokenTransferred Topic = "token_transferred"
	TopicAllowanceChanged Topic = "allowance_changed"

	TopicOrganizationCreated   Topic = "organization_created"
	TopicOrganizationDestroyed Topic = "organization_destroyed"
	TopicOwnerChanged          Topic = "owner_changed"
	TopicTokenIssued           Topic = "token_issued"
)

// Event is a notification about a committed state change.
type Event struct {
	ID         string         `json:"id"`
	Topic      Topic          `json:"topic"`
	OrgID      Address        `json:"org_id,omitempty"`
	ProposalID *uint32        `json:"proposal_id,omitempty"`
	Time       uint32         `json:"time"`
	Data       map[string]any `json:"data,omitempty"`
	EmittedAt  int64          `json:"emitted_at"`
}

// NewEvent builds an event with a fresh ULID.
func NewEvent(topic Topic, org Address, now uint32, data map[string]any) Event {
	return Event{
		ID:        ulid.MustNew(ulid.Now(), rand.Reader).String(),
		Topic:     topic,
		OrgID:     org,
		Time:      now,
		Data:      data,
		EmittedAt: time.Now().UnixMilli(),
	}
}

// ForProposal sets the proposal id of the event.
func (e Event) ForProposal(id uint32) Event {
	e.ProposalID = &id
	return e
}
