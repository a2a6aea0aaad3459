package domain

import (
	"time"

	"fieldbook/internal/apperr"
)

// NewFriendRequest creates a pending request from one player to another.
// existing is any relationship already recorded between the two, in either
// direction.
func NewFriendRequest(from, to string, existing *Friend, now time.Time) (*Friend, error) {
	if from == to {
		return nil, apperr.New(apperr.SelfRequest)
	}
	if existing != nil {
		return nil, apperr.New(apperr.FriendExists)
	}
	return &Friend{
		ID:        NewID(),
		Requester: from,
		Addressee: to,
		Pending:   true,
		CreatedAt: now,
	}, nil
}

// Accept confirms a pending request. Only the addressee can accept.
func (f *Friend) Accept(by string) error {
	if by != f.Addressee {
		return apperr.New(apperr.Forbidden)
	}
	if !f.Pending {
		return apperr.New(apperr.NotPending)
	}
	f.Pending = false
	return nil
}

// Involves reports whether playerID is one side of the relationship.
func (f *Friend) Involves(playerID string) bool {
	return f.Requester == playerID || f.Addressee == playerID
}

// Other returns the side of the relationship that is not playerID.
func (f *Friend) Other(playerID string) string {
	if f.Requester == playerID {
		return f.Addressee
	}
	return f.Requester
}

// NewInvite checks that from, a player of r, may invite to into it.
func NewInvite(r *Reservation, from, to string, now time.Time) (*Invite, error) {
	switch {
	case from == to:
		return nil, apperr.New(apperr.SelfRequest)
	case r.Ended():
		return nil, apperr.New(apperr.AlreadyEnded)
	case !r.Has(from):
		return nil, apperr.New(apperr.Forbidden)
	case r.Has(to):
		return nil, apperr.New(apperr.AlreadyJoined)
	case r.Full():
		return nil, apperr.New(apperr.AlreadyFull)
	}
	return &Invite{
		ID:            NewID(),
		ReservationID: r.ID,
		From:          from,
		To:            to,
		CreatedAt:     now,
	}, nil
}
