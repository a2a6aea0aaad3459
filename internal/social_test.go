package internal

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"fieldbook/internal/domain"
)

func TestFriendRequests(t *testing.T) {
	h := newHarness(t)
	a := h.signup("alice", domain.RolePlayer)
	b := h.signup("bob", domain.RolePlayer)

	var fv friendView
	h.must(http.StatusCreated, "POST", "/api/friends/"+b.ProfileID, a.Token, nil, &fv)
	if !fv.Pending || !fv.Outgoing || fv.PlayerID != b.ProfileID {
		t.Fatalf("request = %+v", fv)
	}

	h.wantError(h.do("POST", "/api/friends/"+b.ProfileID, a.Token, nil), http.StatusConflict, "Friend request already exists.")
	h.wantError(h.do("POST", "/api/friends/"+a.ProfileID, b.Token, nil), http.StatusConflict, "Friend request already exists.")
	h.wantError(h.do("POST", "/api/friends/"+a.ProfileID, a.Token, nil), http.StatusBadRequest, "Cannot target yourself.")
	h.wantError(h.do("POST", "/api/friends/"+domain.NewID(), a.Token, nil), http.StatusNotFound, "Data not found.")

	var reqs []friendView
	h.must(http.StatusOK, "GET", "/api/friends/requests", b.Token, nil, &reqs)
	if len(reqs) != 1 || reqs[0].PlayerID != a.ProfileID || reqs[0].Outgoing {
		t.Fatalf("requests = %+v", reqs)
	}

	h.wantError(h.do("POST", "/api/friends/"+b.ProfileID+"/accept", a.Token, nil), http.StatusForbidden, "Forbidden.")
	h.must(http.StatusOK, "POST", "/api/friends/"+a.ProfileID+"/accept", b.Token, nil, &fv)
	if fv.Pending {
		t.Fatal("still pending after accept")
	}
	h.wantError(h.do("POST", "/api/friends/"+a.ProfileID+"/accept", b.Token, nil), http.StatusConflict, "Friend request is not pending.")

	var friends []friendView
	h.must(http.StatusOK, "GET", "/api/friends", a.Token, nil, &friends)
	if len(friends) != 1 || friends[0].PlayerID != b.ProfileID {
		t.Fatalf("friends = %+v", friends)
	}

	h.must(http.StatusOK, "DELETE", "/api/friends/"+a.ProfileID, b.Token, nil, nil)
	h.must(http.StatusOK, "GET", "/api/friends", a.Token, nil, &friends)
	if len(friends) != 0 {
		t.Fatalf("friends after remove = %+v", friends)
	}
	h.wantError(h.do("DELETE", "/api/friends/"+a.ProfileID, b.Token, nil), http.StatusNotFound, "Data not found.")

	// a removed friendship can be requested again
	h.must(http.StatusCreated, "POST", "/api/friends/"+a.ProfileID, b.Token, nil, nil)
}

func TestInvites(t *testing.T) {
	h := newHarness(t)
	owner, sched := h.venue("arena")
	a := h.signup("alice", domain.RolePlayer)
	b := h.signup("bob", domain.RolePlayer)
	c := h.signup("carol", domain.RolePlayer)

	r := h.reserve(a, owner.ProfileID, sched, domain.Casual)
	path := "/api/reservations/" + r.ID + "/invite"

	h.wantError(h.do("POST", path, a.Token, gin.H{"player_id": a.ProfileID}), http.StatusBadRequest, "Cannot target yourself.")
	h.wantError(h.do("POST", path, b.Token, gin.H{"player_id": c.ProfileID}), http.StatusForbidden, "Forbidden.")
	h.wantError(h.do("POST", path, a.Token, gin.H{}), http.StatusBadRequest, "Invalid input.")

	var inv domain.Invite
	h.must(http.StatusCreated, "POST", path, a.Token, gin.H{"player_id": b.ProfileID}, &inv)
	if inv.From != a.ProfileID || inv.To != b.ProfileID || inv.ReservationID != r.ID {
		t.Fatalf("invite = %+v", inv)
	}
	h.wantError(h.do("POST", path, a.Token, gin.H{"player_id": b.ProfileID}), http.StatusConflict, "Invite already exists.")

	var mine []domain.Invite
	h.must(http.StatusOK, "GET", "/api/invites", b.Token, nil, &mine)
	if len(mine) != 1 || mine[0].ID != inv.ID {
		t.Fatalf("invites = %+v", mine)
	}

	h.wantError(h.do("POST", "/api/invites/"+inv.ID+"/accept", c.Token, nil), http.StatusForbidden, "Forbidden.")

	h.must(http.StatusOK, "POST", "/api/invites/"+inv.ID+"/accept", b.Token, nil, &r)
	if !r.Has(b.ProfileID) {
		t.Fatalf("bob not joined: %v", r.Players)
	}
	h.must(http.StatusOK, "GET", "/api/invites", b.Token, nil, &mine)
	if len(mine) != 0 {
		t.Fatalf("invite not consumed: %+v", mine)
	}

	// the reservation is full now
	h.wantError(h.do("POST", path, a.Token, gin.H{"player_id": c.ProfileID}), http.StatusConflict, "Reservation full.")
}

func TestDeclineInvite(t *testing.T) {
	h := newHarness(t)
	owner, sched := h.venue("arena")
	a := h.signup("alice", domain.RolePlayer)
	b := h.signup("bob", domain.RolePlayer)

	r := h.reserve(a, owner.ProfileID, sched, domain.Casual)
	var inv domain.Invite
	h.must(http.StatusCreated, "POST", "/api/reservations/"+r.ID+"/invite", a.Token, gin.H{"player_id": b.ProfileID}, &inv)

	h.wantError(h.do("DELETE", "/api/invites/"+inv.ID, a.Token, nil), http.StatusForbidden, "Forbidden.")
	h.must(http.StatusOK, "DELETE", "/api/invites/"+inv.ID, b.Token, nil, nil)
	h.wantError(h.do("POST", "/api/invites/"+inv.ID+"/accept", b.Token, nil), http.StatusNotFound, "Data not found.")

	got, err := h.db.Reservation(t.Context(), r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Has(b.ProfileID) {
		t.Fatal("declined invite joined the reservation")
	}
	if !h.db.hasAction("decline_invite") {
		t.Fatalf("audit = %v", h.db.actions())
	}
}

func TestFailedAcceptKeepsInviteAndSeat(t *testing.T) {
	h := newHarness(t)
	owner, sched := h.venue("arena")
	a := h.signup("alice", domain.RolePlayer)
	b := h.signup("bob", domain.RolePlayer)

	r := h.reserve(a, owner.ProfileID, sched, domain.Casual)
	var inv domain.Invite
	h.must(http.StatusCreated, "POST", "/api/reservations/"+r.ID+"/invite", a.Token, gin.H{"player_id": b.ProfileID}, &inv)

	h.db.acceptErr = errors.New("connection reset")
	h.wantError(h.do("POST", "/api/invites/"+inv.ID+"/accept", b.Token, nil), http.StatusInternalServerError, "Internal server error.")

	h.must(http.StatusOK, "GET", "/api/reservations/"+r.ID, a.Token, nil, &r)
	if r.Has(b.ProfileID) {
		t.Fatalf("bob joined despite failed accept: %v", r.Players)
	}
	var mine []domain.Invite
	h.must(http.StatusOK, "GET", "/api/invites", b.Token, nil, &mine)
	if len(mine) != 1 {
		t.Fatalf("invite lost: %v", mine)
	}

	h.db.acceptErr = nil
	h.must(http.StatusOK, "POST", "/api/invites/"+inv.ID+"/accept", b.Token, nil, &r)
	if !r.Has(b.ProfileID) {
		t.Fatalf("retry did not join: %v", r.Players)
	}
}
