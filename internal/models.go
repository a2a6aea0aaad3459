package internal

import (
	"time"

	"fieldbook/internal/domain"
)

// friendView is a relationship as seen by one of its players.
type friendView struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	Pending   bool      `json:"pending"`
	Outgoing  bool      `json:"outgoing"` // the viewer sent the request
	CreatedAt time.Time `json:"created_at"`
}

func newFriendView(f domain.Friend, viewer string) friendView {
	return friendView{
		ID:        f.ID,
		PlayerID:  f.Other(viewer),
		Pending:   f.Pending,
		Outgoing:  f.Requester == viewer,
		CreatedAt: f.CreatedAt,
	}
}

func friendViews(fs []domain.Friend, viewer string) []friendView {
	out := make([]friendView, 0, len(fs))
	for _, f := range fs {
		out = append(out, newFriendView(f, viewer))
	}
	return out
}

// reservationViews reports each reservation with its status at t.
func reservationViews(rs []domain.Reservation, t time.Time) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(rs))
	for i := range rs {
		out = append(out, rs[i].View(t))
	}
	return out
}

type playerUpdate struct {
	Name  *string `json:"name"`
	Photo *string `json:"photo"`
}

type fieldUpdate struct {
	Name    *string   `json:"name"`
	Address *string   `json:"address"`
	Lat     *float64  `json:"lat"`
	Lng     *float64  `json:"lng"`
	Photos  *[]string `json:"photos"`
}

type playerRef struct {
	PlayerID string `json:"player_id" binding:"required"`
}

type scoreRequest struct {
	Score string `json:"score" binding:"required"`
}

type reservationRequest struct {
	FieldID string `json:"field_id" binding:"required"`
	domain.NewReservationParams
}
