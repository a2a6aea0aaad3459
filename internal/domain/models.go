// Package domain holds the records of the reservation service and the rules
// that govern how they change.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePlayer Role = "player"
	RoleField  Role = "field"
)

func (r Role) Valid() bool {
	return r == RolePlayer || r == RoleField
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"` // player|field
	CreatedAt time.Time `json:"created_at"`
}

type Player struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Photo     string    `json:"photo"`
	Exp       int       `json:"exp"`
	History   []string  `json:"history"` // ended reservation ids
	CreatedAt time.Time `json:"created_at"`
}

// Award credits the player for an ended reservation.
func (p *Player) Award(exp int, reservationID string) {
	p.Exp += exp
	p.History = append(p.History, reservationID)
}

type Field struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Tags      []Tag      `json:"tags"`
	Photos    []string   `json:"photos"`
	Schedules []Schedule `json:"schedules"`
	CreatedAt time.Time  `json:"created_at"`
}

// Tag is a sport offered by a field together with its player capacity.
type Tag struct {
	Name  string `json:"name"`
	Limit int    `json:"limit"`
}

// Schedule is a time slot offered by a field. A schedule without Date
// recurs every day.
type Schedule struct {
	ID    string `json:"id"`
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
	Date  string `json:"date,omitempty"`
}

type ReservationType string

const (
	Casual      ReservationType = "casual"
	Competitive ReservationType = "competitive"
)

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusPlaying  Status = "playing"
	StatusEnded    Status = "ended"
)

type Reservation struct {
	ID        string          `json:"id"`
	FieldID   string          `json:"field_id"`
	Date      string          `json:"date"`
	Schedule  Schedule        `json:"schedule"`
	Tag       Tag             `json:"tag"`
	Type      ReservationType `json:"type"`   // casual|competitive
	Status    Status          `json:"status"` // upcoming|playing|ended
	Players   []string        `json:"players"`
	Score     string          `json:"score,omitempty"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Friend is an undirected relationship between two players. Requester is
// the player who asked.
type Friend struct {
	ID        string    `json:"id"`
	Requester string    `json:"requester"`
	Addressee string    `json:"addressee"`
	Pending   bool      `json:"pending"`
	CreatedAt time.Time `json:"created_at"`
}

type Invite struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether s looks like an identifier produced by NewID.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
