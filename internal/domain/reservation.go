package domain

import (
	"regexp"
	"slices"
	"time"

	"fieldbook/internal/apperr"
)

var scorePattern = regexp.MustCompile(`^\d+\|\d+$`)

// NewReservationParams is what a player submits to reserve a slot.
type NewReservationParams struct {
	Date       string          `json:"date"`
	ScheduleID string          `json:"schedule_id"`
	Tag        string          `json:"tag"`
	Type       ReservationType `json:"type"`
}

// NewReservation builds an upcoming reservation on field with creator as its
// only player. taken holds the field's reservations on the same date; the
// slot must not be held by one that has not ended. A slot that is already
// over at now cannot be reserved.
func NewReservation(field *Field, creator string, p NewReservationParams, taken []Reservation, now time.Time) (*Reservation, error) {
	if p.Type != Casual && p.Type != Competitive {
		return nil, apperr.New(apperr.InvalidInput)
	}
	if err := ValidateDate(p.Date); err != nil {
		return nil, err
	}
	tag, ok := field.FindTag(p.Tag)
	if !ok {
		return nil, apperr.New(apperr.InvalidInput)
	}
	sched, ok := field.FindSchedule(p.ScheduleID)
	if !ok || !sched.AppliesOn(p.Date) {
		return nil, apperr.New(apperr.InvalidInput)
	}
	_, end, err := sched.Window(p.Date, now.Location())
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, err)
	}
	if !now.Before(end) {
		return nil, apperr.New(apperr.InvalidInput)
	}
	for _, r := range taken {
		if r.FieldID == field.ID && r.Date == p.Date && r.Schedule.ID == sched.ID && r.Status != StatusEnded {
			return nil, apperr.New(apperr.SlotTaken)
		}
	}

	return &Reservation{
		ID:        NewID(),
		FieldID:   field.ID,
		Date:      p.Date,
		Schedule:  sched,
		Tag:       tag,
		Type:      p.Type,
		Status:    StatusUpcoming,
		Players:   []string{creator},
		CreatedBy: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *Reservation) Has(playerID string) bool {
	return slices.Contains(r.Players, playerID)
}

func (r *Reservation) Full() bool {
	return len(r.Players) >= r.Tag.Limit
}

func (r *Reservation) Empty() bool {
	return len(r.Players) == 0
}

func (r *Reservation) Ended() bool {
	return r.Status == StatusEnded
}

func (r *Reservation) Join(playerID string) error {
	switch {
	case r.Ended():
		return apperr.New(apperr.AlreadyEnded)
	case r.Has(playerID):
		return apperr.New(apperr.AlreadyJoined)
	case r.Full():
		return apperr.New(apperr.AlreadyFull)
	}
	r.Players = append(r.Players, playerID)
	return nil
}

// Leave removes playerID. The caller deletes the reservation when it is
// left empty.
func (r *Reservation) Leave(playerID string) error {
	if r.Ended() {
		return apperr.New(apperr.AlreadyEnded)
	}
	return r.remove(playerID)
}

// Kick removes playerID on behalf of the owner of fieldID.
func (r *Reservation) Kick(fieldID, playerID string) error {
	if err := r.owned(fieldID); err != nil {
		return err
	}
	if r.Ended() {
		return apperr.New(apperr.AlreadyEnded)
	}
	return r.remove(playerID)
}

// SetScore records the result of a competitive game and ends it.
func (r *Reservation) SetScore(fieldID, score string) error {
	if err := r.owned(fieldID); err != nil {
		return err
	}
	if r.Type != Competitive {
		return apperr.New(apperr.NotCompetitive)
	}
	if r.Ended() {
		return apperr.New(apperr.AlreadyEnded)
	}
	if !scorePattern.MatchString(score) {
		return apperr.New(apperr.InvalidScore)
	}
	r.Score = score
	r.Status = StatusEnded
	return nil
}

// End closes a casual game. Competitive games end through SetScore.
func (r *Reservation) End(fieldID string) error {
	if err := r.owned(fieldID); err != nil {
		return err
	}
	if r.Ended() {
		return apperr.New(apperr.AlreadyEnded)
	}
	if r.Type == Competitive {
		return apperr.New(apperr.NotCasual)
	}
	r.Status = StatusEnded
	return nil
}

// CheckDelete reports whether the owner of fieldID may delete r.
func (r *Reservation) CheckDelete(fieldID string) error {
	if err := r.owned(fieldID); err != nil {
		return err
	}
	if r.Ended() {
		return apperr.New(apperr.AlreadyEnded)
	}
	return nil
}

// EffectiveStatus reports playing for an upcoming reservation whose slot
// contains now. Date and times are read in now's location.
func (r *Reservation) EffectiveStatus(now time.Time) Status {
	if r.Status != StatusUpcoming {
		return r.Status
	}
	start, end, err := r.Schedule.Window(r.Date, now.Location())
	if err != nil {
		return r.Status
	}
	if !now.Before(start) && now.Before(end) {
		return StatusPlaying
	}
	return r.Status
}

// View returns a copy of r with the status it has at now.
func (r *Reservation) View(now time.Time) Reservation {
	v := *r
	v.Status = r.EffectiveStatus(now)
	v.Players = slices.Clone(r.Players)
	return v
}

func (r *Reservation) owned(fieldID string) error {
	if fieldID == "" || r.FieldID != fieldID {
		return apperr.New(apperr.Forbidden)
	}
	return nil
}

func (r *Reservation) remove(playerID string) error {
	i := slices.Index(r.Players, playerID)
	if i < 0 {
		return apperr.New(apperr.NotJoined)
	}
	r.Players = slices.Delete(r.Players, i, i+1)
	return nil
}
