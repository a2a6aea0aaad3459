package domain

import (
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"fieldbook/internal/apperr"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"

	earthRadiusKm = 6371.0
)

func ValidateTag(t Tag) error {
	if strings.TrimSpace(t.Name) == "" || t.Limit < 1 {
		return apperr.New(apperr.InvalidInput)
	}
	return nil
}

func ValidateSchedule(s Schedule) error {
	start, err := time.Parse(clockLayout, s.Start)
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, err)
	}
	end, err := time.Parse(clockLayout, s.End)
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, err)
	}
	if !start.Before(end) {
		return apperr.New(apperr.InvalidInput)
	}
	if s.Date != "" {
		if err := ValidateDate(s.Date); err != nil {
			return err
		}
	}
	return nil
}

func ValidateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return apperr.Wrap(apperr.InvalidInput, err)
	}
	return nil
}

func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apperr.New(apperr.InvalidInput)
	}
	return nil
}

// AppliesOn reports whether the slot is offered on date.
func (s Schedule) AppliesOn(date string) bool {
	return s.Date == "" || s.Date == date
}

// Window returns the slot's start and end on date, in loc.
func (s Schedule) Window(date string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+s.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+s.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (f *Field) FindTag(name string) (Tag, bool) {
	for _, t := range f.Tags {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Tag{}, false
}

func (f *Field) FindSchedule(id string) (Schedule, bool) {
	for _, s := range f.Schedules {
		if s.ID == id {
			return s, true
		}
	}
	return Schedule{}, false
}

// AddTag adds t, replacing the limit of an existing tag with the same name.
func (f *Field) AddTag(t Tag) error {
	t.Name = strings.TrimSpace(t.Name)
	if err := ValidateTag(t); err != nil {
		return err
	}
	for i := range f.Tags {
		if strings.EqualFold(f.Tags[i].Name, t.Name) {
			f.Tags[i].Limit = t.Limit
			return nil
		}
	}
	f.Tags = append(f.Tags, t)
	return nil
}

func (f *Field) RemoveTag(name string) error {
	for i, t := range f.Tags {
		if strings.EqualFold(t.Name, name) {
			f.Tags = slices.Delete(f.Tags, i, i+1)
			return nil
		}
	}
	return apperr.New(apperr.DataNotFound)
}

// AddSchedule validates s, assigns it an id and appends it.
func (f *Field) AddSchedule(s Schedule) (Schedule, error) {
	if err := ValidateSchedule(s); err != nil {
		return Schedule{}, err
	}
	s.ID = NewID()
	f.Schedules = append(f.Schedules, s)
	return s, nil
}

func (f *Field) RemoveSchedule(id string) error {
	for i, s := range f.Schedules {
		if s.ID == id {
			f.Schedules = slices.Delete(f.Schedules, i, i+1)
			return nil
		}
	}
	return apperr.New(apperr.DataNotFound)
}

// AvailableSchedules lists the slots offered on date that no active
// reservation in taken holds.
func (f *Field) AvailableSchedules(date string, taken []Reservation) []Schedule {
	held := map[string]bool{}
	for _, r := range taken {
		if r.Date == date && r.Status != StatusEnded {
			held[r.Schedule.ID] = true
		}
	}
	out := []Schedule{}
	for _, s := range f.Schedules {
		if s.AppliesOn(date) && !held[s.ID] {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Distance is the great-circle distance in kilometres.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// FieldDistance pairs a field with its distance from a search position.
type FieldDistance struct {
	Field
	DistanceKm float64 `json:"distance_km"`
}

// Nearby keeps the fields within radiusKm of (lat, lng), closest first.
// A non-positive radius keeps every field.
func Nearby(fields []Field, lat, lng, radiusKm float64) []FieldDistance {
	out := []FieldDistance{}
	for _, f := range fields {
		d := Distance(lat, lng, f.Lat, f.Lng)
		if radiusKm > 0 && d > radiusKm {
			continue
		}
		out = append(out, FieldDistance{Field: f, DistanceKm: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}
