package domain

import (
	"encoding/json"
	"time"
)

type Workout struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"-"`
	Description     string    `gorm:"size:500" json:"description"`
	WorkoutType     string    `gorm:"size:64" json:"workout_type"`
	PerformedAt     time.Time `gorm:"index" json:"performed_at"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	TotalHPEarned   int       `gorm:"not null" json:"total_hp_earned"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AccountRef is the wire shape of a reference to an owning account.
type AccountRef struct {
	ID uint `json:"id"`
}

// MarshalJSON renders the owning account as {"user":{"id":N}}.
func (w Workout) MarshalJSON() ([]byte, error) {
	type plain Workout
	return json.Marshal(struct {
		plain
		User AccountRef `json:"user"`
	}{plain: plain(w), User: AccountRef{ID: w.UserID}})
}

func (w *Workout) UnmarshalJSON(data []byte) error {
	type plain Workout
	aux := struct {
		*plain
		User *AccountRef `json:"user"`
	}{plain: (*plain)(w)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.User != nil {
		w.UserID = aux.User.ID
	}
	return nil
}
