package models

import "time"

type TherapistProfile struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	FullName        *string   `json:"full_name"`
	AvatarURL       *string   `json:"avatar_url"`
	Bio             *string   `json:"bio"`
	Specializations *[]string `json:"specializations"`
	ExperienceYears *int      `json:"experience_years"`
	SessionFee      *float64  `json:"session_fee"`
	IsVerified      *bool     `json:"is_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
