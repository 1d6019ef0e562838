package repository

import (
	"context"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
)

type TherapistProfileRepository struct {
	db DBTX
}

func NewTherapistProfileRepository(db DBTX) *TherapistProfileRepository {
	return &TherapistProfileRepository{db: db}
}

// Upsert writes the profile keyed by user id, replacing an existing row's
// fields. Used by the seeder and safe to re-run.
func (r *TherapistProfileRepository) Upsert(ctx context.Context, profile *models.TherapistProfile) error {
	query := `
		INSERT INTO therapist_profiles
			(user_id, full_name, avatar_url, bio, specializations, experience_years, session_fee, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			avatar_url = EXCLUDED.avatar_url,
			bio = EXCLUDED.bio,
			specializations = EXCLUDED.specializations,
			experience_years = EXCLUDED.experience_years,
			session_fee = EXCLUDED.session_fee,
			is_verified = EXCLUDED.is_verified,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		profile.UserID,
		profile.FullName,
		profile.AvatarURL,
		profile.Bio,
		profile.Specializations,
		profile.ExperienceYears,
		profile.SessionFee,
		profile.IsVerified,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *TherapistProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.TherapistProfile, error) {
	query := `
		SELECT id, user_id, full_name, avatar_url, bio, specializations,
			   experience_years, session_fee, is_verified, created_at, updated_at
		FROM therapist_profiles
		WHERE user_id = $1
	`
	var profile models.TherapistProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.Specializations,
		&profile.ExperienceYears,
		&profile.SessionFee,
		&profile.IsVerified,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
