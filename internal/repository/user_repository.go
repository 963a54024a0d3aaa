package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/asucbc/cbc-api/pkg/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Querier is the subset of pgxpool.Pool the repository needs
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository records members who sign in with Google
type UserRepository struct {
	db Querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

const upsertUserSQL = `
INSERT INTO users (id, google_subject, email, email_verified, name, picture)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (google_subject) DO UPDATE SET
    email          = EXCLUDED.email,
    email_verified = EXCLUDED.email_verified,
    name           = EXCLUDED.name,
    picture        = EXCLUDED.picture,
    updated_at     = NOW(),
    last_login_at  = NOW()
RETURNING id, google_subject, email, email_verified, name, picture, created_at, last_login_at`

// UpsertFromGoogle creates the member on first sign-in and refreshes the
// profile on later ones. The Google subject is the stable key.
func (r *UserRepository) UpsertFromGoogle(ctx context.Context, gu *models.GoogleUser) (*models.User, error) {
	start := time.Now()

	var u models.User
	err := r.db.QueryRow(ctx, upsertUserSQL,
		uuid.NewString(), gu.Subject, gu.Email, gu.EmailVerified, gu.Name, gu.Picture,
	).Scan(&u.ID, &u.GoogleSubject, &u.Email, &u.EmailVerified, &u.Name, &u.Picture, &u.CreatedAt, &u.LastLoginAt)

	duration := metrics.MeasureDuration(start)
	if err != nil {
		metrics.DatabaseQueryDuration.WithLabelValues("upsert_user", "error").Observe(duration)
		logger.Error("Failed to upsert user", zap.Error(err))
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	metrics.DatabaseQueryDuration.WithLabelValues("upsert_user", "success").Observe(duration)

	return &u, nil
}
