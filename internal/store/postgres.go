package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sportlog/backend/internal/models"
)

// PostgresActivities is the relational ActivityStore.
type PostgresActivities struct {
	db *sql.DB
}

func NewPostgresActivities(db *sql.DB) *PostgresActivities {
	return &PostgresActivities{db: db}
}

const activityColumns = `id, owner_id, date, sport, duration_minutes, intensity, notes, photo_url, is_public, created_at, updated_at`

func scanActivity(row interface{ Scan(...interface{}) error }, withOwnerName bool) (*models.Activity, error) {
	var a models.Activity
	var date time.Time
	dest := []interface{}{
		&a.ID, &a.OwnerID, &date, &a.Sport, &a.DurationMinutes,
		&a.Intensity, &a.Notes, &a.PhotoURL, &a.IsPublic,
		&a.CreatedAt, &a.UpdatedAt,
	}
	if withOwnerName {
		dest = append(dest, &a.OwnerName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	// DATE comes back as midnight in some driver-chosen location; keep
	// only the calendar day.
	a.Date = date.Format(models.DateLayout)
	return &a, nil
}

func (s *PostgresActivities) Create(ctx context.Context, ownerID uuid.UUID, in ActivityInput) (*models.Activity, error) {
	if err := ValidateActivityInput(&in); err != nil {
		return nil, err
	}

	id := uuid.New()
	now := time.Now().UTC()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO activities (id, owner_id, date, sport, duration_minutes, intensity, notes, photo_url, is_public, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING `+activityColumns,
		id, ownerID, in.Date, in.Sport, in.DurationMinutes, in.Intensity, in.Notes, in.PhotoURL, in.IsPublic, now)

	return scanActivity(row, false)
}

func (s *PostgresActivities) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.owner_id, a.date, a.sport, a.duration_minutes, a.intensity, a.notes, a.photo_url, a.is_public, a.created_at, a.updated_at, u.display_name
		FROM activities a
		JOIN users u ON a.owner_id = u.id
		WHERE a.owner_id = $1
		ORDER BY a.created_at DESC, a.id DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActivities(rows)
}

func (s *PostgresActivities) ListPublic(ctx context.Context) ([]models.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.owner_id, a.date, a.sport, a.duration_minutes, a.intensity, a.notes, a.photo_url, a.is_public, a.created_at, a.updated_at, u.display_name
		FROM activities a
		JOIN users u ON a.owner_id = u.id
		WHERE a.is_public = TRUE
		ORDER BY a.created_at DESC, a.id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActivities(rows)
}

func collectActivities(rows *sql.Rows) ([]models.Activity, error) {
	activities := make([]models.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows, true)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (s *PostgresActivities) Update(ctx context.Context, ownerID, id uuid.UUID, upd ActivityUpdate) (*models.Activity, string, error) {
	if err := ValidateActivityUpdate(&upd); err != nil {
		return nil, "", err
	}

	// Read the current row first so unspecified fields retain their
	// values. Concurrent writers race at the row level; last write wins.
	row := s.db.QueryRowContext(ctx, `
		SELECT `+activityColumns+` FROM activities WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	current, err := scanActivity(row, false)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}

	merged := mergeActivityUpdate(current, upd)

	replacedPhoto := ""
	if upd.PhotoURL != nil && current.PhotoURL != "" && current.PhotoURL != *upd.PhotoURL {
		replacedPhoto = current.PhotoURL
	}

	row = s.db.QueryRowContext(ctx, `
		UPDATE activities SET
			date = $1::date,
			sport = $2,
			duration_minutes = $3,
			intensity = $4,
			notes = $5,
			photo_url = $6,
			is_public = $7,
			updated_at = $8
		WHERE id = $9 AND owner_id = $10
		RETURNING `+activityColumns,
		merged.Date, merged.Sport, merged.DurationMinutes, merged.Intensity,
		merged.Notes, merged.PhotoURL, merged.IsPublic, time.Now().UTC(), id, ownerID)

	updated, err := scanActivity(row, false)
	if err == sql.ErrNoRows {
		// Deleted between the read and the write.
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return updated, replacedPhoto, nil
}

func mergeActivityUpdate(current *models.Activity, upd ActivityUpdate) models.Activity {
	merged := *current
	if upd.Date != nil {
		merged.Date = *upd.Date
	}
	if upd.Sport != nil {
		merged.Sport = *upd.Sport
	}
	if upd.DurationMinutes != nil {
		merged.DurationMinutes = *upd.DurationMinutes
	}
	if upd.Intensity != nil {
		merged.Intensity = *upd.Intensity
	}
	if upd.Notes != nil {
		merged.Notes = *upd.Notes
	}
	if upd.PhotoURL != nil {
		merged.PhotoURL = *upd.PhotoURL
	}
	if upd.IsPublic != nil {
		merged.IsPublic = *upd.IsPublic
	}
	return merged
}

func (s *PostgresActivities) Delete(ctx context.Context, ownerID, id uuid.UUID) (string, error) {
	var photoURL string
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM activities WHERE id = $1 AND owner_id = $2 RETURNING photo_url
	`, id, ownerID).Scan(&photoURL)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return photoURL, nil
}

// CountSince runs the feed aggregation as a single grouped query instead of
// one query per owner.
func (s *PostgresActivities) CountSince(ctx context.Context, ownerIDs []uuid.UUID, weekStart, monthStart time.Time) (map[uuid.UUID]Counts, error) {
	result := make(map[uuid.UUID]Counts, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(ownerIDs))
	for _, id := range ownerIDs {
		ids = append(ids, id.String())
	}

	weekDate := weekStart.Format(models.DateLayout)
	monthDate := monthStart.Format(models.DateLayout)

	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id,
		       COUNT(*) FILTER (WHERE date >= $2::date) AS weekly,
		       COUNT(*) FILTER (WHERE date >= $3::date) AS monthly
		FROM activities
		WHERE owner_id = ANY($1)
		  AND date >= LEAST($2::date, $3::date)
		GROUP BY owner_id
	`, pq.Array(ids), weekDate, monthDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ownerID uuid.UUID
		var c Counts
		if err := rows.Scan(&ownerID, &c.WeeklyCount, &c.MonthlyCount); err != nil {
			return nil, err
		}
		result[ownerID] = c
	}
	return result, rows.Err()
}

// PostgresGoals is the relational GoalStore.
type PostgresGoals struct {
	db *sql.DB
}

func NewPostgresGoals(db *sql.DB) *PostgresGoals {
	return &PostgresGoals{db: db}
}

func (s *PostgresGoals) Get(ctx context.Context, userID uuid.UUID) (models.Goal, error) {
	var g models.Goal
	err := s.db.QueryRowContext(ctx, `
		SELECT weekly_goal, monthly_goal FROM goals WHERE user_id = $1
	`, userID).Scan(&g.WeeklyGoal, &g.MonthlyGoal)
	if err == sql.ErrNoRows {
		return models.DefaultGoal(), nil
	}
	if err != nil {
		return models.Goal{}, err
	}
	g.IsSet = true
	return g, nil
}

func (s *PostgresGoals) Set(ctx context.Context, userID uuid.UUID, weeklyGoal, monthlyGoal int) (models.Goal, error) {
	if err := ValidateGoalBounds(weeklyGoal, monthlyGoal); err != nil {
		return models.Goal{}, err
	}

	// Native upsert so concurrent Set calls for the same user cannot
	// create a second row or lose an update.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, weekly_goal, monthly_goal, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			weekly_goal = EXCLUDED.weekly_goal,
			monthly_goal = EXCLUDED.monthly_goal,
			updated_at = NOW()
	`, userID, weeklyGoal, monthlyGoal)
	if err != nil {
		return models.Goal{}, err
	}

	return models.Goal{WeeklyGoal: weeklyGoal, MonthlyGoal: monthlyGoal, IsSet: true}, nil
}
