package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sportlog/backend/internal/models"
)

// PostgresUsers is the relational UserStore.
type PostgresUsers struct {
	db *sql.DB
}

func NewPostgresUsers(db *sql.DB) *PostgresUsers {
	return &PostgresUsers{db: db}
}

func (s *PostgresUsers) Create(ctx context.Context, username, displayName, passwordHash string) (*models.User, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))
	`, username).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicate
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Username, user.DisplayName, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}

func (s *PostgresUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, display_name, password_hash, created_at FROM users WHERE LOWER(username) = LOWER($1)`, username)
}

func (s *PostgresUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, display_name, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresUsers) getUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// PostgresFriends is the relational FriendStore. Friendships store each pair
// once with user_a < user_b (lexicographic uuid order).
type PostgresFriends struct {
	db *sql.DB
}

func NewPostgresFriends(db *sql.DB) *PostgresFriends {
	return &PostgresFriends{db: db}
}

func orderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() < b.String() {
		return a, b
	}
	return b, a
}

func (s *PostgresFriends) CreateRequest(ctx context.Context, fromUserID, toUserID uuid.UUID) (*models.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, Validationf("username", "You cannot send a friend request to yourself.")
	}

	// Blocked either way means the request is refused outright.
	blocked, err := s.blockedBetween(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrNotFound
	}

	ua, ub := orderPair(fromUserID, toUserID)
	var alreadyFriends bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM friendships WHERE user_a = $1 AND user_b = $2)
	`, ua, ub).Scan(&alreadyFriends); err != nil {
		return nil, err
	}
	if alreadyFriends {
		return nil, ErrDuplicate
	}

	var pending bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE (from_user_id = $1 AND to_user_id = $2)
			   OR (from_user_id = $2 AND to_user_id = $1)
		)
	`, fromUserID, toUserID).Scan(&pending); err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicate
	}

	req := &models.FriendRequest{
		ID:         uuid.New(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO friend_requests (id, from_user_id, to_user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (from_user_id, to_user_id) DO NOTHING
	`, req.ID, req.FromUserID, req.ToUserID, req.CreatedAt)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *PostgresFriends) ListRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, []models.FriendRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.from_user_id, uf.username, r.to_user_id, ut.username, r.created_at
		FROM friend_requests r
		JOIN users uf ON r.from_user_id = uf.id
		JOIN users ut ON r.to_user_id = ut.id
		WHERE r.from_user_id = $1 OR r.to_user_id = $1
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	incoming := make([]models.FriendRequest, 0)
	outgoing := make([]models.FriendRequest, 0)
	for rows.Next() {
		var r models.FriendRequest
		if err := rows.Scan(&r.ID, &r.FromUserID, &r.FromUsername, &r.ToUserID, &r.ToUsername, &r.CreatedAt); err != nil {
			return nil, nil, err
		}
		if r.ToUserID == userID {
			incoming = append(incoming, r)
		} else {
			outgoing = append(outgoing, r)
		}
	}
	return incoming, outgoing, rows.Err()
}

func (s *PostgresFriends) AcceptRequest(ctx context.Context, requestID, recipientID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var fromUserID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		DELETE FROM friend_requests WHERE id = $1 AND to_user_id = $2 RETURNING from_user_id
	`, requestID, recipientID).Scan(&fromUserID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	ua, ub := orderPair(fromUserID, recipientID)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO friendships (id, user_a, user_b, created_at)
		VALUES (gen_random_uuid(), $1, $2, NOW())
		ON CONFLICT (user_a, user_b) DO NOTHING
	`, ua, ub)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PostgresFriends) RejectRequest(ctx context.Context, requestID, recipientID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM friend_requests WHERE id = $1 AND to_user_id = $2
	`, requestID, recipientID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresFriends) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.display_name, f.created_at
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_a = $1 THEN f.user_b ELSE f.user_a END
		WHERE f.user_a = $1 OR f.user_b = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := make([]models.Friend, 0)
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.UserID, &f.Username, &f.DisplayName, &f.Since); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

func (s *PostgresFriends) DeleteFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	ua, ub := orderPair(userID, friendID)
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM friendships WHERE user_a = $1 AND user_b = $2
	`, ua, ub)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresFriends) Block(ctx context.Context, userID, blockedUserID uuid.UUID) error {
	if userID == blockedUserID {
		return Validationf("userId", "You cannot block yourself.")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ua, ub := orderPair(userID, blockedUserID)
	if _, err = tx.ExecContext(ctx, `DELETE FROM friendships WHERE user_a = $1 AND user_b = $2`, ua, ub); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		DELETE FROM friend_requests
		WHERE (from_user_id = $1 AND to_user_id = $2)
		   OR (from_user_id = $2 AND to_user_id = $1)
	`, userID, blockedUserID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO blacklist (id, user_id, blocked_user_id, created_at)
		VALUES (gen_random_uuid(), $1, $2, NOW())
		ON CONFLICT (user_id, blocked_user_id) DO NOTHING
	`, userID, blockedUserID); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PostgresFriends) Unblock(ctx context.Context, userID, blockedUserID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM blacklist WHERE user_id = $1 AND blocked_user_id = $2
	`, userID, blockedUserID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresFriends) ListBlocked(ctx context.Context, userID uuid.UUID) ([]models.BlockedUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.display_name, b.created_at
		FROM blacklist b
		JOIN users u ON u.id = b.blocked_user_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocked := make([]models.BlockedUser, 0)
	for rows.Next() {
		var b models.BlockedUser
		if err := rows.Scan(&b.UserID, &b.Username, &b.DisplayName, &b.BlockedAt); err != nil {
			return nil, err
		}
		blocked = append(blocked, b)
	}
	return blocked, rows.Err()
}

func (s *PostgresFriends) BlockedSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT CASE WHEN user_id = $1 THEN blocked_user_id ELSE user_id END
		FROM blacklist
		WHERE user_id = $1 OR blocked_user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = true
	}
	return set, rows.Err()
}

func (s *PostgresFriends) blockedBetween(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var blocked bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM blacklist
			WHERE (user_id = $1 AND blocked_user_id = $2)
			   OR (user_id = $2 AND blocked_user_id = $1)
		)
	`, a, b).Scan(&blocked)
	return blocked, err
}
