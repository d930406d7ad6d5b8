package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	internal_errors "github.com/Camillus83/ImageUploadAPI/internal/errors"
)

// uniqueViolation is the pq error code for a unique index violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// =========================================================================
// Public Methods (satisfy the service.AuthStorage / RoleStorage interfaces)
// =========================================================================

// SaveUser creates a new user. The unique index on username reports a
// duplicate as 409 regardless of concurrent registrations.
func (s *Storage) SaveUser(user domain.User) (domain.UserId, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.saveUser(tx, user)
		return err
	})
	return id, err
}

func (s *Storage) UserByName(username string) (domain.User, error) {
	return s.userBy(s.db, "u.username = $1", username)
}

func (s *Storage) UserById(id domain.UserId) (domain.User, error) {
	return s.userBy(s.db, "u.id = $1", id)
}

func (s *Storage) Users() ([]domain.User, error) {
	rows, err := s.db.Query(`
        SELECT u.id, u.username, u.password_hash, u.active, u.created_at,
               r.id, r.name, r.thumbnail_height, r.allow_original, r.allow_expiring
        FROM users u
        LEFT JOIN roles r ON r.id = u.role_id
        ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Storage) RoleByName(name string) (domain.Role, error) {
	var role domain.Role
	err := s.db.QueryRow(`
        SELECT id, name, thumbnail_height, allow_original, allow_expiring
        FROM roles WHERE name = $1`, name,
	).Scan(&role.Id, &role.Name, &role.ThumbnailHeight, &role.AllowOriginal, &role.AllowExpiring)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Role{}, internal_errors.NewNotFound("Role not found")
		}
		return domain.Role{}, fmt.Errorf("failed to query role: %w", err)
	}
	return role, nil
}

// SaveRole creates a role. Role names carry a unique constraint.
func (s *Storage) SaveRole(role domain.Role) (domain.RoleId, error) {
	var id domain.RoleId
	err := s.db.QueryRow(`
        INSERT INTO roles(name, thumbnail_height, allow_original, allow_expiring)
        VALUES($1, $2, $3, $4) RETURNING id`,
		role.Name, role.ThumbnailHeight, role.AllowOriginal, role.AllowExpiring,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, internal_errors.NewConflict("Role with that name already exists")
		}
		return 0, fmt.Errorf("failed to insert role: %w", err)
	}
	return id, nil
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) saveUser(q Querier, user domain.User) (domain.UserId, error) {
	var roleId *domain.RoleId
	if user.Role != nil {
		roleId = &user.Role.Id
	}

	var id domain.UserId
	err := q.QueryRow(`
        INSERT INTO users(username, password_hash, role_id, active)
        VALUES($1, $2, $3, $4) RETURNING id`,
		user.Username, user.PassHash, roleId, user.Active,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, internal_errors.NewConflict("User with that username already exists")
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (s *Storage) userBy(q Querier, where string, arg interface{}) (domain.User, error) {
	row := q.QueryRow(fmt.Sprintf(`
        SELECT u.id, u.username, u.password_hash, u.active, u.created_at,
               r.id, r.name, r.thumbnail_height, r.allow_original, r.allow_expiring
        FROM users u
        LEFT JOIN roles r ON r.id = u.role_id
        WHERE %s`, where), arg)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NewNotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var user domain.User
	var roleId sql.NullInt64
	var roleName sql.NullString
	var roleHeight sql.NullInt64
	var allowOriginal, allowExpiring sql.NullBool

	err := row.Scan(&user.Id, &user.Username, &user.PassHash, &user.Active, &user.CreatedAt,
		&roleId, &roleName, &roleHeight, &allowOriginal, &allowExpiring)
	if err != nil {
		return domain.User{}, err
	}

	if roleId.Valid {
		user.Role = &domain.Role{
			Id:              roleId.Int64,
			Name:            roleName.String,
			ThumbnailHeight: int(roleHeight.Int64),
			AllowOriginal:   allowOriginal.Bool,
			AllowExpiring:   allowExpiring.Bool,
		}
	}
	return user, nil
}
