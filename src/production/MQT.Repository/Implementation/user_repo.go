package implementation

import (
	"context"
	"database/sql"
	"errors"

	auth_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/auth"
	interfaces "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Interfaces"
)

type SQLUserRepository struct {
	db *sql.DB
}

func NewSQLUserRepository(db *sql.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

// Create user
func (r *SQLUserRepository) Create(ctx context.Context, user *auth_models.User) error {
	query := `INSERT INTO userdata (username, email, no_telp, password) VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.NoTelp, user.Password)
	return translateWriteError(err)
}

func (r *SQLUserRepository) GetByEmail(ctx context.Context, email string) (*auth_models.User, error) {
	query := `SELECT username, email, no_telp, password FROM userdata WHERE email = $1`

	var user auth_models.User
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.Username, &user.Email, &user.NoTelp, &user.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}
