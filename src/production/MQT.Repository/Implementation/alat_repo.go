package implementation

import (
	"context"
	"database/sql"

	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
)

type SQLAlatRepository struct {
	db *sql.DB
}

func NewSQLAlatRepository(db *sql.DB) *SQLAlatRepository {
	return &SQLAlatRepository{db: db}
}

// Create alat. The primary key on idalat is the authoritative uniqueness check.
func (r *SQLAlatRepository) Create(ctx context.Context, alat hardware_models.Alat) error {
	query := `
		INSERT INTO dataalat (idalat, username, nama_anak, usia, jeniskelamin)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, alat.IDAlat, alat.Username, alat.NamaAnak, alat.Usia, string(alat.JenisKelamin))
	return translateWriteError(err)
}

func (r *SQLAlatRepository) Exists(ctx context.Context, idalat string) (bool, error) {
	query := `SELECT 1 FROM dataalat WHERE idalat = $1`

	var one int
	err := r.db.QueryRowContext(ctx, query, idalat).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *SQLAlatRepository) ListByOwner(ctx context.Context, username string) ([]hardware_models.AlatSummary, error) {
	query := `SELECT nama_anak, idalat FROM dataalat WHERE username = $1 ORDER BY idalat`

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alat := make([]hardware_models.AlatSummary, 0)
	for rows.Next() {
		var a hardware_models.AlatSummary
		if err := rows.Scan(&a.NamaAnak, &a.IDAlat); err != nil {
			return nil, err
		}
		alat = append(alat, a)
	}

	return alat, rows.Err()
}
