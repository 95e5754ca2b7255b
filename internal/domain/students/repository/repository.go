package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schooldesk/mcq-bot/internal/domain/model"
)

// StudentRepository — доступ к локальным привязкам Telegram → ученик.
type StudentRepository struct {
	db *pgxpool.Pool
}

// NewStudentRepository создает новый экземпляр StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, telegram_id, telegram_username, full_name, backend_id, class_id, role, api_token, created_at, updated_at`

// GetByTelegramID возвращает активированную привязку по Telegram ID.
func (r *StudentRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Student, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE telegram_id = $1`, telegramID)

	student, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get student by telegram id: %w", err)
	}
	return student, nil
}

// GetPendingByUsername возвращает заведённую заранее, но ещё не
// активированную привязку (telegram_id IS NULL).
func (r *StudentRepository) GetPendingByUsername(ctx context.Context, username string) (*model.Student, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE telegram_username = $1 AND telegram_id IS NULL`, username)

	student, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending student: %w", err)
	}
	return student, nil
}

// CreatePending заводит привязку по username до первого входа пользователя.
func (r *StudentRepository) CreatePending(ctx context.Context, s *model.Student) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
                INSERT INTO students (telegram_username, full_name, backend_id, class_id, role, api_token, created_at, updated_at)
                VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
                RETURNING id
        `, s.TelegramUsername, s.FullName, s.BackendID, s.ClassID, s.Role, s.APIToken).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create pending student: %w", err)
	}
	return id, nil
}

// Activate проставляет telegram_id отложенной привязке при первом /start.
func (r *StudentRepository) Activate(ctx context.Context, id, telegramID int64) error {
	tag, err := r.db.Exec(ctx, `
                UPDATE students
                SET telegram_id = $1, updated_at = CURRENT_TIMESTAMP
                WHERE id = $2 AND telegram_id IS NULL
        `, telegramID, id)
	if err != nil {
		return fmt.Errorf("failed to activate student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no pending student with id %d", id)
	}
	return nil
}

// UpdateToken обновляет токен доступа к бэкенду (перевыпуск школой).
func (r *StudentRepository) UpdateToken(ctx context.Context, id int64, token string) error {
	_, err := r.db.Exec(ctx, `
                UPDATE students
                SET api_token = $1, updated_at = CURRENT_TIMESTAMP
                WHERE id = $2
        `, token, id)
	if err != nil {
		return fmt.Errorf("failed to update token: %w", err)
	}
	return nil
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	var s model.Student
	err := row.Scan(
		&s.ID,
		&s.TelegramID,
		&s.TelegramUsername,
		&s.FullName,
		&s.BackendID,
		&s.ClassID,
		&s.Role,
		&s.APIToken,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
