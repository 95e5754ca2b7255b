package service

import (
	"context"
	"fmt"

	"github.com/schooldesk/mcq-bot/internal/domain/model"
	"github.com/schooldesk/mcq-bot/internal/domain/students/repository"
)

// StudentService — привязка Telegram-аккаунтов к ученикам бэкенда.
// Записи заводит школа через служебный HTTP-эндпоинт; привязка
// активируется при первом /start по совпадению username.
type StudentService struct {
	repo *repository.StudentRepository
}

func NewStudentService(repo *repository.StudentRepository) *StudentService {
	return &StudentService{repo: repo}
}

// Resolve находит ученика по Telegram ID; если активированной привязки нет,
// пытается активировать отложенную по username. Возвращает nil, nil когда
// пользователь боту не известен.
func (s *StudentService) Resolve(ctx context.Context, telegramID int64, username string) (*model.Student, error) {
	const op = "students.Resolve"

	student, err := s.repo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if student != nil {
		return student, nil
	}
	if username == "" {
		return nil, nil
	}

	pending, err := s.repo.GetPendingByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if pending == nil {
		return nil, nil
	}
	if err := s.repo.Activate(ctx, pending.ID, telegramID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pending.TelegramID = &telegramID
	return pending, nil
}

// Link заводит отложенную привязку (вызывается из HTTP-обработчика).
func (s *StudentService) Link(ctx context.Context, student *model.Student) (int64, error) {
	const op = "students.Link"

	if student.TelegramUsername == "" || student.APIToken == "" {
		return 0, fmt.Errorf("%s: telegram_username и api_token обязательны", op)
	}
	if student.Role == "" {
		student.Role = model.RoleStudent
	}
	id, err := s.repo.CreatePending(ctx, student)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}
