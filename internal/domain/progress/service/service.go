package service

import (
	"context"
	"fmt"

	"github.com/schooldesk/mcq-bot/internal/domain/model"
)

// Bank — нужная трекеру часть REST-клиента банка вопросов.
type Bank interface {
	GetQuestions(ctx context.Context, token string, classID int, subject, chapter string) ([]model.MCQQuestion, error)
	GetProgress(ctx context.Context, token string, classID int, subject, chapter string) (model.StudentProgress, error)
}

// ProgressFetchError — сбой агрегирования прогресса. Операция состоит из
// двух последовательных вызовов; при сбое любого из них частичный
// результат не отдаётся.
type ProgressFetchError struct {
	Stage string // "questions" либо "progress"
	Err   error
}

func (e *ProgressFetchError) Error() string {
	return fmt.Sprintf("progress: этап %q: %v", e.Stage, e.Err)
}

func (e *ProgressFetchError) Unwrap() error { return e.Err }

// ProgressService вычисляет точку возобновления и процент прохождения
// главы для экрана настройки практики.
type ProgressService struct {
	bank Bank
}

func NewProgressService(bank Bank) *ProgressService {
	return &ProgressService{bank: bank}
}

// FetchProgress комбинирует количество вопросов главы и сохранённый курсор.
// Completed >= Total означает «глава пройдена, новая сессия начнётся
// с начала» — вызывающая сторона показывает это как состояние, не ошибку.
func (s *ProgressService) FetchProgress(ctx context.Context, token string, classID int, subject, chapter string) (model.ChapterProgress, error) {
	questions, err := s.bank.GetQuestions(ctx, token, classID, subject, chapter)
	if err != nil {
		return model.ChapterProgress{}, &ProgressFetchError{Stage: "questions", Err: err}
	}

	progress, err := s.bank.GetProgress(ctx, token, classID, subject, chapter)
	if err != nil {
		return model.ChapterProgress{}, &ProgressFetchError{Stage: "progress", Err: err}
	}

	return model.ChapterProgress{
		Total:     len(questions),
		Completed: progress.LastQuestionIndex,
	}, nil
}
