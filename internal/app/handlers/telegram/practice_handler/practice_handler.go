package practice_handler

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/quizrender"
	quizService "github.com/schooldesk/mcq-bot/internal/domain/quiz/service"
	studentsService "github.com/schooldesk/mcq-bot/internal/domain/students/service"
)

// PracticeHandler открывает экран настройки практики: выбор предмета.
type PracticeHandler struct {
	studentService *studentsService.StudentService
	quizService    *quizService.QuizService
	subjects       []string
}

func NewPracticeHandler(
	studentService *studentsService.StudentService,
	quizService *quizService.QuizService,
	subjects []string,
) *PracticeHandler {
	return &PracticeHandler{
		studentService: studentService,
		quizService:    quizService,
		subjects:       subjects,
	}
}

func (h *PracticeHandler) Handle(c telebot.Context) error {
	telegramID := c.Sender().ID
	ctx := context.Background()

	student, err := h.studentService.Resolve(ctx, telegramID, c.Sender().Username)
	if err != nil {
		return c.Send(fmt.Sprintf("Не удалось проверить привязку: %v", err))
	}
	if student == nil {
		return c.Send("Ваш аккаунт не привязан к ученику. Обратитесь в школу.")
	}
	if len(h.subjects) == 0 {
		return c.Send("Список предметов пока не настроен.")
	}

	// Любая прежняя практика сбрасывается: авторитетная копия уже на сервере.
	h.quizService.BeginSetup(telegramID, student.ClassID)

	return c.Send("Выберите предмет:", quizrender.SubjectsMarkup(h.subjects))
}

func (h *PracticeHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
