package history_handler

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/quizrender"
	"github.com/schooldesk/mcq-bot/internal/backend"
	studentsService "github.com/schooldesk/mcq-bot/internal/domain/students/service"
)

// HistoryHandler показывает историю практик текущего ученика.
type HistoryHandler struct {
	studentService *studentsService.StudentService
	backendClient  *backend.Client
}

func NewHistoryHandler(
	studentService *studentsService.StudentService,
	backendClient *backend.Client,
) *HistoryHandler {
	return &HistoryHandler{
		studentService: studentService,
		backendClient:  backendClient,
	}
}

func (h *HistoryHandler) Handle(c telebot.Context) error {
	telegramID := c.Sender().ID
	ctx := context.Background()

	student, err := h.studentService.Resolve(ctx, telegramID, c.Sender().Username)
	if err != nil || student == nil {
		return c.Send("Ваш аккаунт не привязан к ученику. Обратитесь в школу.")
	}

	sessions, err := h.backendClient.StudentSessions(ctx, student.APIToken)
	if err != nil {
		return c.Send(fmt.Sprintf("Не удалось загрузить историю: %v", err))
	}

	return c.Send(quizrender.HistoryText(sessions))
}

func (h *HistoryHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
