package teacher_report_handler

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/quizrender"
	"github.com/schooldesk/mcq-bot/internal/backend"
	"github.com/schooldesk/mcq-bot/internal/domain/model"
	studentsService "github.com/schooldesk/mcq-bot/internal/domain/students/service"
)

// TeacherReportHandler — сводка практик учеников, доступна только учителю.
// Право на данные проверяет и бэкенд по токену.
type TeacherReportHandler struct {
	studentService *studentsService.StudentService
	backendClient  *backend.Client
}

func NewTeacherReportHandler(
	studentService *studentsService.StudentService,
	backendClient *backend.Client,
) *TeacherReportHandler {
	return &TeacherReportHandler{
		studentService: studentService,
		backendClient:  backendClient,
	}
}

func (h *TeacherReportHandler) Handle(c telebot.Context) error {
	telegramID := c.Sender().ID
	ctx := context.Background()

	student, err := h.studentService.Resolve(ctx, telegramID, c.Sender().Username)
	if err != nil || student == nil {
		return c.Send("Ваш аккаунт не привязан. Обратитесь в школу.")
	}
	if student.Role != model.RoleTeacher {
		return c.Respond(&telebot.CallbackResponse{Text: "Отчёт доступен только учителям"})
	}

	sessions, err := h.backendClient.TeacherSessions(ctx, student.APIToken)
	if err != nil {
		return c.Send(fmt.Sprintf("Не удалось загрузить отчёт: %v", err))
	}

	return c.Send(quizrender.TeacherReportText(sessions))
}

func (h *TeacherReportHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
