package subject_handler

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/quizrender"
	"github.com/schooldesk/mcq-bot/internal/backend"
	quizService "github.com/schooldesk/mcq-bot/internal/domain/quiz/service"
	studentsService "github.com/schooldesk/mcq-bot/internal/domain/students/service"
)

// SubjectHandler фиксирует выбранный предмет и показывает главы.
type SubjectHandler struct {
	studentService *studentsService.StudentService
	quizService    *quizService.QuizService
	backendClient  *backend.Client
}

func NewSubjectHandler(
	studentService *studentsService.StudentService,
	quizService *quizService.QuizService,
	backendClient *backend.Client,
) *SubjectHandler {
	return &SubjectHandler{
		studentService: studentService,
		quizService:    quizService,
		backendClient:  backendClient,
	}
}

func (h *SubjectHandler) Handle(c telebot.Context) error {
	telegramID := c.Sender().ID
	subject := strings.TrimSpace(c.Data())
	if subject == "" {
		return c.Respond(&telebot.CallbackResponse{Text: "Предмет не распознан"})
	}

	ctx := context.Background()

	student, err := h.studentService.Resolve(ctx, telegramID, c.Sender().Username)
	if err != nil || student == nil {
		return c.Send("Ваш аккаунт не привязан к ученику. Обратитесь в школу.")
	}

	if err := h.quizService.SetSubject(telegramID, subject); err != nil {
		return c.Respond(&telebot.CallbackResponse{Text: "Начните практику заново: /start"})
	}

	chapters, err := h.backendClient.GetChapters(ctx, student.APIToken, student.ClassID, subject)
	if err != nil {
		return c.Send(fmt.Sprintf("Не удалось загрузить главы: %v", err))
	}
	if len(chapters) == 0 {
		return c.Send(fmt.Sprintf("По предмету «%s» пока нет глав с вопросами.", subject))
	}

	return c.Send(fmt.Sprintf("Предмет: %s.\nВыберите главу:", subject), quizrender.ChaptersMarkup(chapters))
}

func (h *SubjectHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
