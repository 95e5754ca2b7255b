package end_session_handler

import (
	"context"
	"errors"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/quizrender"
	quizService "github.com/schooldesk/mcq-bot/internal/domain/quiz/service"
	studentsService "github.com/schooldesk/mcq-bot/internal/domain/students/service"
)

// EndSessionHandler — досрочное завершение практики. Доступно с активного
// вопроса и с экрана итогов батча; сервер финализирует сессию и возвращает
// итоговую статистику.
type EndSessionHandler struct {
	studentService *studentsService.StudentService
	quizService    *quizService.QuizService
}

func NewEndSessionHandler(
	studentService *studentsService.StudentService,
	quizService *quizService.QuizService,
) *EndSessionHandler {
	return &EndSessionHandler{
		studentService: studentService,
		quizService:    quizService,
	}
}

func (h *EndSessionHandler) Handle(c telebot.Context) error {
	telegramID := c.Sender().ID
	ctx := context.Background()

	student, err := h.studentService.Resolve(ctx, telegramID, c.Sender().Username)
	if err != nil || student == nil {
		return c.Send("Ваш аккаунт не привязан к ученику. Обратитесь в школу.")
	}

	st, err := h.quizService.End(ctx, student.APIToken, telegramID)
	if err != nil {
		switch {
		case errors.Is(err, quizService.ErrBusy):
			return c.Respond(&telebot.CallbackResponse{Text: "Действие уже выполняется, подождите"})
		case errors.Is(err, quizService.ErrNoSession), errors.Is(err, quizService.ErrWrongPhase):
			return c.Send("Практика не идёт. Начните заново: /start")
		default:
			return c.Send("Не удалось завершить практику. Нажмите «Завершить» ещё раз.")
		}
	}

	return c.Send(quizrender.FinalResultsText(st))
}

func (h *EndSessionHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
