package start_quiz_handler

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/quizrender"
	quizService "github.com/schooldesk/mcq-bot/internal/domain/quiz/service"
	studentsService "github.com/schooldesk/mcq-bot/internal/domain/students/service"
	"github.com/schooldesk/mcq-bot/internal/infra/timer"
)

// StartQuizHandler выполняет переход Setup → Active: создаёт сессию на
// бэкенде, показывает первый вопрос и запускает таймер.
type StartQuizHandler struct {
	bot            *telebot.Bot
	studentService *studentsService.StudentService
	quizService    *quizService.QuizService
	timerUpdater   *timer.Updater
}

func NewStartQuizHandler(
	bot *telebot.Bot,
	studentService *studentsService.StudentService,
	quizService *quizService.QuizService,
	timerUpdater *timer.Updater,
) *StartQuizHandler {
	return &StartQuizHandler{
		bot:            bot,
		studentService: studentService,
		quizService:    quizService,
		timerUpdater:   timerUpdater,
	}
}

func (h *StartQuizHandler) Handle(c telebot.Context) error {
	telegramID := c.Sender().ID
	ctx := context.Background()

	student, err := h.studentService.Resolve(ctx, telegramID, c.Sender().Username)
	if err != nil || student == nil {
		return c.Send("Ваш аккаунт не привязан к ученику. Обратитесь в школу.")
	}

	st, err := h.quizService.Start(ctx, student.APIToken, telegramID)
	if err != nil {
		switch {
		case errors.Is(err, quizService.ErrBusy):
			return c.Respond(&telebot.CallbackResponse{Text: "Запуск уже выполняется, подождите"})
		case errors.Is(err, quizService.ErrSetupIncomplete):
			return c.Respond(&telebot.CallbackResponse{Text: "Сначала выберите предмет и главу"})
		case errors.Is(err, quizService.ErrNoSession), errors.Is(err, quizService.ErrWrongPhase):
			return c.Send("Начните практику заново: /start")
		default:
			// Фаза не изменилась: та же кнопка повторит запуск.
			return c.Send(fmt.Sprintf("Не удалось начать практику: %v\nНажмите «Начать» ещё раз.", err))
		}
	}

	if len(st.Questions) == 0 {
		return c.Send("В главе нет вопросов для практики.")
	}

	msg, err := quizrender.SendQuestion(h.bot, c.Sender(), st)
	if err != nil {
		return fmt.Errorf("failed to send first question: %w", err)
	}
	h.quizService.SetQuestionMessageID(telegramID, msg.ID)

	h.timerUpdater.StartFor(telegramID, st)
	return nil
}

func (h *StartQuizHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
