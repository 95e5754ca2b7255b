package next_batch_handler

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

// NextBatchHandler выполняет переход BatchComplete → Active: дозагружает
// очередную порцию вопросов в ту же сессию и перезапускает таймер.
type NextBatchHandler struct {
	bot            *telebot.Bot
	studentService *studentsService.StudentService
	quizService    *quizService.QuizService
	timerUpdater   *timer.Updater
}

func NewNextBatchHandler(
	bot *telebot.Bot,
	studentService *studentsService.StudentService,
	quizService *quizService.QuizService,
	timerUpdater *timer.Updater,
) *NextBatchHandler {
	return &NextBatchHandler{
		bot:            bot,
		studentService: studentService,
		quizService:    quizService,
		timerUpdater:   timerUpdater,
	}
}

func (h *NextBatchHandler) Handle(c telebot.Context) error {
	telegramID := c.Sender().ID
	ctx := context.Background()

	student, err := h.studentService.Resolve(ctx, telegramID, c.Sender().Username)
	if err != nil || student == nil {
		return c.Send("Ваш аккаунт не привязан к ученику. Обратитесь в школу.")
	}

	st, err := h.quizService.NextBatch(ctx, student.APIToken, telegramID)
	if err != nil {
		switch {
		case errors.Is(err, quizService.ErrBusy):
			return c.Respond(&telebot.CallbackResponse{Text: "Загрузка уже идёт, подождите"})
		case errors.Is(err, quizService.ErrNoMoreQuestions):
			return c.Send("В главе не осталось новых вопросов.", quizrender.BatchSummaryMarkup(0))
		case errors.Is(err, quizService.ErrNoSession), errors.Is(err, quizService.ErrWrongPhase):
			return c.Send("Практика не идёт. Начните заново: /start")
		default:
			return c.Send("Не удалось загрузить вопросы. Нажмите «Продолжить» ещё раз.")
		}
	}

	msg, err := quizrender.SendQuestion(h.bot, c.Sender(), st)
	if err != nil {
		return fmt.Errorf("failed to send question: %w", err)
	}
	h.quizService.SetQuestionMessageID(telegramID, msg.ID)

	h.timerUpdater.StartFor(telegramID, st)
	return nil
}

func (h *NextBatchHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
