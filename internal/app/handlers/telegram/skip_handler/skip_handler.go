package skip_handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/quizrender"
	quizService "github.com/schooldesk/mcq-bot/internal/domain/quiz/service"
	studentsService "github.com/schooldesk/mcq-bot/internal/domain/students/service"
)

// SkipHandler обрабатывает пропуск активного вопроса: на сервер уходит
// selected_answer = null, пропуск учитывается отдельным счётчиком и не
// влияет на точность.
type SkipHandler struct {
	bot            *telebot.Bot
	studentService *studentsService.StudentService
	quizService    *quizService.QuizService
}

func NewSkipHandler(
	bot *telebot.Bot,
	studentService *studentsService.StudentService,
	quizService *quizService.QuizService,
) *SkipHandler {
	return &SkipHandler{
		bot:            bot,
		studentService: studentService,
		quizService:    quizService,
	}
}

func (h *SkipHandler) Handle(c telebot.Context) error {
	telegramID := c.Sender().ID

	qIndex, err := strconv.Atoi(strings.TrimSpace(c.Data()))
	if err != nil {
		return fmt.Errorf("invalid skip callback data: %q", c.Data())
	}

	ctx := context.Background()

	student, err := h.studentService.Resolve(ctx, telegramID, c.Sender().Username)
	if err != nil || student == nil {
		return c.Send("Ваш аккаунт не привязан к ученику. Обратитесь в школу.")
	}

	outcome, err := h.quizService.Skip(ctx, student.APIToken, telegramID, qIndex)
	if err != nil {
		switch {
		case errors.Is(err, quizService.ErrBusy):
			return c.Respond(&telebot.CallbackResponse{Text: "Действие уже выполняется, подождите"})
		case errors.Is(err, quizService.ErrStaleQuestion):
			return c.Respond(&telebot.CallbackResponse{Text: "Этот вопрос уже не активен"})
		case errors.Is(err, quizService.ErrNoSession), errors.Is(err, quizService.ErrWrongPhase):
			return c.Send("Практика не идёт. Начните заново: /start")
		default:
			return c.Send("Не удалось пропустить вопрос. Проверьте связь и нажмите ещё раз.")
		}
	}

	if msg := c.Message(); msg != nil {
		if err := h.bot.Delete(msg); err != nil {
			log.Printf("Не удалось удалить сообщение вопроса: %v", err)
		}
	}

	st := outcome.State
	switch outcome.Kind {
	case quizService.OutcomeNextQuestion:
		msg, err := quizrender.SendQuestion(h.bot, c.Sender(), st)
		if err != nil {
			return fmt.Errorf("failed to send next question: %w", err)
		}
		h.quizService.SetQuestionMessageID(telegramID, msg.ID)
		return nil
	case quizService.OutcomeBatchComplete:
		return c.Send(quizrender.BatchSummaryText(st), quizrender.BatchSummaryMarkup(st.Remaining))
	case quizService.OutcomeSessionEnded:
		return c.Send(quizrender.FinalResultsText(st))
	default:
		return fmt.Errorf("unknown outcome kind: %d", outcome.Kind)
	}
}

func (h *SkipHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
