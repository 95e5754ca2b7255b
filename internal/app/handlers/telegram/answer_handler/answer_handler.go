package answer_handler

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

// AnswerHandler обрабатывает нажатие варианта ответа активного вопроса.
type AnswerHandler struct {
	bot            *telebot.Bot
	studentService *studentsService.StudentService
	quizService    *quizService.QuizService
}

func NewAnswerHandler(
	bot *telebot.Bot,
	studentService *studentsService.StudentService,
	quizService *quizService.QuizService,
) *AnswerHandler {
	return &AnswerHandler{
		bot:            bot,
		studentService: studentService,
		quizService:    quizService,
	}
}

func (h *AnswerHandler) Handle(c telebot.Context) error {
	telegramID := c.Sender().ID

	// Данные кнопки: qIndex_optIndex.
	parts := strings.Split(strings.TrimSpace(c.Data()), "_")
	if len(parts) != 2 {
		return fmt.Errorf("invalid answer callback data: %q", c.Data())
	}
	qIndex, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("invalid question index: %w", err)
	}
	option, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("invalid option index: %w", err)
	}

	ctx := context.Background()

	student, err := h.studentService.Resolve(ctx, telegramID, c.Sender().Username)
	if err != nil || student == nil {
		return c.Send("Ваш аккаунт не привязан к ученику. Обратитесь в школу.")
	}

	outcome, err := h.quizService.Answer(ctx, student.APIToken, telegramID, qIndex, option)
	if err != nil {
		switch {
		case errors.Is(err, quizService.ErrBusy):
			return c.Respond(&telebot.CallbackResponse{Text: "Ответ уже отправляется, подождите"})
		case errors.Is(err, quizService.ErrStaleQuestion):
			return c.Respond(&telebot.CallbackResponse{Text: "Этот вопрос уже не активен"})
		case errors.Is(err, quizService.ErrNoSession), errors.Is(err, quizService.ErrWrongPhase):
			return c.Send("Практика не идёт. Начните заново: /start")
		default:
			// Выбор сохранён, вопрос остался активным: повторное нажатие
			// отправит его ещё раз.
			return c.Send("Не удалось отправить ответ. Проверьте связь и нажмите вариант ещё раз.")
		}
	}

	return renderOutcome(h.bot, c, h.quizService, outcome)
}

// renderOutcome показывает следующий шаг после подтверждённого сервером
// ответа: очередной вопрос, итоги батча или итоги сессии.
func renderOutcome(bot *telebot.Bot, c telebot.Context, quiz *quizService.QuizService, outcome quizService.Outcome) error {
	if msg := c.Message(); msg != nil {
		if err := bot.Delete(msg); err != nil {
			log.Printf("Не удалось удалить сообщение вопроса: %v", err)
		}
	}

	telegramID := c.Sender().ID
	st := outcome.State

	switch outcome.Kind {
	case quizService.OutcomeNextQuestion:
		msg, err := quizrender.SendQuestion(bot, c.Sender(), st)
		if err != nil {
			return fmt.Errorf("failed to send next question: %w", err)
		}
		quiz.SetQuestionMessageID(telegramID, msg.ID)
		return nil
	case quizService.OutcomeBatchComplete:
		return c.Send(quizrender.BatchSummaryText(st), quizrender.BatchSummaryMarkup(st.Remaining))
	case quizService.OutcomeSessionEnded:
		return c.Send(quizrender.FinalResultsText(st))
	default:
		return fmt.Errorf("unknown outcome kind: %d", outcome.Kind)
	}
}

func (h *AnswerHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
