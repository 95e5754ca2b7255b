package chapter_handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/quizrender"
	progressService "github.com/schooldesk/mcq-bot/internal/domain/progress/service"
	quizService "github.com/schooldesk/mcq-bot/internal/domain/quiz/service"
	studentsService "github.com/schooldesk/mcq-bot/internal/domain/students/service"
)

// ChapterHandler фиксирует главу и показывает превью прогресса перед
// запуском: сколько пройдено и откуда продолжится практика.
type ChapterHandler struct {
	studentService  *studentsService.StudentService
	quizService     *quizService.QuizService
	progressService *progressService.ProgressService
}

func NewChapterHandler(
	studentService *studentsService.StudentService,
	quizService *quizService.QuizService,
	progressService *progressService.ProgressService,
) *ChapterHandler {
	return &ChapterHandler{
		studentService:  studentService,
		quizService:     quizService,
		progressService: progressService,
	}
}

func (h *ChapterHandler) Handle(c telebot.Context) error {
	telegramID := c.Sender().ID
	chapter := strings.TrimSpace(c.Data())
	if chapter == "" {
		return c.Respond(&telebot.CallbackResponse{Text: "Глава не распознана"})
	}

	ctx := context.Background()

	student, err := h.studentService.Resolve(ctx, telegramID, c.Sender().Username)
	if err != nil || student == nil {
		return c.Send("Ваш аккаунт не привязан к ученику. Обратитесь в школу.")
	}

	if err := h.quizService.SetChapter(telegramID, chapter); err != nil {
		return c.Respond(&telebot.CallbackResponse{Text: "Начните практику заново: /start"})
	}

	st, ok := h.quizService.State(telegramID)
	if !ok {
		return c.Send("Начните практику заново: /start")
	}

	progress, err := h.progressService.FetchProgress(ctx, student.APIToken, student.ClassID, st.Subject, chapter)
	if err != nil {
		var fetchErr *progressService.ProgressFetchError
		if errors.As(err, &fetchErr) {
			return c.Send(fmt.Sprintf("Не удалось загрузить прогресс главы (этап %s). Попробуйте ещё раз.", fetchErr.Stage))
		}
		return c.Send(fmt.Sprintf("Не удалось загрузить прогресс главы: %v", err))
	}

	text := quizrender.ProgressPreviewText(chapter, progress)
	return c.Send(text, quizrender.StartMarkup())
}

func (h *ChapterHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
