package start_handler

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/app/handlers/telegram/quizrender"
	studentsService "github.com/schooldesk/mcq-bot/internal/domain/students/service"
)

// StartHandler структура для обработки команды /start
type StartHandler struct {
	studentService *studentsService.StudentService
}

// NewStartHandler возвращает структуру обработчика
func NewStartHandler(studentService *studentsService.StudentService) *StartHandler {
	return &StartHandler{studentService: studentService}
}

// Handle приветствует пользователя и показывает главное меню. При первом
// входе активируется заведённая школой привязка по username.
func (h *StartHandler) Handle(c telebot.Context) error {
	telegramID := c.Sender().ID
	username := c.Sender().Username
	firstName := c.Sender().FirstName

	ctx := context.Background()

	student, err := h.studentService.Resolve(ctx, telegramID, username)
	if err != nil {
		return c.Send(fmt.Sprintf("Не удалось проверить привязку: %v", err))
	}
	if student == nil {
		return c.Send("Ваш аккаунт не привязан к ученику. Обратитесь в школу, чтобы вас добавили.")
	}

	name := student.FullName
	if name == "" {
		name = firstName
	}
	welcome := fmt.Sprintf("Привет, %s! 👋\nЗдесь можно тренироваться на вопросах с вариантами ответов по главам учебника.", name)

	return c.Send(welcome, quizrender.MainMenu(student.Role))
}

// GetHandlerFunc возвращает обработчик в формате telebot.HandlerFunc
func (h *StartHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
