package timer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gopkg.in/telebot.v4"

	quizService "github.com/schooldesk/mcq-bot/internal/domain/quiz/service"
)

// Updater посекундно обновляет сообщение-таймер активной практики.
// Счётчик чисто косметический: авторитетная длительность приходит от
// бэкенда в поле duration сессии.
type Updater struct {
	bot  *telebot.Bot
	quiz *quizService.QuizService
}

func NewTimerUpdater(bot *telebot.Bot, quiz *quizService.QuizService) *Updater {
	return &Updater{bot: bot, quiz: quiz}
}

// StartFor отправляет сообщение-таймер и запускает его обновление.
// Отмена регистрируется в контроллере: прежний таймер пользователя гасится,
// новый останавливается при любом выходе из фазы Active.
func (u *Updater) StartFor(userID int64, st quizService.PracticeState) {
	text := timerText(st)
	msg, err := u.bot.Send(&telebot.User{ID: userID}, text)
	if err != nil {
		log.Printf("Ошибка отправки сообщения таймера для userID=%d: %v", userID, err)
		return
	}
	u.quiz.SetTimerMessageID(userID, msg.ID)

	ctx, cancel := context.WithCancel(context.Background())
	u.quiz.SetTimerCancel(userID, cancel)
	go u.run(ctx, userID, msg.ID)
}

func (u *Updater) run(ctx context.Context, userID int64, messageID int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Контекст отменен, завершаем обновление таймера
			return
		case <-ticker.C:
			st, ok := u.quiz.Tick(userID)
			if !ok {
				// Фаза покинула Active — таймер больше не нужен.
				return
			}
			_, err := u.bot.Edit(&telebot.Message{
				ID:   messageID,
				Chat: &telebot.Chat{ID: userID},
			}, timerText(st))
			if err != nil && !strings.Contains(err.Error(), "message is not modified") {
				log.Printf("Ошибка редактирования таймера для userID=%d: %v", userID, err)
			}
		}
	}
}

func timerText(st quizService.PracticeState) string {
	minutes := st.ElapsedSec / 60
	seconds := st.ElapsedSec % 60
	return fmt.Sprintf("⏱ %02d:%02d — вопрос %d из %d",
		minutes, seconds, st.CurrentIndex+1, len(st.Questions))
}
