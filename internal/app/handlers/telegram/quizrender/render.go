package quizrender

import (
	"fmt"
	"log"
	"strings"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/domain/model"
	quizService "github.com/schooldesk/mcq-bot/internal/domain/quiz/service"
)

// Уникальные идентификаторы inline-кнопок. По ним обработчики
// регистрируются в боте, поэтому они общие для всего пакета handlers.
const (
	UniquePractice      = "practice"
	UniqueSubject       = "subject"
	UniqueChapter       = "chapter"
	UniqueStartQuiz     = "start_quiz"
	UniqueAnswer        = "answer"
	UniqueSkip          = "skip"
	UniqueNextBatch     = "next_batch"
	UniqueEndSession    = "end_session"
	UniqueHistory       = "history"
	UniqueTeacherReport = "teacher_report"
)

// Sender — часть telebot.Bot, нужная для отправки сообщений.
// Выделена в интерфейс ради тестов деградации при недоступной картинке.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// MainMenu строит главное меню. Пункт отчёта по ученикам показывается
// только учителям.
func MainMenu(role string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	rows := []telebot.Row{
		markup.Row(markup.Data("📝 Начать практику", UniquePractice)),
		markup.Row(markup.Data("📊 Моя история", UniqueHistory)),
	}
	if role == model.RoleTeacher {
		rows = append(rows, markup.Row(markup.Data("👩‍🏫 Отчёт по ученикам", UniqueTeacherReport)))
	}
	markup.Inline(rows...)
	return markup
}

// SubjectsMarkup — клавиатура выбора предмета, по кнопке в строке.
func SubjectsMarkup(subjects []string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(subjects))
	for _, subject := range subjects {
		rows = append(rows, markup.Row(markup.Data(subject, UniqueSubject, subject)))
	}
	markup.Inline(rows...)
	return markup
}

// ChaptersMarkup — клавиатура выбора главы выбранного предмета.
func ChaptersMarkup(chapters []string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(chapters))
	for _, chapter := range chapters {
		rows = append(rows, markup.Row(markup.Data(chapter, UniqueChapter, chapter)))
	}
	markup.Inline(rows...)
	return markup
}

// ProgressPreviewText — превью прогресса главы на экране настройки.
// Пройденная целиком глава — состояние, не ошибка: новая сессия начнётся
// с начала.
func ProgressPreviewText(chapter string, p model.ChapterProgress) string {
	switch {
	case p.Finished():
		return fmt.Sprintf("Глава «%s» пройдена полностью (%d из %d). Новая практика начнётся с начала главы.",
			chapter, p.Total, p.Total)
	case p.Completed > 0:
		return fmt.Sprintf("Глава «%s»: пройдено %d из %d. Практика продолжится с вопроса %d.",
			chapter, p.Completed, p.Total, p.Completed+1)
	default:
		return fmt.Sprintf("Глава «%s» ещё не начата, всего вопросов: %d.", chapter, p.Total)
	}
}

// StartMarkup — кнопка запуска сессии с экрана превью.
func StartMarkup() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("🚀 Начать", UniqueStartQuiz)))
	return markup
}

// QuestionText — текст активного вопроса с позицией в доставленной выдаче.
func QuestionText(st quizService.PracticeState) string {
	q, ok := st.CurrentQuestion()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("❓ Вопрос %d из %d\n", st.CurrentIndex+1, len(st.Questions)))
	b.WriteString(fmt.Sprintf("%s · %s\n\n", st.Subject, st.Chapter))
	b.WriteString(q.Question.QuestionText)
	return b.String()
}

// QuestionMarkup — варианты ответа плюс пропуск и досрочное завершение.
// В callback-данные кладётся индекс вопроса: нажатие по устаревшему
// сообщению контроллер отвергает.
func QuestionMarkup(st quizService.PracticeState) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	q, ok := st.CurrentQuestion()
	if !ok {
		return markup
	}

	rows := make([]telebot.Row, 0, len(q.Question.Options)+2)
	for i, option := range q.Question.Options {
		btnText := fmt.Sprintf("%d. %s", i+1, option)
		data := fmt.Sprintf("%d_%d", st.CurrentIndex, i)
		rows = append(rows, markup.Row(markup.Data(btnText, UniqueAnswer, data)))
	}
	rows = append(rows, markup.Row(
		markup.Data("⏭ Пропустить", UniqueSkip, fmt.Sprintf("%d", st.CurrentIndex)),
	))
	rows = append(rows, markup.Row(
		markup.Data("🏁 Завершить практику", UniqueEndSession),
	))
	markup.Inline(rows...)
	return markup
}

// SendQuestion отправляет активный вопрос. Вопрос с картинкой уходит
// фотографией с подписью; при сбое загрузки показ деградирует до текста,
// варианты ответа остаются доступны.
func SendQuestion(bot Sender, to telebot.Recipient, st quizService.PracticeState) (*telebot.Message, error) {
	q, ok := st.CurrentQuestion()
	if !ok {
		return nil, fmt.Errorf("нет активного вопроса (index=%d)", st.CurrentIndex)
	}

	text := QuestionText(st)
	markup := QuestionMarkup(st)

	if q.Question.ImageURL != "" {
		photo := &telebot.Photo{
			File:    telebot.FromURL(q.Question.ImageURL),
			Caption: text,
		}
		msg, err := bot.Send(to, photo, markup)
		if err == nil {
			return msg, nil
		}
		log.Printf("Не удалось отправить картинку вопроса %d (%s), показываем текст: %v",
			q.Question.ID, q.Question.ImageURL, err)
	}

	return bot.Send(to, text, markup)
}

// BatchSummaryText — итоги завершённого батча по счётчикам сервера.
func BatchSummaryText(st quizService.PracticeState) string {
	var b strings.Builder
	b.WriteString("📦 Порция вопросов пройдена!\n\n")
	if st.Session != nil {
		b.WriteString(fmt.Sprintf("✅ Верно: %d\n", st.Session.CorrectCount))
		b.WriteString(fmt.Sprintf("❌ Неверно: %d\n", st.Session.IncorrectCount))
		b.WriteString(fmt.Sprintf("⏭ Пропущено: %d\n", st.Session.SkippedCount))
	}
	if st.Remaining > 0 {
		b.WriteString(fmt.Sprintf("\nОсталось вопросов в главе: %d.", st.Remaining))
	} else {
		b.WriteString("\nВ главе не осталось новых вопросов.")
	}
	return b.String()
}

// BatchSummaryMarkup — продолжить следующей порцией или завершить.
func BatchSummaryMarkup(remaining int) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, 2)
	if remaining > 0 {
		rows = append(rows, markup.Row(markup.Data("▶️ Продолжить", UniqueNextBatch)))
	}
	rows = append(rows, markup.Row(markup.Data("🏁 Завершить практику", UniqueEndSession)))
	markup.Inline(rows...)
	return markup
}

// FinalResultsText — итоговый экран завершённой сессии: счётчики,
// точность без учёта пропусков, длительность сервера и разбор ответов.
func FinalResultsText(st quizService.PracticeState) string {
	var b strings.Builder
	b.WriteString("🏁 Практика завершена!\n\n")

	sess := st.Session
	if sess == nil {
		return b.String()
	}

	b.WriteString(fmt.Sprintf("✅ Верно: %d\n", sess.CorrectCount))
	b.WriteString(fmt.Sprintf("❌ Неверно: %d\n", sess.IncorrectCount))
	b.WriteString(fmt.Sprintf("⏭ Пропущено: %d\n", sess.SkippedCount))
	b.WriteString(fmt.Sprintf("🎯 Точность: %.0f%% (пропуски не учитываются)\n", sess.Accuracy()*100))
	b.WriteString(fmt.Sprintf("⏱ Время: %s\n", formatDuration(sess.Duration)))

	review := reviewLines(st.Questions)
	if review != "" {
		b.WriteString("\nРазбор ответов:\n")
		b.WriteString(review)
	}
	return b.String()
}

func reviewLines(questions []model.MCQSessionQuestion) string {
	var b strings.Builder
	for i, q := range questions {
		if q.AnsweredAt == nil {
			continue
		}
		switch {
		case q.SelectedAnswer == nil:
			b.WriteString(fmt.Sprintf("%d. ⏭ пропущен", i+1))
		case q.IsCorrect != nil && *q.IsCorrect:
			b.WriteString(fmt.Sprintf("%d. ✅ верно", i+1))
		default:
			b.WriteString(fmt.Sprintf("%d. ❌ неверно", i+1))
		}
		// Правильный ответ сервер раскрывает только в завершённой сессии.
		if q.Question.CorrectAnswer != nil {
			idx := *q.Question.CorrectAnswer
			if idx >= 0 && idx < len(q.Question.Options) {
				b.WriteString(fmt.Sprintf(" — правильный ответ: %s", q.Question.Options[idx]))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HistoryText — список прошлых сессий ученика.
func HistoryText(sessions []model.MCQSession) string {
	if len(sessions) == 0 {
		return "У вас пока нет завершённых практик."
	}
	var b strings.Builder
	b.WriteString("📊 Ваша история практик:\n\n")
	for _, s := range sessions {
		b.WriteString(fmt.Sprintf("• %s, %s · %s — ✅ %d / ❌ %d / ⏭ %d, точность %.0f%%\n",
			s.StartTime.Format("02.01.2006"), s.Subject, s.Chapter,
			s.CorrectCount, s.IncorrectCount, s.SkippedCount, s.Accuracy()*100))
	}
	return b.String()
}

// TeacherReportText — сводка сессий учеников класса для учителя.
func TeacherReportText(sessions []model.MCQSession) string {
	if len(sessions) == 0 {
		return "По вашему классу пока нет практик."
	}
	var b strings.Builder
	b.WriteString("👩‍🏫 Практики учеников:\n\n")
	for _, s := range sessions {
		b.WriteString(fmt.Sprintf("• Ученик %d — %s · %s (%s): ✅ %d / ❌ %d / ⏭ %d, точность %.0f%%\n",
			s.StudentID, s.Subject, s.Chapter, s.StartTime.Format("02.01.2006"),
			s.CorrectCount, s.IncorrectCount, s.SkippedCount, s.Accuracy()*100))
	}
	return b.String()
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
