package quizrender

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/schooldesk/mcq-bot/internal/domain/model"
	quizService "github.com/schooldesk/mcq-bot/internal/domain/quiz/service"
)

// fakeSender записывает отправки и по желанию валит фотографии.
type fakeSender struct {
	failPhotos bool
	sent       []interface{}
	markups    []*telebot.ReplyMarkup
}

func (f *fakeSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	if _, isPhoto := what.(*telebot.Photo); isPhoto && f.failPhotos {
		return nil, errors.New("wrong file identifier")
	}
	f.sent = append(f.sent, what)
	for _, opt := range opts {
		if m, ok := opt.(*telebot.ReplyMarkup); ok {
			f.markups = append(f.markups, m)
		}
	}
	return &telebot.Message{ID: len(f.sent)}, nil
}

func activeState(imageURL string) quizService.PracticeState {
	return quizService.PracticeState{
		Phase:   quizService.PhaseActive,
		Subject: "Математика",
		Chapter: "Дроби",
		Questions: []model.MCQSessionQuestion{
			{
				Question: model.MCQQuestion{
					ID:           1,
					QuestionText: "Сколько будет 1/2 + 1/4?",
					ImageURL:     imageURL,
					Options:      model.OptionList{"1/2", "3/4", "1/4"},
				},
			},
		},
		CurrentIndex: 0,
	}
}

func TestSendQuestionWithPhoto(t *testing.T) {
	sender := &fakeSender{}
	st := activeState("https://example.com/q1.png")

	msg, err := SendQuestion(sender, &telebot.User{ID: 1}, st)
	if err != nil {
		t.Fatalf("SendQuestion: %v", err)
	}
	if msg == nil {
		t.Fatal("сообщение не отправлено")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("отправок %d, ожидалась 1", len(sender.sent))
	}
	photo, ok := sender.sent[0].(*telebot.Photo)
	if !ok {
		t.Fatalf("ожидалась фотография, получено %T", sender.sent[0])
	}
	if !strings.Contains(photo.Caption, "Сколько будет") {
		t.Errorf("в подписи нет текста вопроса: %q", photo.Caption)
	}
}

// Недоступная картинка деградирует до текста: вопрос остаётся проходимым,
// варианты ответа на месте.
func TestSendQuestionFallsBackToTextOnPhotoFailure(t *testing.T) {
	sender := &fakeSender{failPhotos: true}
	st := activeState("https://example.com/broken.png")

	_, err := SendQuestion(sender, &telebot.User{ID: 1}, st)
	if err != nil {
		t.Fatalf("деградация не должна возвращать ошибку: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("отправок %d, ожидалась 1 текстовая", len(sender.sent))
	}
	text, ok := sender.sent[0].(string)
	if !ok {
		t.Fatalf("ожидался текст, получено %T", sender.sent[0])
	}
	if !strings.Contains(text, "Сколько будет") {
		t.Errorf("в тексте нет вопроса: %q", text)
	}
	if len(sender.markups) != 1 {
		t.Fatal("клавиатура с вариантами потерялась при деградации")
	}
	rows := sender.markups[0].InlineKeyboard
	// 3 варианта + пропуск + завершение.
	if len(rows) != 5 {
		t.Errorf("строк клавиатуры %d, ожидалось 5", len(rows))
	}
}

func TestQuestionMarkupCarriesQuestionIndex(t *testing.T) {
	st := activeState("")
	st.CurrentIndex = 0

	markup := QuestionMarkup(st)
	rows := markup.InlineKeyboard
	if len(rows) != 5 {
		t.Fatalf("строк клавиатуры %d, ожидалось 5", len(rows))
	}
	// Кнопки вариантов несут индекс вопроса и индекс варианта.
	if !strings.Contains(rows[1][0].Data, "0_1") {
		t.Errorf("данные кнопки = %q, ожидался индекс 0_1", rows[1][0].Data)
	}
}

func TestProgressPreviewText(t *testing.T) {
	tests := []struct {
		name     string
		progress model.ChapterProgress
		want     string
	}{
		{
			name:     "возобновление с середины",
			progress: model.ChapterProgress{Total: 15, Completed: 12},
			want:     "пройдено 12 из 15",
		},
		{
			name:     "продолжение с 13-го вопроса",
			progress: model.ChapterProgress{Total: 15, Completed: 12},
			want:     "вопроса 13",
		},
		{
			name:     "глава пройдена",
			progress: model.ChapterProgress{Total: 15, Completed: 15},
			want:     "начнётся с начала",
		},
		{
			name:     "глава не начата",
			progress: model.ChapterProgress{Total: 15, Completed: 0},
			want:     "ещё не начата",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProgressPreviewText("Дроби", tt.progress)
			if !strings.Contains(got, tt.want) {
				t.Errorf("текст %q не содержит %q", got, tt.want)
			}
		})
	}
}

// Итоговый экран детерминирован: повторный показ того же состояния даёт
// тот же текст, точность не учитывает пропуски.
func TestFinalResultsText(t *testing.T) {
	now := time.Now()
	correct := 1
	wrong := 0
	isCorrect := true
	isWrong := false
	st := quizService.PracticeState{
		Phase: quizService.PhaseEnded,
		Session: &model.MCQSession{
			CorrectCount:   3,
			IncorrectCount: 1,
			SkippedCount:   6,
			Duration:       125,
			EndTime:        &now,
		},
		Questions: []model.MCQSessionQuestion{
			{
				Question:       model.MCQQuestion{Options: model.OptionList{"а", "б"}, CorrectAnswer: &correct},
				SelectedAnswer: &correct,
				IsCorrect:      &isCorrect,
				AnsweredAt:     &now,
			},
			{
				Question:       model.MCQQuestion{Options: model.OptionList{"а", "б"}, CorrectAnswer: &correct},
				SelectedAnswer: &wrong,
				IsCorrect:      &isWrong,
				AnsweredAt:     &now,
			},
			{
				Question:   model.MCQQuestion{Options: model.OptionList{"а", "б"}},
				AnsweredAt: &now,
			},
		},
	}

	got := FinalResultsText(st)
	// 3 верных из 4 отвеченных: 75%, шесть пропусков игнорируются.
	if !strings.Contains(got, "75%") {
		t.Errorf("точность не 75%%: %q", got)
	}
	if !strings.Contains(got, "02:05") {
		t.Errorf("длительность сервера не показана: %q", got)
	}
	if !strings.Contains(got, "пропущен") {
		t.Errorf("пропуск не показан в разборе: %q", got)
	}
	if !strings.Contains(got, "правильный ответ: б") {
		t.Errorf("правильный ответ не раскрыт: %q", got)
	}

	if again := FinalResultsText(st); again != got {
		t.Error("повторный показ итогов дал другой текст")
	}
}

func TestBatchSummaryMarkup(t *testing.T) {
	withMore := BatchSummaryMarkup(5)
	if len(withMore.InlineKeyboard) != 2 {
		t.Errorf("при остатке вопросов ожидались кнопки продолжения и завершения")
	}
	exhausted := BatchSummaryMarkup(0)
	if len(exhausted.InlineKeyboard) != 1 {
		t.Errorf("без остатка доступно только завершение")
	}
}
