package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/schooldesk/mcq-bot/internal/backend"
	"github.com/schooldesk/mcq-bot/internal/domain/model"
)

const (
	testUser  int64 = 100500
	testToken       = "token"
)

// fakeAPI подменяет REST-клиент бэкенда в тестах контроллера.
type fakeAPI struct {
	startFn  func(classID int, subject, chapter string) (*model.MCQSession, error)
	submitFn func(sessionID, questionID int64, selected *int) (backend.SubmitResult, error)
	endFn    func(sessionID int64) (*model.MCQSession, error)
	nextFn   func(sessionID int64) (*backend.NextBatchResult, error)

	submitCalls int
	endCalls    int
}

func (f *fakeAPI) StartSession(ctx context.Context, token string, classID int, subject, chapter string) (*model.MCQSession, error) {
	return f.startFn(classID, subject, chapter)
}

func (f *fakeAPI) SubmitAnswer(ctx context.Context, token string, sessionID, questionID int64, selected *int) (backend.SubmitResult, error) {
	f.submitCalls++
	return f.submitFn(sessionID, questionID, selected)
}

func (f *fakeAPI) EndSession(ctx context.Context, token string, sessionID int64) (*model.MCQSession, error) {
	f.endCalls++
	return f.endFn(sessionID)
}

func (f *fakeAPI) NextBatch(ctx context.Context, token string, sessionID int64) (*backend.NextBatchResult, error) {
	return f.nextFn(sessionID)
}

func makeQuestions(n int) []model.MCQSessionQuestion {
	out := make([]model.MCQSessionQuestion, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.MCQSessionQuestion{
			Question: model.MCQQuestion{
				ID:           int64(i + 1),
				QuestionText: fmt.Sprintf("Вопрос %d", i+1),
				Options:      model.OptionList{"А", "Б", "В", "Г"},
			},
		})
	}
	return out
}

func makeSession(batch, remaining int) *model.MCQSession {
	return &model.MCQSession{
		ID:                 1,
		Subject:            "Математика",
		Chapter:            "Дроби",
		StartTime:          time.Now(),
		Questions:          makeQuestions(batch),
		CurrentBatchSize:   batch,
		RemainingQuestions: remaining,
	}
}

func boolPtr(b bool) *bool { return &b }

// startActive доводит пользователя до фазы Active с батчем batch вопросов.
func startActive(t *testing.T, api *fakeAPI, batch, remaining int) *QuizService {
	t.Helper()

	if api.startFn == nil {
		api.startFn = func(classID int, subject, chapter string) (*model.MCQSession, error) {
			return makeSession(batch, remaining), nil
		}
	}
	svc := NewQuizService(api)
	svc.BeginSetup(testUser, 7)
	if err := svc.SetSubject(testUser, "Математика"); err != nil {
		t.Fatalf("SetSubject: %v", err)
	}
	if err := svc.SetChapter(testUser, "Дроби"); err != nil {
		t.Fatalf("SetChapter: %v", err)
	}
	st, err := svc.Start(context.Background(), testToken, testUser)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st.Phase != PhaseActive {
		t.Fatalf("фаза после запуска = %s, ожидалась %s", st.Phase, PhaseActive)
	}
	return svc
}

func TestStartDeliversFirstBatch(t *testing.T) {
	api := &fakeAPI{}
	svc := startActive(t, api, 10, 5)

	st, ok := svc.State(testUser)
	if !ok {
		t.Fatal("состояние не найдено")
	}
	if len(st.Questions) != 10 {
		t.Errorf("доставлено %d вопросов, ожидалось 10", len(st.Questions))
	}
	if st.CurrentIndex != 0 {
		t.Errorf("активный вопрос %d, ожидался 0", st.CurrentIndex)
	}
	if st.Remaining != 5 {
		t.Errorf("remaining = %d, ожидалось 5", st.Remaining)
	}
	if st.ElapsedSec != 0 {
		t.Errorf("счётчик секунд после запуска = %d, ожидался 0", st.ElapsedSec)
	}
}

func TestStartRequiresSubjectAndChapter(t *testing.T) {
	svc := NewQuizService(&fakeAPI{})
	svc.BeginSetup(testUser, 7)
	if err := svc.SetSubject(testUser, "Математика"); err != nil {
		t.Fatalf("SetSubject: %v", err)
	}

	_, err := svc.Start(context.Background(), testToken, testUser)
	if !errors.Is(err, ErrSetupIncomplete) {
		t.Errorf("получено %v, ожидалось ErrSetupIncomplete", err)
	}
}

func TestAnswerAdvancesToNextQuestion(t *testing.T) {
	api := &fakeAPI{
		submitFn: func(sessionID, questionID int64, selected *int) (backend.SubmitResult, error) {
			return backend.SubmitResult{IsCorrect: boolPtr(true)}, nil
		},
	}
	svc := startActive(t, api, 3, 0)

	outcome, err := svc.Answer(context.Background(), testToken, testUser, 0, 2)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if outcome.Kind != OutcomeNextQuestion {
		t.Fatalf("outcome = %d, ожидался OutcomeNextQuestion", outcome.Kind)
	}
	st := outcome.State
	if st.CurrentIndex != 1 {
		t.Errorf("активный вопрос %d, ожидался 1", st.CurrentIndex)
	}
	q := st.Questions[0]
	if q.SelectedAnswer == nil || *q.SelectedAnswer != 2 {
		t.Errorf("выбранный вариант не записан: %v", q.SelectedAnswer)
	}
	if q.IsCorrect == nil || !*q.IsCorrect {
		t.Errorf("результат сервера не записан: %v", q.IsCorrect)
	}
	if q.AnsweredAt == nil {
		t.Error("время ответа не записано")
	}
}

// Сбой отправки не двигает вопрос: выбор сохраняется, повторное нажатие
// отправляет его снова.
func TestAnswerFailureKeepsQuestionActive(t *testing.T) {
	fail := true
	api := &fakeAPI{
		submitFn: func(sessionID, questionID int64, selected *int) (backend.SubmitResult, error) {
			if fail {
				return backend.SubmitResult{}, errors.New("网络 down")
			}
			return backend.SubmitResult{IsCorrect: boolPtr(false)}, nil
		},
	}
	svc := startActive(t, api, 3, 0)

	_, err := svc.Answer(context.Background(), testToken, testUser, 0, 1)
	if err == nil {
		t.Fatal("ожидалась ошибка отправки")
	}

	st, _ := svc.State(testUser)
	if st.Phase != PhaseActive || st.CurrentIndex != 0 {
		t.Fatalf("после сбоя фаза=%s индекс=%d, ожидались active/0", st.Phase, st.CurrentIndex)
	}
	if st.Selected == nil || *st.Selected != 1 {
		t.Errorf("выбор не сохранён после сбоя: %v", st.Selected)
	}

	fail = false
	outcome, err := svc.Answer(context.Background(), testToken, testUser, 0, 1)
	if err != nil {
		t.Fatalf("повторная отправка: %v", err)
	}
	if outcome.Kind != OutcomeNextQuestion {
		t.Errorf("outcome = %d, ожидался OutcomeNextQuestion", outcome.Kind)
	}
	if api.submitCalls != 2 {
		t.Errorf("submit вызван %d раз, ожидалось 2", api.submitCalls)
	}
}

func TestSkipSendsNullAnswer(t *testing.T) {
	gotSelected := new(int)
	api := &fakeAPI{
		submitFn: func(sessionID, questionID int64, selected *int) (backend.SubmitResult, error) {
			gotSelected = selected
			return backend.SubmitResult{IsSkipped: boolPtr(true)}, nil
		},
	}
	svc := startActive(t, api, 2, 0)

	outcome, err := svc.Skip(context.Background(), testToken, testUser, 0)
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if gotSelected != nil {
		t.Errorf("при пропуске selected должен быть nil, получено %v", gotSelected)
	}
	q := outcome.State.Questions[0]
	if q.SelectedAnswer != nil {
		t.Errorf("пропуск записан как ответ: %v", q.SelectedAnswer)
	}
	if q.AnsweredAt == nil {
		t.Error("пропуск должен фиксировать вопрос как пройденный")
	}
}

func TestStaleQuestionRejected(t *testing.T) {
	api := &fakeAPI{
		submitFn: func(sessionID, questionID int64, selected *int) (backend.SubmitResult, error) {
			return backend.SubmitResult{IsCorrect: boolPtr(true)}, nil
		},
	}
	svc := startActive(t, api, 3, 0)

	if _, err := svc.Answer(context.Background(), testToken, testUser, 0, 0); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	// Нажатие по кнопке уже пройденного вопроса.
	_, err := svc.Answer(context.Background(), testToken, testUser, 0, 1)
	if !errors.Is(err, ErrStaleQuestion) {
		t.Errorf("получено %v, ожидалось ErrStaleQuestion", err)
	}
	if api.submitCalls != 1 {
		t.Errorf("устаревшее нажатие дошло до сервера: %d вызовов", api.submitCalls)
	}
}

func TestConcurrentActionRejected(t *testing.T) {
	api := &fakeAPI{}
	var svc *QuizService
	var busyErr error
	api.submitFn = func(sessionID, questionID int64, selected *int) (backend.SubmitResult, error) {
		// Второе нажатие, пока первый запрос в полёте.
		_, busyErr = svc.Answer(context.Background(), testToken, testUser, 0, 1)
		return backend.SubmitResult{IsCorrect: boolPtr(true)}, nil
	}
	svc = startActive(t, api, 3, 0)

	if _, err := svc.Answer(context.Background(), testToken, testUser, 0, 0); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !errors.Is(busyErr, ErrBusy) {
		t.Errorf("получено %v, ожидалось ErrBusy", busyErr)
	}
	if api.submitCalls != 1 {
		t.Errorf("параллельное нажатие дошло до сервера: %d вызовов", api.submitCalls)
	}
}

// Последний вопрос батча закрывает батч на сервере. Счётчики приходят с
// сервера и сходятся: correct + incorrect + skipped == отвеченных.
func TestLastQuestionCompletesBatch(t *testing.T) {
	api := &fakeAPI{
		submitFn: func(sessionID, questionID int64, selected *int) (backend.SubmitResult, error) {
			return backend.SubmitResult{IsCorrect: boolPtr(true)}, nil
		},
		endFn: func(sessionID int64) (*model.MCQSession, error) {
			s := makeSession(2, 8)
			s.CorrectCount = 1
			s.IncorrectCount = 0
			s.SkippedCount = 1
			return s, nil
		},
	}
	svc := startActive(t, api, 2, 8)

	if _, err := svc.Skip(context.Background(), testToken, testUser, 0); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	outcome, err := svc.Answer(context.Background(), testToken, testUser, 1, 0)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if outcome.Kind != OutcomeBatchComplete {
		t.Fatalf("outcome = %d, ожидался OutcomeBatchComplete", outcome.Kind)
	}
	st := outcome.State
	if st.Phase != PhaseBatchComplete {
		t.Errorf("фаза = %s, ожидалась batch_complete", st.Phase)
	}

	sess := st.Session
	answered := sess.CorrectCount + sess.IncorrectCount + sess.SkippedCount
	if answered != sess.Answered() {
		t.Errorf("счётчики расходятся: %d != %d", answered, sess.Answered())
	}
	if answered > len(st.Questions) {
		t.Errorf("отвечено %d при %d доставленных", answered, len(st.Questions))
	}
}

func TestLastQuestionEndsSessionWhenServerFinalizes(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{
		submitFn: func(sessionID, questionID int64, selected *int) (backend.SubmitResult, error) {
			return backend.SubmitResult{IsCorrect: boolPtr(true)}, nil
		},
		endFn: func(sessionID int64) (*model.MCQSession, error) {
			s := makeSession(1, 0)
			s.CorrectCount = 1
			s.EndTime = &now
			s.Duration = 42
			return s, nil
		},
	}
	svc := startActive(t, api, 1, 0)

	outcome, err := svc.Answer(context.Background(), testToken, testUser, 0, 0)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if outcome.Kind != OutcomeSessionEnded {
		t.Fatalf("outcome = %d, ожидался OutcomeSessionEnded", outcome.Kind)
	}
	if outcome.State.Phase != PhaseEnded {
		t.Errorf("фаза = %s, ожидалась ended", outcome.State.Phase)
	}
}

// Ответ принят сервером, но закрытие батча сорвалось: повторное нажатие не
// дублирует submit, а повторяет только закрытие.
func TestBatchEndRetryDoesNotResubmit(t *testing.T) {
	failEnd := true
	api := &fakeAPI{
		submitFn: func(sessionID, questionID int64, selected *int) (backend.SubmitResult, error) {
			return backend.SubmitResult{IsCorrect: boolPtr(true)}, nil
		},
	}
	api.endFn = func(sessionID int64) (*model.MCQSession, error) {
		if failEnd {
			return nil, errors.New("timeout")
		}
		s := makeSession(1, 3)
		s.CorrectCount = 1
		return s, nil
	}
	svc := startActive(t, api, 1, 3)

	if _, err := svc.Answer(context.Background(), testToken, testUser, 0, 0); err == nil {
		t.Fatal("ожидалась ошибка закрытия батча")
	}

	failEnd = false
	outcome, err := svc.Answer(context.Background(), testToken, testUser, 0, 0)
	if err != nil {
		t.Fatalf("повторное закрытие: %v", err)
	}
	if outcome.Kind != OutcomeBatchComplete {
		t.Errorf("outcome = %d, ожидался OutcomeBatchComplete", outcome.Kind)
	}
	if api.submitCalls != 1 {
		t.Errorf("submit вызван %d раз, ожидался 1", api.submitCalls)
	}
	if api.endCalls != 2 {
		t.Errorf("end вызван %d раз, ожидалось 2", api.endCalls)
	}
}

// Дозагрузка батча продолжает ту же сессию: нумерация сквозная, счётчик
// секунд не сбрасывается.
func TestNextBatchContinuesSession(t *testing.T) {
	api := &fakeAPI{
		submitFn: func(sessionID, questionID int64, selected *int) (backend.SubmitResult, error) {
			return backend.SubmitResult{IsCorrect: boolPtr(true)}, nil
		},
		endFn: func(sessionID int64) (*model.MCQSession, error) {
			s := makeSession(2, 3)
			s.CorrectCount = 2
			return s, nil
		},
		nextFn: func(sessionID int64) (*backend.NextBatchResult, error) {
			qs := makeQuestions(5)
			questions := make([]model.MCQQuestion, 0, len(qs))
			for _, q := range qs {
				questions = append(questions, q.Question)
			}
			return &backend.NextBatchResult{
				Questions:          questions,
				CurrentBatchSize:   3,
				RemainingQuestions: 0,
				LastQuestionIndex:  7,
			}, nil
		},
	}
	svc := startActive(t, api, 2, 3)

	// Накручиваем таймер и проходим батч.
	for i := 0; i < 30; i++ {
		svc.Tick(testUser)
	}
	if _, err := svc.Answer(context.Background(), testToken, testUser, 0, 0); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if _, err := svc.Answer(context.Background(), testToken, testUser, 1, 0); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	st, err := svc.NextBatch(context.Background(), testToken, testUser)
	if err != nil {
		t.Fatalf("NextBatch: %v", err)
	}
	if st.Phase != PhaseActive {
		t.Errorf("фаза = %s, ожидалась active", st.Phase)
	}
	if st.CurrentIndex != 2 {
		t.Errorf("показ должен продолжиться с первого нового вопроса: индекс %d, ожидался 2", st.CurrentIndex)
	}
	if st.BatchStart != 2 {
		t.Errorf("BatchStart = %d, ожидался 2", st.BatchStart)
	}
	if len(st.Questions) != 7 {
		t.Errorf("всего вопросов %d, ожидалось 7", len(st.Questions))
	}
	if st.ElapsedSec != 30 {
		t.Errorf("счётчик секунд сброшен дозагрузкой: %d, ожидалось 30", st.ElapsedSec)
	}
}

func TestNextBatchEmptyMeansNoMoreQuestions(t *testing.T) {
	api := &fakeAPI{
		submitFn: func(sessionID, questionID int64, selected *int) (backend.SubmitResult, error) {
			return backend.SubmitResult{IsCorrect: boolPtr(true)}, nil
		},
		endFn: func(sessionID int64) (*model.MCQSession, error) {
			return makeSession(1, 1), nil
		},
		nextFn: func(sessionID int64) (*backend.NextBatchResult, error) {
			return &backend.NextBatchResult{}, nil
		},
	}
	svc := startActive(t, api, 1, 1)

	if _, err := svc.Answer(context.Background(), testToken, testUser, 0, 0); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	_, err := svc.NextBatch(context.Background(), testToken, testUser)
	if !errors.Is(err, ErrNoMoreQuestions) {
		t.Errorf("получено %v, ожидалось ErrNoMoreQuestions", err)
	}
}

func TestExplicitEndFromActive(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{
		endFn: func(sessionID int64) (*model.MCQSession, error) {
			s := makeSession(3, 0)
			s.EndTime = &now
			return s, nil
		},
	}
	svc := startActive(t, api, 3, 0)

	st, err := svc.End(context.Background(), testToken, testUser)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if st.Phase != PhaseEnded {
		t.Errorf("фаза = %s, ожидалась ended", st.Phase)
	}

	// Завершённая сессия терминальна.
	if _, err := svc.End(context.Background(), testToken, testUser); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("повторное завершение: получено %v, ожидалось ErrWrongPhase", err)
	}
	if _, err := svc.Answer(context.Background(), testToken, testUser, 0, 0); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("ответ после завершения: получено %v, ожидалось ErrWrongPhase", err)
	}
}

func TestTickOnlyCountsInActivePhase(t *testing.T) {
	svc := NewQuizService(&fakeAPI{})
	svc.BeginSetup(testUser, 7)

	if _, ok := svc.Tick(testUser); ok {
		t.Error("таймер не должен тикать в фазе настройки")
	}

	api := &fakeAPI{}
	svc = startActive(t, api, 2, 0)
	st, ok := svc.Tick(testUser)
	if !ok || st.ElapsedSec != 1 {
		t.Errorf("тик в active: ok=%v elapsed=%d", ok, st.ElapsedSec)
	}
}
