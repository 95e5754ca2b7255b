package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/schooldesk/mcq-bot/internal/backend"
	"github.com/schooldesk/mcq-bot/internal/domain/model"
)

// API — нужная контроллеру часть REST-клиента бэкенда. Все переходы
// автомата подтверждаются сервером; локально авторитетных данных нет.
type API interface {
	StartSession(ctx context.Context, token string, classID int, subject, chapter string) (*model.MCQSession, error)
	SubmitAnswer(ctx context.Context, token string, sessionID, questionID int64, selected *int) (backend.SubmitResult, error)
	EndSession(ctx context.Context, token string, sessionID int64) (*model.MCQSession, error)
	NextBatch(ctx context.Context, token string, sessionID int64) (*backend.NextBatchResult, error)
}

// Phase — фаза сессии практики. Единый tagged-тип вместо независимых
// булевых флагов исключает противоречивые комбинации состояний.
type Phase string

const (
	PhaseSetup         Phase = "setup"
	PhaseActive        Phase = "active"
	PhaseBatchComplete Phase = "batch_complete"
	PhaseEnded         Phase = "ended"
)

var (
	ErrNoSession       = errors.New("практика не начата")
	ErrBusy            = errors.New("предыдущее действие ещё выполняется")
	ErrWrongPhase      = errors.New("действие недоступно в текущей фазе")
	ErrStaleQuestion   = errors.New("этот вопрос уже не активен")
	ErrSetupIncomplete = errors.New("не выбраны предмет или глава")
	ErrNoMoreQuestions = errors.New("в главе не осталось вопросов")
)

// PracticeState — транзиентное состояние практики одного пользователя.
// Счётчики и прогресс живут в Session и обновляются только из ответов
// бэкенда; остальное — локальные курсоры презентации.
type PracticeState struct {
	Phase   Phase
	ClassID int
	Subject string
	Chapter string

	Session   *model.MCQSession
	Questions []model.MCQSessionQuestion // все доставленные вопросы, по батчам

	CurrentIndex int  // 0-based индекс в Questions
	BatchStart   int  // индекс первого вопроса текущего батча
	Selected     *int // выбранный вариант, сохраняется при ошибке отправки
	Remaining    int  // remainingQuestions из последнего ответа сервера

	ElapsedSec        int // косметический счётчик; авторитетна Duration сессии
	QuestionMessageID int
	TimerMessageID    int
}

// CurrentQuestion возвращает активный вопрос. Активен ровно один вопрос;
// индекс двигается только после подтверждения сервера.
func (st *PracticeState) CurrentQuestion() (model.MCQSessionQuestion, bool) {
	if st.CurrentIndex < 0 || st.CurrentIndex >= len(st.Questions) {
		return model.MCQSessionQuestion{}, false
	}
	return st.Questions[st.CurrentIndex], true
}

// OutcomeKind — результат отправки ответа/пропуска для презентации.
type OutcomeKind int

const (
	OutcomeNextQuestion OutcomeKind = iota
	OutcomeBatchComplete
	OutcomeSessionEnded
)

type Outcome struct {
	Kind  OutcomeKind
	State PracticeState
}

// QuizService — контроллер сессии практики: хранит состояния по
// Telegram-пользователям, выполняет переходы автомата
// Setup → Active → BatchComplete → Active… → Ended и владеет таймерами.
type QuizService struct {
	api API

	mu       sync.Mutex
	states   map[int64]*PracticeState
	inFlight map[int64]bool
	timers   map[int64]context.CancelFunc
}

func NewQuizService(api API) *QuizService {
	return &QuizService{
		api:      api,
		states:   make(map[int64]*PracticeState),
		inFlight: make(map[int64]bool),
		timers:   make(map[int64]context.CancelFunc),
	}
}

// BeginSetup открывает экран настройки, сбрасывая прежнее состояние
// пользователя (завершённая сессия остаётся только на бэкенде).
func (s *QuizService) BeginSetup(userID int64, classID int) PracticeState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked(userID)
	st := &PracticeState{Phase: PhaseSetup, ClassID: classID, CurrentIndex: -1}
	s.states[userID] = st
	return *st
}

func (s *QuizService) SetSubject(userID int64, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[userID]
	if !ok {
		return ErrNoSession
	}
	if st.Phase != PhaseSetup {
		return ErrWrongPhase
	}
	st.Subject = subject
	st.Chapter = ""
	return nil
}

func (s *QuizService) SetChapter(userID int64, chapter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[userID]
	if !ok {
		return ErrNoSession
	}
	if st.Phase != PhaseSetup || st.Subject == "" {
		return ErrWrongPhase
	}
	st.Chapter = chapter
	return nil
}

// State возвращает копию состояния пользователя.
func (s *QuizService) State(userID int64) (PracticeState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[userID]
	if !ok {
		return PracticeState{}, false
	}
	return copyState(st), true
}

// Start выполняет переход Setup → Active: бэкенд создает сессию и отдаёт
// первый батч. Локальный счётчик секунд сбрасывается (в отличие от
// дозагрузки батча той же сессии).
func (s *QuizService) Start(ctx context.Context, token string, userID int64) (PracticeState, error) {
	s.mu.Lock()
	st, ok := s.states[userID]
	if !ok {
		s.mu.Unlock()
		return PracticeState{}, ErrNoSession
	}
	if st.Phase != PhaseSetup {
		s.mu.Unlock()
		return PracticeState{}, ErrWrongPhase
	}
	if st.Subject == "" || st.Chapter == "" {
		s.mu.Unlock()
		return PracticeState{}, ErrSetupIncomplete
	}
	if err := s.beginOpLocked(userID); err != nil {
		s.mu.Unlock()
		return PracticeState{}, err
	}
	classID, subject, chapter := st.ClassID, st.Subject, st.Chapter
	s.mu.Unlock()

	session, err := s.api.StartSession(ctx, token, classID, subject, chapter)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endOpLocked(userID)

	if err != nil {
		// Фаза не меняется: пользователь повторит запуск вручную.
		return PracticeState{}, err
	}
	st, ok = s.states[userID]
	if !ok || st.Phase != PhaseSetup {
		// Состояние сброшено, пока запрос был в полёте — поздняя запись
		// отбрасывается.
		return PracticeState{}, ErrNoSession
	}

	st.Session = session
	st.Questions = append([]model.MCQSessionQuestion(nil), session.Questions...)
	st.CurrentIndex = 0
	st.BatchStart = 0
	st.Selected = nil
	st.Remaining = session.RemainingQuestions
	st.ElapsedSec = 0
	st.Phase = PhaseActive
	return copyState(st), nil
}

// Answer отправляет выбранный вариант активного вопроса.
func (s *QuizService) Answer(ctx context.Context, token string, userID int64, qIndex, option int) (Outcome, error) {
	return s.submit(ctx, token, userID, qIndex, &option)
}

// Skip отправляет пропуск активного вопроса: selected_answer = null,
// учитывается только в skipped_count.
func (s *QuizService) Skip(ctx context.Context, token string, userID int64, qIndex int) (Outcome, error) {
	return s.submit(ctx, token, userID, qIndex, nil)
}

func (s *QuizService) submit(ctx context.Context, token string, userID int64, qIndex int, selected *int) (Outcome, error) {
	s.mu.Lock()
	st, ok := s.states[userID]
	if !ok {
		s.mu.Unlock()
		return Outcome{}, ErrNoSession
	}
	if st.Phase != PhaseActive {
		s.mu.Unlock()
		return Outcome{}, ErrWrongPhase
	}
	if qIndex != st.CurrentIndex {
		s.mu.Unlock()
		return Outcome{}, ErrStaleQuestion
	}
	if err := s.beginOpLocked(userID); err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}

	alreadyAnswered := st.Questions[qIndex].AnsweredAt != nil
	st.Selected = selected
	sessionID := st.Session.ID
	questionID := st.Questions[qIndex].Question.ID
	s.mu.Unlock()

	// Повторное нажатие после того, как ответ уже принят сервером, а
	// завершение батча сорвалось: не дублируем submit, сразу закрываем батч.
	if !alreadyAnswered {
		result, err := s.api.SubmitAnswer(ctx, token, sessionID, questionID, selected)

		s.mu.Lock()
		st, ok = s.states[userID]
		if !ok || st.Phase != PhaseActive || st.CurrentIndex != qIndex {
			s.endOpLocked(userID)
			s.mu.Unlock()
			return Outcome{}, ErrNoSession
		}
		if err != nil {
			// Выбор сохранён в st.Selected, вопрос остаётся активным.
			s.endOpLocked(userID)
			s.mu.Unlock()
			return Outcome{}, err
		}

		now := time.Now()
		q := &st.Questions[qIndex]
		q.SelectedAnswer = selected
		q.IsCorrect = result.IsCorrect
		q.AnsweredAt = &now
		st.Selected = nil

		if qIndex+1 < len(st.Questions) {
			st.CurrentIndex++
			s.endOpLocked(userID)
			out := Outcome{Kind: OutcomeNextQuestion, State: copyState(st)}
			s.mu.Unlock()
			return out, nil
		}
		s.mu.Unlock()
	}

	// Последний вопрос батча: закрываем батч на сервере. end_time в ответе
	// решает, завершилась ли сессия целиком.
	session, err := s.api.EndSession(ctx, token, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endOpLocked(userID)

	st, ok = s.states[userID]
	if !ok || st.Phase != PhaseActive {
		return Outcome{}, ErrNoSession
	}
	if err != nil {
		// Ответ уже учтён сервером; повторное нажатие той же кнопки
		// повторит только закрытие батча.
		return Outcome{}, err
	}

	s.applySessionLocked(st, session)
	if session.Ended() {
		st.Phase = PhaseEnded
		s.stopTimerLocked(userID)
		return Outcome{Kind: OutcomeSessionEnded, State: copyState(st)}, nil
	}
	st.Phase = PhaseBatchComplete
	s.stopTimerLocked(userID)
	return Outcome{Kind: OutcomeBatchComplete, State: copyState(st)}, nil
}

// NextBatch выполняет переход BatchComplete → Active(N+1): вопросы
// дописываются к той же сессии, показ продолжается с первого нового
// индекса. Счётчик секунд не сбрасывается.
func (s *QuizService) NextBatch(ctx context.Context, token string, userID int64) (PracticeState, error) {
	s.mu.Lock()
	st, ok := s.states[userID]
	if !ok {
		s.mu.Unlock()
		return PracticeState{}, ErrNoSession
	}
	if st.Phase != PhaseBatchComplete {
		s.mu.Unlock()
		return PracticeState{}, ErrWrongPhase
	}
	if err := s.beginOpLocked(userID); err != nil {
		s.mu.Unlock()
		return PracticeState{}, err
	}
	sessionID := st.Session.ID
	s.mu.Unlock()

	batch, err := s.api.NextBatch(ctx, token, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endOpLocked(userID)

	st, ok = s.states[userID]
	if !ok || st.Phase != PhaseBatchComplete {
		return PracticeState{}, ErrNoSession
	}
	if err != nil {
		return PracticeState{}, err
	}
	if len(batch.Questions) == 0 {
		return PracticeState{}, ErrNoMoreQuestions
	}

	st.BatchStart = len(st.Questions)
	for _, q := range batch.Questions {
		st.Questions = append(st.Questions, model.MCQSessionQuestion{Question: q})
	}
	st.CurrentIndex = st.BatchStart
	st.Selected = nil
	st.Remaining = batch.RemainingQuestions
	st.Session.CurrentBatchSize = batch.CurrentBatchSize
	st.Session.RemainingQuestions = batch.RemainingQuestions
	st.Session.LastQuestionIndex = batch.LastQuestionIndex
	st.Phase = PhaseActive
	return copyState(st), nil
}

// End — явное завершение сессии учеником: доступно из активного вопроса и
// с экрана итогов батча, переводит в терминальную фазу Ended.
func (s *QuizService) End(ctx context.Context, token string, userID int64) (PracticeState, error) {
	s.mu.Lock()
	st, ok := s.states[userID]
	if !ok {
		s.mu.Unlock()
		return PracticeState{}, ErrNoSession
	}
	if st.Phase != PhaseActive && st.Phase != PhaseBatchComplete {
		s.mu.Unlock()
		return PracticeState{}, ErrWrongPhase
	}
	if err := s.beginOpLocked(userID); err != nil {
		s.mu.Unlock()
		return PracticeState{}, err
	}
	sessionID := st.Session.ID
	s.mu.Unlock()

	session, err := s.api.EndSession(ctx, token, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endOpLocked(userID)

	st, ok = s.states[userID]
	if !ok {
		return PracticeState{}, ErrNoSession
	}
	if err != nil {
		return PracticeState{}, err
	}

	s.applySessionLocked(st, session)
	st.Phase = PhaseEnded
	st.Selected = nil
	s.stopTimerLocked(userID)
	return copyState(st), nil
}

// Tick инкрементирует косметический счётчик секунд. Возвращает false,
// когда состояние покинуло фазу Active — сигнал таймеру остановиться.
func (s *QuizService) Tick(userID int64) (PracticeState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[userID]
	if !ok || st.Phase != PhaseActive {
		return PracticeState{}, false
	}
	st.ElapsedSec++
	return copyState(st), true
}

// SetTimerCancel регистрирует отмену таймера пользователя; прежний таймер
// гасится, чтобы на пользователя никогда не работало два таймера.
func (s *QuizService) SetTimerCancel(userID int64, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[userID]; ok {
		old()
	}
	s.timers[userID] = cancel
}

// StopTimer гасит таймер пользователя, если он запущен.
func (s *QuizService) StopTimer(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked(userID)
}

func (s *QuizService) SetQuestionMessageID(userID int64, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[userID]; ok {
		st.QuestionMessageID = messageID
	}
}

func (s *QuizService) SetTimerMessageID(userID int64, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[userID]; ok {
		st.TimerMessageID = messageID
	}
}

// ActiveStates возвращает копии незавершённых практик для служебного
// HTTP-отчёта.
func (s *QuizService) ActiveStates() map[int64]PracticeState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]PracticeState)
	for userID, st := range s.states {
		if st.Phase == PhaseActive || st.Phase == PhaseBatchComplete {
			out[userID] = copyState(st)
		}
	}
	return out
}

// Reset удаляет состояние пользователя и гасит его таймер.
func (s *QuizService) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked(userID)
	delete(s.states, userID)
	delete(s.inFlight, userID)
}

func (s *QuizService) beginOpLocked(userID int64) error {
	if s.inFlight[userID] {
		return ErrBusy
	}
	s.inFlight[userID] = true
	return nil
}

func (s *QuizService) endOpLocked(userID int64) {
	delete(s.inFlight, userID)
}

func (s *QuizService) stopTimerLocked(userID int64) {
	if cancel, ok := s.timers[userID]; ok {
		cancel()
		delete(s.timers, userID)
	}
}

// applySessionLocked принимает серверную копию сессии, сохраняя локально
// накопленный список вопросов, если сервер его не прислал.
func (s *QuizService) applySessionLocked(st *PracticeState, session *model.MCQSession) {
	if len(session.Questions) > 0 {
		st.Questions = append([]model.MCQSessionQuestion(nil), session.Questions...)
	}
	st.Session = session
}

func copyState(st *PracticeState) PracticeState {
	out := *st
	if st.Session != nil {
		sess := *st.Session
		out.Session = &sess
	}
	out.Questions = append([]model.MCQSessionQuestion(nil), st.Questions...)
	return out
}
