package backend

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/schooldesk/mcq-bot/internal/domain/model"
)

// Client — REST-клиент школьного бэкенда. Кэширования нет: каждый вызов
// уходит в сеть. Авторизация — Bearer-токен ученика, выданный бэкендом и
// хранящийся в локальной привязке.
type Client struct {
	http *resty.Client
}

// NewClient создает клиент с базовым URL и таймаутом из конфигурации.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
	}
}

// SubmitResult — ответ бэкенда на submit-answer. Оба поля опциональны:
// isCorrect приходит при ответе, isSkipped — при пропуске.
type SubmitResult struct {
	IsCorrect *bool `json:"isCorrect,omitempty"`
	IsSkipped *bool `json:"isSkipped,omitempty"`
}

// NextBatchResult — ответ бэкенда на дозагрузку батча той же сессии.
type NextBatchResult struct {
	Questions          []model.MCQQuestion `json:"questions"`
	CurrentBatchSize   int                 `json:"currentBatchSize"`
	RemainingQuestions int                 `json:"remainingQuestions"`
	LastQuestionIndex  int                 `json:"last_question_index"`
}

// GetChapters возвращает список глав предмета. Пустой список — «главы не
// настроены», не ошибка.
func (c *Client) GetChapters(ctx context.Context, token string, classID int, subject string) ([]string, error) {
	const op = "backend.GetChapters"

	var chapters []string
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"class_id": strconv.Itoa(classID),
			"subject":  subject,
		}).
		SetResult(&chapters).
		Get("/mcq/chapters")
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	if resp.IsError() {
		return nil, &FetchError{Op: op, StatusCode: resp.StatusCode()}
	}
	return chapters, nil
}

// GetQuestions возвращает вопросы класса/предмета; chapter опционален
// (пустая строка) и используется только для подсчёта общего числа вопросов.
func (c *Client) GetQuestions(ctx context.Context, token string, classID int, subject, chapter string) ([]model.MCQQuestion, error) {
	const op = "backend.GetQuestions"

	params := map[string]string{
		"class_id": strconv.Itoa(classID),
		"subject":  subject,
	}
	if chapter != "" {
		params["chapter"] = chapter
	}

	var questions []model.MCQQuestion
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(params).
		SetResult(&questions).
		Get("/mcq/questions")
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	if resp.IsError() {
		return nil, &FetchError{Op: op, StatusCode: resp.StatusCode()}
	}
	return questions, nil
}

// GetProgress возвращает сохранённый курсор прохождения главы.
func (c *Client) GetProgress(ctx context.Context, token string, classID int, subject, chapter string) (model.StudentProgress, error) {
	const op = "backend.GetProgress"

	var progress model.StudentProgress
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"class_id": strconv.Itoa(classID),
			"subject":  subject,
			"chapter":  chapter,
		}).
		SetResult(&progress).
		Get("/mcq/student-progress")
	if err != nil {
		return model.StudentProgress{}, &FetchError{Op: op, Err: err}
	}
	if resp.IsError() {
		return model.StudentProgress{}, &FetchError{Op: op, StatusCode: resp.StatusCode()}
	}
	return progress, nil
}

// StartSession создает новую сессию и возвращает её вместе с первым батчем
// вопросов (размер батча определяет сервер, наблюдаемо — до 10).
func (c *Client) StartSession(ctx context.Context, token string, classID int, subject, chapter string) (*model.MCQSession, error) {
	const op = "backend.StartSession"

	var session model.MCQSession
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]interface{}{
			"class_id": classID,
			"subject":  subject,
			"chapter":  chapter,
		}).
		SetResult(&session).
		Post("/mcq/sessions/start")
	if err != nil {
		return nil, &ActionError{Op: op, Err: err}
	}
	if resp.IsError() {
		return nil, &ActionError{Op: op, StatusCode: resp.StatusCode()}
	}
	return &session, nil
}

// SubmitAnswer отправляет ответ на вопрос. selected == nil означает пропуск:
// бэкенд учитывает его в skipped_count и оставляет is_correct пустым.
func (c *Client) SubmitAnswer(ctx context.Context, token string, sessionID, questionID int64, selected *int) (SubmitResult, error) {
	const op = "backend.SubmitAnswer"

	// selected сериализуется в null при пропуске, поэтому поле кладём всегда.
	body := map[string]interface{}{
		"session_id":      sessionID,
		"question_id":     questionID,
		"selected_answer": selected,
	}

	var result SubmitResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(body).
		SetResult(&result).
		Post("/mcq/sessions/submit-answer")
	if err != nil {
		return SubmitResult{}, &ActionError{Op: op, Err: err}
	}
	if resp.IsError() {
		return SubmitResult{}, &ActionError{Op: op, StatusCode: resp.StatusCode()}
	}
	return result, nil
}

// EndSession финализирует батч либо сессию целиком. Сервер возвращает
// сессию с пересчитанной статистикой; end_time установлен только если
// сессия терминальна.
func (c *Client) EndSession(ctx context.Context, token string, sessionID int64) (*model.MCQSession, error) {
	const op = "backend.EndSession"

	var session model.MCQSession
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]interface{}{"session_id": sessionID}).
		SetResult(&session).
		Post("/mcq/sessions/end")
	if err != nil {
		return nil, &ActionError{Op: op, Err: err}
	}
	if resp.IsError() {
		return nil, &ActionError{Op: op, StatusCode: resp.StatusCode()}
	}
	return &session, nil
}

// NextBatch дозагружает следующий батч вопросов в ту же сессию.
func (c *Client) NextBatch(ctx context.Context, token string, sessionID int64) (*NextBatchResult, error) {
	const op = "backend.NextBatch"

	var result NextBatchResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]interface{}{"session_id": sessionID}).
		SetResult(&result).
		Post("/mcq/sessions/next-batch")
	if err != nil {
		return nil, &ActionError{Op: op, Err: err}
	}
	if resp.IsError() {
		return nil, &ActionError{Op: op, StatusCode: resp.StatusCode()}
	}
	return &result, nil
}

// StudentSessions возвращает историю сессий текущего ученика.
func (c *Client) StudentSessions(ctx context.Context, token string) ([]model.MCQSession, error) {
	return c.listSessions(ctx, token, "/mcq/sessions", "backend.StudentSessions")
}

// TeacherSessions возвращает сессии всех учеников (доступно учителю).
func (c *Client) TeacherSessions(ctx context.Context, token string) ([]model.MCQSession, error) {
	return c.listSessions(ctx, token, "/mcq/teacher/sessions", "backend.TeacherSessions")
}

func (c *Client) listSessions(ctx context.Context, token, path, op string) ([]model.MCQSession, error) {
	var sessions []model.MCQSession
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&sessions).
		Get(path)
	if err != nil {
		return nil, &FetchError{Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	if resp.IsError() {
		return nil, &FetchError{Op: op, StatusCode: resp.StatusCode()}
	}
	return sessions, nil
}
