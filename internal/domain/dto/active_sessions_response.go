package dto

// ActiveSessionsResponse — отчёт по идущим практикам для служебного API.
type ActiveSessionsResponse struct {
	TotalActiveUsers int                 `json:"total_active_users"`
	ActiveSessions   []ActiveSessionInfo `json:"active_sessions"`
}

type ActiveSessionInfo struct {
	TelegramUsername string              `json:"telegram_username"`
	FullName         string              `json:"full_name"`
	Subject          string              `json:"subject"`
	Chapter          string              `json:"chapter"`
	Phase            string              `json:"phase"`
	CurrentQuestion  *ActiveQuestionInfo `json:"current_question,omitempty"`
	CorrectCount     int                 `json:"correct_count"`
	IncorrectCount   int                 `json:"incorrect_count"`
	SkippedCount     int                 `json:"skipped_count"`
	AnsweredCount    int                 `json:"answered_count"`
	TotalDelivered   int                 `json:"total_delivered"`
	ElapsedSeconds   int                 `json:"elapsed_seconds"`
}

type ActiveQuestionInfo struct {
	QuestionID   int64    `json:"question_id"`
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options"`
}
