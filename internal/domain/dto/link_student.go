package dto

// LinkStudentRequest — заявка школы на привязку Telegram-аккаунта к ученику.
type LinkStudentRequest struct {
	TelegramUsername string `json:"telegram_username"`
	FullName         string `json:"full_name"`
	BackendID        int64  `json:"backend_id"`
	ClassID          int    `json:"class_id"`
	Role             string `json:"role"`
	APIToken         string `json:"api_token"`
}

type LinkStudentResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}
