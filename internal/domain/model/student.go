package model

import "time"

// Роли пользователей бота.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Student — локальная привязка Telegram-аккаунта к ученику (или учителю)
// школьного бэкенда. TelegramID == nil у записей, заведённых заранее
// (привязка активируется при первом /start по username).
type Student struct {
	ID               int64     `json:"id"`
	TelegramID       *int64    `json:"telegram_id,omitempty"`
	TelegramUsername string    `json:"telegram_username"`
	FullName         string    `json:"full_name"`
	BackendID        int64     `json:"backend_id"`
	ClassID          int       `json:"class_id"`
	Role             string    `json:"role"`
	APIToken         string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
