package middleware

import (
	"fmt"

	tele "gopkg.in/telebot.v4"
)

// DebugUserActions возвращает middleware, которое при включённом режиме
// отладки отправляет пользователю отладочное сообщение: имя, ID, текущая
// фаза практики и описание действия. Фазу поставляет describe — так пакет
// не зависит от контроллера сессий напрямую.
func DebugUserActions(enabled bool, describe func(userID int64) string) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			err := next(c)
			if enabled {
				user := c.Sender()
				if user == nil {
					return err
				}
				phase := ""
				if describe != nil {
					phase = describe(user.ID)
				}
				var action string
				if cb := c.Callback(); cb != nil {
					action = "Callback: " + cb.Data
				} else if msg := c.Message(); msg != nil {
					action = "Message: " + msg.Text
				} else {
					action = "Unknown action"
				}
				debugMsg := fmt.Sprintf("DEBUG: User: %s (ID: %d), Phase: %s, Action: %s",
					user.FirstName, user.ID, phase, action)
				// Отправляем в отдельной горутине, чтобы не блокировать обработку.
				go c.Bot().Send(user, debugMsg)
			}
			return err
		}
	}
}
