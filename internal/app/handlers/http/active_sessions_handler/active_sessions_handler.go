package active_sessions_handler

import (
	"encoding/json"
	"net/http"

	"github.com/schooldesk/mcq-bot/internal/domain/dto"
	quizService "github.com/schooldesk/mcq-bot/internal/domain/quiz/service"
	"github.com/schooldesk/mcq-bot/internal/domain/students/repository"
	httpError "github.com/schooldesk/mcq-bot/pkg/http"
)

// ActiveSessionsHandler — отчёт по идущим практикам для служебного API
// школы: кто практикуется, на каком вопросе и с какими счётчиками.
type ActiveSessionsHandler struct {
	studentRepo *repository.StudentRepository
	quizService *quizService.QuizService
}

func NewActiveSessionsHandler(
	studentRepo *repository.StudentRepository,
	quizService *quizService.QuizService,
) *ActiveSessionsHandler {
	return &ActiveSessionsHandler{
		studentRepo: studentRepo,
		quizService: quizService,
	}
}

func (h *ActiveSessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	states := h.quizService.ActiveStates()

	sessions := make([]dto.ActiveSessionInfo, 0, len(states))
	for telegramID, st := range states {
		info := dto.ActiveSessionInfo{
			Subject:        st.Subject,
			Chapter:        st.Chapter,
			Phase:          string(st.Phase),
			TotalDelivered: len(st.Questions),
			ElapsedSeconds: st.ElapsedSec,
		}
		if st.Session != nil {
			info.CorrectCount = st.Session.CorrectCount
			info.IncorrectCount = st.Session.IncorrectCount
			info.SkippedCount = st.Session.SkippedCount
			info.AnsweredCount = st.Session.Answered()
		}
		if q, ok := st.CurrentQuestion(); ok && st.Phase == quizService.PhaseActive {
			info.CurrentQuestion = &dto.ActiveQuestionInfo{
				QuestionID:   q.Question.ID,
				QuestionText: q.Question.QuestionText,
				Options:      q.Question.Options,
			}
		}
		student, err := h.studentRepo.GetByTelegramID(ctx, telegramID)
		if err != nil {
			httpError.ErrorResponse(w, http.StatusInternalServerError, "Failed to resolve student")
			return
		}
		if student != nil {
			info.TelegramUsername = student.TelegramUsername
			info.FullName = student.FullName
		}
		sessions = append(sessions, info)
	}

	response := dto.ActiveSessionsResponse{
		TotalActiveUsers: len(sessions),
		ActiveSessions:   sessions,
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		httpError.ErrorResponse(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
}
