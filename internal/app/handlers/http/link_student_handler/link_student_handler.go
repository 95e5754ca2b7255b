package link_student_handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/schooldesk/mcq-bot/internal/domain/dto"
	"github.com/schooldesk/mcq-bot/internal/domain/model"
	studentsService "github.com/schooldesk/mcq-bot/internal/domain/students/service"
	httpError "github.com/schooldesk/mcq-bot/pkg/http"
)

// LinkStudentHandler — служебный эндпоинт школы: заводит отложенную
// привязку Telegram-аккаунта к ученику. Привязка активируется при первом
// /start пользователя с совпадающим username.
type LinkStudentHandler struct {
	studentService *studentsService.StudentService
}

func NewLinkStudentHandler(studentService *studentsService.StudentService) *LinkStudentHandler {
	return &LinkStudentHandler{studentService: studentService}
}

func (h *LinkStudentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request dto.LinkStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httpError.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	student := &model.Student{
		TelegramUsername: request.TelegramUsername,
		FullName:         request.FullName,
		BackendID:        request.BackendID,
		ClassID:          request.ClassID,
		Role:             request.Role,
		APIToken:         request.APIToken,
	}

	id, err := h.studentService.Link(ctx, student)
	if err != nil {
		httpError.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Failed to link student: %v", err))
		return
	}

	response := dto.LinkStudentResponse{ID: id, Message: "student link created"}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		httpError.ErrorResponse(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
}
