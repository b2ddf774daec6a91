package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dhanush-hc/hrms-backend-go/internal/domain/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/handler/http/response"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListPending(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	RegisterProfileImage(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	approvalService   attendance.ApprovalService
	profileRegistrar  ProfileImageRegistrar
}

// ProfileImageRegistrar stores a reference image for identity verification.
type ProfileImageRegistrar interface {
	RegisterReference(ctx context.Context, employeeID, photoBase64 string) (string, error)
}

func NewAttendanceHandler(
	attendanceService attendance.AttendanceService,
	approvalService attendance.ApprovalService,
	profileRegistrar ProfileImageRegistrar,
) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		approvalService:   approvalService,
		profileRegistrar:  profileRegistrar,
	}
}

// Submit implements AttendanceHandler.
func (h *attendanceHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Invalid or expired token")
		return
	}
	if claims.EmployeeID == "" {
		response.Forbidden(w, "Token is not linked to an employee")
		return
	}

	var req attendance.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = claims.EmployeeID

	result, err := h.attendanceService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance recorded", result)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Invalid or expired token")
		return
	}
	if claims.EmployeeID == "" {
		response.Forbidden(w, "Token is not linked to an employee")
		return
	}

	result, err := h.attendanceService.ListMine(r.Context(), claims.EmployeeID, parseListFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Get implements AttendanceHandler. Employees may read their own records;
// reviewers may read any record.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Invalid or expired token")
		return
	}

	id := chi.URLParam(r, "id")
	result, err := h.attendanceService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !claims.IsReviewer() && result.EmployeeID != claims.EmployeeID {
		response.Forbidden(w, "You may only view your own attendance")
		return
	}

	response.Success(w, result)
}

// ListPending implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.ListPending(r.Context(), parseListFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Approve implements AttendanceHandler.
func (h *attendanceHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// Reject implements AttendanceHandler.
func (h *attendanceHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *attendanceHandlerImpl) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Invalid or expired token")
		return
	}

	var req attendance.DecisionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}
	req.RecordID = chi.URLParam(r, "id")
	req.ReviewerID = claims.UserID

	var result attendance.RecordResponse
	if approve {
		result, err = h.approvalService.Approve(r.Context(), req)
	} else {
		result, err = h.approvalService.Reject(r.Context(), req)
	}
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Attendance approved"
	if !approve {
		message = "Attendance rejected"
	}
	response.SuccessWithMessage(w, message, result)
}

type profileImageRequest struct {
	Photo string `json:"photo"`
}

// RegisterProfileImage implements AttendanceHandler.
func (h *attendanceHandlerImpl) RegisterProfileImage(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Invalid or expired token")
		return
	}
	if claims.EmployeeID == "" {
		response.Forbidden(w, "Token is not linked to an employee")
		return
	}

	var req profileImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if req.Photo == "" {
		response.BadRequest(w, "Field 'photo' is required", nil)
		return
	}

	url, err := h.profileRegistrar.RegisterReference(r.Context(), claims.EmployeeID, req.Photo)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Profile image registered", map[string]interface{}{
		"profile_image_url": url,
	})
}

func parseListFilter(r *http.Request) attendance.ListFilter {
	filter := attendance.ListFilter{Page: 1, Limit: 20}

	if p := r.URL.Query().Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			filter.Page = pageNum
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			filter.Limit = limitNum
		}
	}

	return filter
}
