package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	dirapp "github.com/schoolfee/backend/internal/application/directory"
)

// DirectoryService keeps the billing view of students and teachers in sync
// with the owning school system
type DirectoryService interface {
	UpsertStudent(ctx context.Context, tenantID, id uuid.UUID, req dirapp.UpsertStudentRequest) (*dirapp.StudentResponse, error)
	GetStudent(ctx context.Context, tenantID, id uuid.UUID) (*dirapp.StudentResponse, error)
	UpsertTeacher(ctx context.Context, tenantID, id uuid.UUID, req dirapp.UpsertTeacherRequest) (*dirapp.TeacherResponse, error)
	GetTeacher(ctx context.Context, tenantID, id uuid.UUID) (*dirapp.TeacherResponse, error)
	UpsertAttendance(ctx context.Context, tenantID, teacherID uuid.UUID, req dirapp.UpsertAttendanceRequest) (*dirapp.AttendanceResponse, error)
}

// DirectoryHandler serves the student and teacher sync endpoints
type DirectoryHandler struct {
	BaseHandler
	directory DirectoryService
}

// NewDirectoryHandler creates a new DirectoryHandler
func NewDirectoryHandler(directory DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// UpsertStudent handles PUT /directory/students/:id
func (h *DirectoryHandler) UpsertStudent(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dirapp.UpsertStudentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	student, err := h.directory.UpsertStudent(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, student)
}

// GetStudent handles GET /directory/students/:id
func (h *DirectoryHandler) GetStudent(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	student, err := h.directory.GetStudent(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, student)
}

// UpsertTeacher handles PUT /directory/teachers/:id
func (h *DirectoryHandler) UpsertTeacher(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dirapp.UpsertTeacherRequest
	if !h.bindJSON(c, &req) {
		return
	}
	teacher, err := h.directory.UpsertTeacher(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, teacher)
}

// GetTeacher handles GET /directory/teachers/:id
func (h *DirectoryHandler) GetTeacher(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	teacher, err := h.directory.GetTeacher(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, teacher)
}

// UpsertAttendance handles PUT /directory/teachers/:id/attendance
func (h *DirectoryHandler) UpsertAttendance(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dirapp.UpsertAttendanceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	attendance, err := h.directory.UpsertAttendance(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, attendance)
}
