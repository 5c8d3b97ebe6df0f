package models

import (
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResponded ReportStatus = "responded"
	ReportRejected  ReportStatus = "rejected"
)

type Report struct {
	ID              uuid.UUID    `json:"id"`
	StudentID       uuid.UUID    `json:"student_id"`
	TeacherID       uuid.UUID    `json:"teacher_id"`
	Body            string       `json:"body"`
	Status          ReportStatus `json:"status"`
	ResponseMessage *string      `json:"response_message,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	RespondedAt     *time.Time   `json:"responded_at,omitempty"`
}

type ReportFilter struct {
	StudentID *uuid.UUID
	TeacherID *uuid.UUID
	Status    *ReportStatus
}
