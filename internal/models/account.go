package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	Student Role = "student"
	Teacher Role = "teacher"
)

func (r Role) Valid() bool { return r == Student || r == Teacher }

// Account: участник учёта баллов. У ученика TeacherID обязателен, у учителя пуст.
type Account struct {
	ID             uuid.UUID  `json:"id"`
	Role           Role       `json:"role"`
	TeacherID      *uuid.UUID `json:"teacher_id,omitempty"`
	Name           string     `json:"name"`
	Balance        int64      `json:"balance"`
	InitialBalance int64      `json:"initial_balance"`
	Frozen         bool       `json:"frozen"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (a Account) IsStudentOf(teacherID uuid.UUID) bool {
	return a.Role == Student && a.TeacherID != nil && *a.TeacherID == teacherID
}

// Reconciliation: результат сверки баланса с журналом движений.
type Reconciliation struct {
	AccountID uuid.UUID `json:"account_id"`
	Balance   int64     `json:"balance"`
	Expected  int64     `json:"expected"`
}

func (r Reconciliation) Consistent() bool { return r.Balance == r.Expected }
