// Package report handles conduct reports a student files with their teacher.
// A report is answered once: pending -> responded | rejected.
package report

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/ctxutil"
	"github.com/emotionalcenter/amistapp/internal/models"
	"github.com/emotionalcenter/amistapp/internal/observability"
)

const MaxBodyLen = 4000

type Store interface {
	GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error)
	CreateReport(ctx context.Context, r models.Report) (models.Report, error)
	GetReport(ctx context.Context, id uuid.UUID) (models.Report, error)
	RespondReport(ctx context.Context, id uuid.UUID, status models.ReportStatus, message *string) (models.Report, error)
	ListReports(ctx context.Context, f models.ReportFilter) ([]models.Report, error)
}

type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type Workflow struct {
	store    Store
	notifier Notifier
	log      *zap.Logger
}

func New(store Store, n Notifier, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{store: store, notifier: n, log: log.Named("report")}
}

// Submit: teacherID должен быть учителем ученика, uuid.Nil выбирает его.
func (w *Workflow) Submit(ctx context.Context, studentID, teacherID uuid.UUID, body string) (models.Report, error) {
	const op = "report.Submit"
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > MaxBodyLen {
		return models.Report{}, w.fail(ctx, op, apperr.New(op, apperr.ErrInvalidInput, "body must be 1..%d characters", MaxBodyLen))
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	st, err := w.store.GetAccount(ctx, studentID)
	if err != nil && !errors.Is(err, apperr.ErrUnknownAccount) {
		return models.Report{}, w.fail(ctx, op, err)
	}
	if err != nil || st.Role != models.Student || st.TeacherID == nil {
		return models.Report{}, w.fail(ctx, op, apperr.E(op, apperr.ErrUnknownStudent))
	}
	if teacherID == uuid.Nil {
		teacherID = *st.TeacherID
	}
	if teacherID != *st.TeacherID {
		return models.Report{}, w.fail(ctx, op, apperr.New(op, apperr.ErrUnrelatedAccounts, "reports go to the student's own teacher"))
	}

	rep, err := w.store.CreateReport(ctx, models.Report{
		ID:        uuid.New(),
		StudentID: studentID,
		TeacherID: teacherID,
		Body:      body,
		Status:    models.ReportPending,
	})
	if err != nil {
		return models.Report{}, w.fail(ctx, op, err)
	}
	w.notifier.Notify(ctx, models.Notification{
		RecipientID: teacherID,
		Message:     st.Name + " envió un reporte",
		Metadata:    map[string]string{"kind": "report", "report_id": rep.ID.String()},
	})
	return rep, nil
}

// Respond переводит pending в responded (нужно сообщение) или rejected.
func (w *Workflow) Respond(ctx context.Context, teacherID, reportID uuid.UUID, status models.ReportStatus, message string) (models.Report, error) {
	const op = "report.Respond"
	message = strings.TrimSpace(message)
	switch status {
	case models.ReportResponded:
		if message == "" {
			return models.Report{}, w.fail(ctx, op, apperr.New(op, apperr.ErrInvalidInput, "message is required"))
		}
	case models.ReportRejected:
	default:
		return models.Report{}, w.fail(ctx, op, apperr.New(op, apperr.ErrInvalidTransition, "cannot move a report to %q", status))
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	cur, err := w.store.GetReport(ctx, reportID)
	if err != nil {
		return models.Report{}, w.fail(ctx, op, err)
	}
	if cur.TeacherID != teacherID {
		return models.Report{}, w.fail(ctx, op, apperr.New(op, apperr.ErrForbidden, "report belongs to another teacher"))
	}
	if cur.Status != models.ReportPending {
		return models.Report{}, w.fail(ctx, op, apperr.New(op, apperr.ErrInvalidTransition, "%s -> %s", cur.Status, status))
	}
	var msg *string
	if message != "" {
		msg = &message
	}
	rep, err := w.store.RespondReport(ctx, reportID, status, msg)
	if err != nil {
		return models.Report{}, w.fail(ctx, op, err)
	}
	w.log.Info("report answered", zap.String("report", rep.ID.String()), zap.String("status", string(rep.Status)))

	text := "Tu reporte fue rechazado"
	if status == models.ReportResponded {
		text = "Tu reporte recibió respuesta: " + message
	}
	w.notifier.Notify(ctx, models.Notification{
		RecipientID: rep.StudentID,
		Message:     text,
		Metadata:    map[string]string{"kind": "report", "report_id": rep.ID.String(), "status": string(rep.Status)},
	})
	return rep, nil
}

func (w *Workflow) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]models.Report, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return w.store.ListReports(ctx, models.ReportFilter{StudentID: &studentID})
}

// ListForTeacher; status nil: все.
func (w *Workflow) ListForTeacher(ctx context.Context, teacherID uuid.UUID, status *models.ReportStatus) ([]models.Report, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return w.store.ListReports(ctx, models.ReportFilter{TeacherID: &teacherID, Status: status})
}

func (w *Workflow) fail(ctx context.Context, op string, err error) error {
	return observability.Failed(ctx, w.log, op, err)
}
