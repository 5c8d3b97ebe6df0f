package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

const reportCols = `id, student_id, teacher_id, body, status, response_message, created_at, responded_at`

func scanReport(r rowScanner) (models.Report, error) {
	var (
		rep      models.Report
		msg      sql.NullString
		answered sql.NullTime
	)
	if err := r.Scan(&rep.ID, &rep.StudentID, &rep.TeacherID, &rep.Body, &rep.Status, &msg, &rep.CreatedAt, &answered); err != nil {
		return models.Report{}, err
	}
	rep.ResponseMessage = strPtr(msg)
	if answered.Valid {
		t := answered.Time
		rep.RespondedAt = &t
	}
	return rep, nil
}

func (s *Store) CreateReport(ctx context.Context, rep models.Report) (models.Report, error) {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reports (id, student_id, teacher_id, body, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, rep.ID, rep.StudentID, rep.TeacherID, rep.Body, rep.Status).Scan(&rep.CreatedAt)
	if err != nil {
		return models.Report{}, mapErr("db.CreateReport", err)
	}
	return rep, nil
}

func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (models.Report, error) {
	rep, err := scanReport(s.db.QueryRowContext(ctx, `SELECT `+reportCols+` FROM reports WHERE id = $1`, id))
	if err != nil {
		return models.Report{}, notFound("db.GetReport", err, apperr.ErrUnknownReport)
	}
	return rep, nil
}

// RespondReport: только из pending, условным UPDATE.
func (s *Store) RespondReport(ctx context.Context, id uuid.UUID, status models.ReportStatus, message *string) (models.Report, error) {
	const op = "db.RespondReport"
	rep, err := scanReport(s.db.QueryRowContext(ctx, `
		UPDATE reports
		SET status = $2, response_message = $3, responded_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+reportCols, id, status, nullString(message)))
	if err == nil {
		return rep, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Report{}, mapErr(op, err)
	}
	cur, err := s.GetReport(ctx, id)
	if err != nil {
		return models.Report{}, err
	}
	return models.Report{}, apperr.New(op, apperr.ErrInvalidTransition, "%s -> %s", cur.Status, status)
}

func (s *Store) ListReports(ctx context.Context, f models.ReportFilter) ([]models.Report, error) {
	const op = "db.ListReports"
	q := `SELECT ` + reportCols + ` FROM reports WHERE true`
	var args []any
	idx := 1
	if f.StudentID != nil {
		q += fmt.Sprintf(" AND student_id = $%d", idx)
		args = append(args, *f.StudentID)
		idx++
	}
	if f.TeacherID != nil {
		q += fmt.Sprintf(" AND teacher_id = $%d", idx)
		args = append(args, *f.TeacherID)
		idx++
	}
	if f.Status != nil {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, *f.Status)
	}
	q += " ORDER BY seq DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, rep)
	}
	return out, mapErr(op, rows.Err())
}
