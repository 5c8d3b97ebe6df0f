package export

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/models"
)

// Source: то, что нужно выписке от учёта. *ledger.Ledger подходит.
type Source interface {
	Account(ctx context.Context, id uuid.UUID) (models.Account, error)
	Movements(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Movement, error)
}

var kindLabels = map[models.MovementKind]string{
	models.KindAward:       "Reconocimiento",
	models.KindPeerAward:   "Reconocimiento entre compañeros",
	models.KindStreakBonus: "Bono por racha",
	models.KindRedemption:  "Canje de premio",
	models.KindCredit:      "Abono",
	models.KindDebit:       "Cargo",
	models.KindReplenish:   "Recarga de presupuesto",
	models.KindTransfer:    "Transferencia",
}

func kindLabel(k models.MovementKind) string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

// Statement строит выписку по счёту: лист движений с остатком после каждой
// операции и лист-сводку. Остаток считается назад от текущего баланса, поэтому
// верен и при усечённом limit.
func Statement(ctx context.Context, src Source, accountID uuid.UUID, limit int, loc *time.Location) (*Workbook, models.Account, error) {
	if loc == nil {
		loc = time.UTC
	}
	acc, err := src.Account(ctx, accountID)
	if err != nil {
		return nil, models.Account{}, err
	}
	moves, err := src.Movements(ctx, accountID, limit)
	if err != nil {
		return nil, models.Account{}, err
	}

	names := map[uuid.UUID]string{acc.ID: acc.Name}
	name := func(id *uuid.UUID) string {
		if id == nil {
			return "-"
		}
		if n, ok := names[*id]; ok {
			return n
		}
		n := id.String()
		if a, err := src.Account(ctx, *id); err == nil {
			n = a.Name
		}
		names[*id] = n
		return n
	}

	rows := make([][]any, 0, len(moves))
	var in, out int64
	balance := acc.Balance
	for _, m := range moves {
		var credit, debit int64
		if m.To != nil && *m.To == acc.ID {
			credit = m.Amount
		}
		if m.From != nil && *m.From == acc.ID {
			debit = m.Amount
		}
		in += credit
		out += debit
		rows = append(rows, []any{
			m.CreatedAt.In(loc).Format("02.01.2006 15:04"),
			kindLabel(m.Kind),
			m.Reason,
			name(m.From),
			name(m.To),
			credit,
			debit,
			balance,
		})
		balance -= credit - debit
	}

	role := "Alumno"
	if acc.Role == models.Teacher {
		role = "Docente"
	}
	summary := [][]any{
		{"Cuenta", acc.Name},
		{"Rol", role},
		{"Saldo actual", acc.Balance},
		{"Saldo inicial", acc.InitialBalance},
		{"Entradas (periodo)", in},
		{"Salidas (periodo)", out},
		{"Movimientos", len(moves)},
	}
	if acc.Frozen {
		summary = append(summary, []any{"Estado", "Congelada"})
	}

	wb, err := NewWorkbook([]SheetSpec{
		{
			Title:  "Movimientos",
			Header: []string{"Fecha", "Tipo", "Motivo", "De", "Para", "Entrada", "Salida", "Saldo"},
			Rows:   rows,
		},
		{
			Title:  "Resumen",
			Header: []string{"Campo", "Valor"},
			Rows:   summary,
		},
	})
	if err != nil {
		return nil, models.Account{}, err
	}
	return wb, acc, nil
}

// Roster: список учеников учителя с балансами.
func Roster(students []models.Account) (*Workbook, error) {
	rows := make([][]any, 0, len(students))
	for _, s := range students {
		state := "Activa"
		if s.Frozen {
			state = "Congelada"
		}
		rows = append(rows, []any{s.Name, s.Balance, state, s.ID.String()})
	}
	return NewWorkbook([]SheetSpec{{
		Title:  "Alumnos",
		Header: []string{"Nombre", "Puntos", "Estado", "ID"},
		Rows:   rows,
	}})
}
