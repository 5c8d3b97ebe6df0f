package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/emotionalcenter/amistapp/internal/ledger"
	"github.com/emotionalcenter/amistapp/internal/memstore"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func TestColName(t *testing.T) {
	cases := map[int]string{1: "A", 8: "H", 26: "Z", 27: "AA", 52: "AZ", 53: "BA"}
	for n, want := range cases {
		if got := colName(n); got != want {
			t.Fatalf("colName(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestStatementFilename(t *testing.T) {
	got := StatementFilename(" Ana / Pérez ", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	want := "Estado de cuenta - Ana _ Pérez - 2025-03-10.xlsx"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStatement_RunningBalance(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memstore.New(), nil)
	teacher, err := l.OpenAccount(ctx, ledger.NewAccount{Role: models.Teacher, Name: "Profe", InitialBalance: 100})
	if err != nil {
		t.Fatal(err)
	}
	ana, err := l.OpenAccount(ctx, ledger.NewAccount{Role: models.Student, TeacherID: &teacher.ID, Name: "Ana"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Transfer(ctx, teacher.ID, ana.ID, 30, "ayudó", ledger.WithKind(models.KindAward)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Debit(ctx, ana.ID, 12, "canje", ledger.WithKind(models.KindRedemption)); err != nil {
		t.Fatal(err)
	}

	wb, acc, err := Statement(ctx, l, ana.ID, 0, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()
	if acc.Balance != 18 {
		t.Fatalf("balance = %d", acc.Balance)
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Movimientos")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("want header + 2 rows, got %d", len(rows))
	}
	// новые сверху: сначала списание, потом начисление
	if rows[1][1] != "Canje de premio" || rows[1][6] != "12" || rows[1][7] != "18" {
		t.Fatalf("row 1 = %v", rows[1])
	}
	if rows[2][3] != "Profe" || rows[2][5] != "30" || rows[2][7] != "30" {
		t.Fatalf("row 2 = %v", rows[2])
	}

	summary, err := f.GetRows("Resumen")
	if err != nil {
		t.Fatal(err)
	}
	if summary[1][1] != "Ana" || summary[3][1] != "18" {
		t.Fatalf("summary = %v", summary)
	}
}

func TestRoster(t *testing.T) {
	wb, err := Roster([]models.Account{{Name: "Ana", Balance: 5}, {Name: "Beto", Balance: 7, Frozen: true}})
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()
	rows, err := wb.File.GetRows("Alumnos")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[2][2] != "Congelada" {
		t.Fatalf("rows = %v", rows)
	}
}
