package app

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/config"
	"github.com/emotionalcenter/amistapp/internal/idempotency"
	"github.com/emotionalcenter/amistapp/internal/ledger"
	"github.com/emotionalcenter/amistapp/internal/memstore"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func TestOpen_InMemory(t *testing.T) {
	cfg := &config.Config{IdempotencyTTL: time.Minute}
	b, err := Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if _, ok := b.Store.(*memstore.Store); !ok {
		t.Fatalf("store = %T, want memstore", b.Store)
	}
	if _, ok := b.Guard.(*idempotency.Memory); !ok {
		t.Fatalf("guard = %T, want in-memory", b.Guard)
	}
	if b.DB != nil || b.Redis != nil {
		t.Fatal("no external connections expected")
	}
	if got := b.Sinks(cfg, zap.NewNop()); len(got) != 1 || got[0].Name() != "log" {
		t.Fatalf("sinks = %v", got)
	}
}

// Уведомления из сервисов должны оседать во входящих получателя.
func TestBuild_NotificationsReachInbox(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{IdempotencyTTL: time.Minute, StreakBonusEvery: 2, StreakBonusPoints: 3}
	store := memstore.New()
	a := Build(cfg, store, idempotency.NewMemory(), nil)

	teacher, err := a.Ledger.OpenAccount(ctx, ledger.NewAccount{Role: models.Teacher, Name: "Prof", InitialBalance: 10})
	if err != nil {
		t.Fatal(err)
	}
	student, err := a.Ledger.OpenAccount(ctx, ledger.NewAccount{Role: models.Student, TeacherID: &teacher.ID, Name: "Ana"})
	if err != nil {
		t.Fatal(err)
	}

	rep, err := a.Reports.Submit(ctx, student.ID, teacher.ID, "ayuda")
	if err != nil {
		t.Fatal(err)
	}
	list, err := a.Inbox.List(ctx, teacher.ID, true, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Metadata["report_id"] != rep.ID.String() {
		t.Fatalf("teacher inbox = %+v", list)
	}
}
