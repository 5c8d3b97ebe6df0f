package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/models"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := ActorFrom(ctx); ok {
		t.Fatal("empty context must not carry an actor")
	}
	a := Actor{ID: uuid.New(), Role: models.Teacher}
	got, ok := ActorFrom(WithActor(ctx, a))
	if !ok || got != a {
		t.Fatalf("got %+v ok=%v", got, ok)
	}
}

func TestWithDBTimeout_KeepsShorterParentDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, c2 := WithDBTimeout(parent)
	defer c2()
	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("no deadline")
	}
	if time.Until(dl) > 100*time.Millisecond {
		t.Fatalf("deadline extended: %s", time.Until(dl))
	}
}

func TestWithDBTimeout_Default(t *testing.T) {
	ctx, cancel := WithDBTimeout(context.Background())
	defer cancel()
	dl, _ := ctx.Deadline()
	if d := time.Until(dl); d <= DefaultDBTimeout-time.Second || d > DefaultDBTimeout {
		t.Fatalf("unexpected deadline %s", d)
	}
}
