package httpserver

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
)

func TestWithUserID_And_UserIDFromCtx(t *testing.T) {
	t.Parallel()

	if id, ok := UserIDFromCtx(context.Background()); ok || id != uuid.Nil {
		t.Fatalf("empty ctx must not carry a user id")
	}

	want := uuid.Must(uuid.NewV4())
	ctx := WithUserID(context.Background(), want)
	got, ok := UserIDFromCtx(ctx)
	if !ok || got != want {
		t.Fatalf("got %v ok=%v", got, ok)
	}
}

func TestUserIDFromCtx_WrongType(t *testing.T) {
	t.Parallel()
	type otherKey string
	const k otherKey = "lumina.userID"
	bad := context.WithValue(context.Background(), k, "not-uuid")
	if id, ok := UserIDFromCtx(bad); ok || id != uuid.Nil {
		t.Fatalf("foreign key must not leak a user id")
	}
}
