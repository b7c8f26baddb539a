package domain

import (
	"context"
	"testing"
)

func TestPrincipalContext(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Fatal("expected no principal in empty context")
	}

	ctx := WithPrincipal(context.Background(), &Principal{OwnerID: "owner-1", Role: RoleOwner})
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.OwnerID != "owner-1" {
		t.Fatalf("expected principal owner-1, got %+v", p)
	}
}

func TestRole(t *testing.T) {
	if !RoleOwner.IsValid() || !RoleViewer.IsValid() {
		t.Fatal("expected known roles to be valid")
	}
	if Role("admin").IsValid() {
		t.Fatal("expected unknown role to be invalid")
	}
	if !RoleOwner.CanWrite() || RoleViewer.CanWrite() {
		t.Fatal("only owners may write")
	}
}
