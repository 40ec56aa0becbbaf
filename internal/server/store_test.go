package server

import (
	"errors"
	"testing"
)

func TestStoreRedrawsTakenCodes(t *testing.T) {
	store := NewStore()
	draws := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	store.newCode = func() (string, error) {
		code := draws[0]
		draws = draws[1:]
		return code, nil
	}

	first, err := store.Create(&GameSession{})
	if err != nil || first != "AAAAAA" {
		t.Fatalf("expected AAAAAA, got %q (%v)", first, err)
	}
	second, err := store.Create(&GameSession{})
	if err != nil || second != "BBBBBB" {
		t.Fatalf("expected redraw to BBBBBB, got %q (%v)", second, err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", store.Len())
	}
	session, ok := store.Get("aaaaaa")
	if !ok || session.Code != "AAAAAA" {
		t.Fatalf("expected case-insensitive lookup, got %#v", session)
	}
}

func TestStoreCodeSpaceExhausted(t *testing.T) {
	store := NewStore()
	store.newCode = func() (string, error) { return "CCCCCC", nil }
	if _, err := store.Create(&GameSession{}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := store.Create(&GameSession{}); !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Fatalf("expected ErrCodeSpaceExhausted, got %v", err)
	}
}

func TestStoreRemoveAndEachOrder(t *testing.T) {
	store := NewStore()
	codes := []string{"ZZZZZZ", "MMMMMM", "DDDDDD"}
	store.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}
	for i := 0; i < 3; i++ {
		if _, err := store.Create(&GameSession{}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	store.Remove(" mmmmmm ")

	seen := make([]string, 0)
	store.Each(func(session *GameSession) bool {
		seen = append(seen, session.Code)
		return true
	})
	if len(seen) != 2 || seen[0] != "DDDDDD" || seen[1] != "ZZZZZZ" {
		t.Fatalf("unexpected visit order %v", seen)
	}
}

func TestJoinCodeShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := newJoinCode()
		if err != nil {
			t.Fatalf("newJoinCode: %v", err)
		}
		if !isJoinCode(code) {
			t.Fatalf("generated code %q is not a join code", code)
		}
	}
	if isJoinCode("ABC") || isJoinCode("ABCDE0") {
		t.Fatal("expected short codes and ambiguous characters to be rejected")
	}
}
