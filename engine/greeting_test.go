package engine

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestIsGreeting(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"hi", true},
		{"Hi!", true},
		{"hello", true},
		{"HELLO", true},
		{"hey there", true},
		{"good morning", true},
		{"Good evening!", true},
		{"hello, how are you?", true},
		{"hi bot", true},
		{"", false},
		{"what is my balance?", false},
		{"show me USD rates", false},
		{"the highest rate", false},
		{"which bank is best for savings accounts today", false},
	}
	for _, tc := range cases {
		if got := IsGreeting(tc.message); got != tc.want {
			t.Errorf("IsGreeting(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}

func TestSalutation(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{0, "Good morning"},
		{9, "Good morning"},
		{11, "Good morning"},
		{12, "Good afternoon"},
		{16, "Good afternoon"},
		{17, "Good evening"},
		{23, "Good evening"},
	}
	for _, tc := range cases {
		at := time.Date(2026, 8, 29, tc.hour, 30, 0, 0, time.UTC)
		if got := salutation(at); got != tc.want {
			t.Errorf("salutation(hour=%d) = %q, want %q", tc.hour, got, tc.want)
		}
	}
}

func TestPersonalizedGreeting(t *testing.T) {
	store := newTestFinstore(t)
	insertTestUser(t, store)
	morning := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)

	greeting := personalizedGreeting(context.Background(), store, "1", morning)
	if !strings.HasPrefix(greeting, "Good morning, Ahmad!") {
		t.Errorf("greeting = %q", greeting)
	}
	if !strings.Contains(greeting, "any connected bank accounts yet") {
		t.Errorf("greeting should mention the empty account list: %q", greeting)
	}
}

func TestPersonalizedGreetingFallsBack(t *testing.T) {
	store := newTestFinstore(t)
	now := time.Now()

	if got := personalizedGreeting(context.Background(), store, "missing", now); got != fallbackGreeting {
		t.Errorf("unknown user: greeting = %q", got)
	}
	if got := personalizedGreeting(context.Background(), nil, "1", now); got != fallbackGreeting {
		t.Errorf("nil store: greeting = %q", got)
	}
}
