package nvm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSerializerStartsUnlocked(t *testing.T) {
	s := newSerializer()
	if s.held() {
		t.Fatal("held() = true on new serializer")
	}
	if !s.tryAcquire() {
		t.Fatal("tryAcquire() = false on new serializer")
	}
	if s.tryAcquire() {
		t.Fatal("second tryAcquire() = true; want false")
	}
	s.release()
	if s.held() {
		t.Fatal("held() = true after release")
	}
}

func TestSerializerAcquireCancelled(t *testing.T) {
	s := newSerializer()
	if err := s.acquire(context.Background()); err != nil {
		t.Fatalf("acquire() err = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("acquire() while held err = %v; want DeadlineExceeded", err)
	}
	if !s.held() {
		t.Fatal("failed acquire released the holder")
	}
}

func TestSerializerHandOff(t *testing.T) {
	s := newSerializer()
	if err := s.acquire(context.Background()); err != nil {
		t.Fatalf("acquire() err = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.acquire(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("second acquire() returned while held")
	case <-time.After(20 * time.Millisecond):
	}

	s.release()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second acquire() err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second acquire() did not return after release")
	}
}

func TestSerializerReleaseUnheldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("release() of unheld serializer did not panic")
		}
	}()
	newSerializer().release()
}
