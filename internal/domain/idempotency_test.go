package domain

import (
	"net/http"
	"testing"
	"time"
)

func TestIdempotencyStatusFor(t *testing.T) {
	tests := []struct {
		httpStatus int
		want       IdempotencyStatus
	}{
		{httpStatus: http.StatusCreated, want: IdempotencyStatusDone},
		{httpStatus: http.StatusConflict, want: IdempotencyStatusDone},
		{httpStatus: http.StatusUnprocessableEntity, want: IdempotencyStatusDone},
		{httpStatus: http.StatusInternalServerError, want: IdempotencyStatusFailed},
		{httpStatus: http.StatusBadGateway, want: IdempotencyStatusFailed},
	}

	for _, tc := range tests {
		if got := IdempotencyStatusFor(tc.httpStatus); got != tc.want {
			t.Fatalf("status for %d = %q, want %q", tc.httpStatus, got, tc.want)
		}
		if !IdempotencyStatusFor(tc.httpStatus).Valid() {
			t.Fatalf("status for %d must be valid", tc.httpStatus)
		}
	}
	if IdempotencyStatus("replayed").Valid() {
		t.Fatal("unknown status must be invalid")
	}
}

func TestIdempotencyRecord_ReplayAndExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	record := IdempotencyRecord{
		Key:        "customer-1:checkout-42",
		HTTPStatus: http.StatusCreated,
		Status:     IdempotencyStatusDone,
		TTLAt:      now.Add(time.Hour),
	}

	if !record.Replayable() {
		t.Fatal("stored order response must be replayable")
	}
	if record.ExpiredAt(now) {
		t.Fatal("key must live until ttl")
	}
	if !record.ExpiredAt(now.Add(time.Hour)) {
		t.Fatal("key must expire exactly at ttl")
	}

	for _, status := range []IdempotencyStatus{IdempotencyStatusProcessing, IdempotencyStatusFailed} {
		record.Status = status
		if record.Replayable() {
			t.Fatalf("%s record must not be replayed", status)
		}
	}
}
