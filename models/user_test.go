package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeEmbeddingBank(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int // vectors
		wantErr bool
	}{
		{"empty column", "", 0, false},
		{"list of vectors", "[[1,0],[0,1]]", 2, false},
		{"legacy single vector", "[0.1,0.2,0.3]", 1, false},
		{"empty list", "[]", 0, false},
		{"garbage", `{"not":"a vector"}`, 0, true},
		{"string payload", `"hello"`, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeEmbeddingBank(json.RawMessage(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("DecodeEmbeddingBank(%q) succeeded, want error", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeEmbeddingBank(%q) failed: %v", tc.raw, err)
			}
			if len(got) != tc.want {
				t.Errorf("got %d vectors, want %d", len(got), tc.want)
			}
		})
	}
}

func TestDecodeEmbeddingBankLegacyShape(t *testing.T) {
	got, err := DecodeEmbeddingBank(json.RawMessage("[0.5,0.5]"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got) != 1 || len(got[0]) != 2 || got[0][0] != 0.5 {
		t.Errorf("legacy vector decoded as %v, want single two-dim sample", got)
	}
}

func TestEncodeEmbeddingBankAlwaysList(t *testing.T) {
	raw, err := EncodeEmbeddingBank(nil)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if string(raw) != "[]" {
		t.Errorf("nil bank encoded as %s, want []", raw)
	}

	raw, err = EncodeEmbeddingBank([][]float64{{1, 0}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	roundTrip, err := DecodeEmbeddingBank(raw)
	if err != nil || len(roundTrip) != 1 {
		t.Errorf("round trip gave %v (%v)", roundTrip, err)
	}
}

func TestDecodeVector(t *testing.T) {
	if got := DecodeVector(nil); got != nil {
		t.Errorf("DecodeVector(nil) = %v, want nil", got)
	}
	if got := DecodeVector(json.RawMessage("not json")); got != nil {
		t.Errorf("DecodeVector(garbage) = %v, want nil", got)
	}
	got := DecodeVector(json.RawMessage("[1,2,3]"))
	if len(got) != 3 || got[2] != 3 {
		t.Errorf("DecodeVector = %v, want [1 2 3]", got)
	}
}

func TestEncodeVector(t *testing.T) {
	if got := EncodeVector(nil); got != nil {
		t.Errorf("EncodeVector(nil) = %s, want nil", got)
	}
	if got := EncodeVector([]float64{0.5}); string(got) != "[0.5]" {
		t.Errorf("EncodeVector = %s, want [0.5]", got)
	}
}

func TestAttendanceClosedAndOnBreak(t *testing.T) {
	now := time.Now()

	rec := Attendance{}
	if rec.Closed() || rec.OnBreak() {
		t.Error("empty record reports closed or on break")
	}

	rec.BreakStart = &now
	if !rec.OnBreak() {
		t.Error("open break not reported")
	}

	rec.BreakEnd = &now
	if rec.OnBreak() {
		t.Error("finished break still reported as on break")
	}

	rec.CheckOut = &now
	if !rec.Closed() {
		t.Error("checked-out record not reported closed")
	}
}
