package feature

import (
	"testing"
	"time"
)

func TestValueKinds(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"null", Null(), KindNull},
		{"zero value", Value{}, KindNull},
		{"string", String("road"), KindString},
		{"float", Float(2.5), KindFloat},
		{"int", Int(42), KindInt},
		{"bool", Bool(true), KindBool},
		{"time", Time(now), KindTime},
		{"bytes", Bytes([]byte{1, 2}), KindBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Kind(); got != tt.kind {
				t.Errorf("Kind() = %v, want %v", got, tt.kind)
			}
		})
	}
}

func TestValueEqual(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal strings", String("a"), String("a"), true},
		{"different strings", String("a"), String("b"), false},
		{"string vs int", String("1"), Int(1), false},
		{"equal ints", Int(7), Int(7), true},
		{"int vs float same number", Int(1), Float(1), false},
		{"null equals null", Null(), Null(), true},
		{"null vs string", Null(), String(""), false},
		{"equal times", Time(now), Time(now), true},
		{"equal bytes", Bytes([]byte{1, 2}), Bytes([]byte{1, 2}), true},
		{"different bytes", Bytes([]byte{1}), Bytes([]byte{2}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueBytesCopied(t *testing.T) {
	src := []byte{1, 2, 3}
	v := Bytes(src)

	src[0] = 99
	got, ok := v.AsBytes()
	if !ok {
		t.Fatal("AsBytes() ok = false")
	}
	if got[0] != 1 {
		t.Errorf("value observed caller mutation: got[0] = %d, want 1", got[0])
	}

	got[1] = 99
	again, _ := v.AsBytes()
	if again[1] != 2 {
		t.Errorf("value observed output mutation: again[1] = %d, want 2", again[1])
	}
}

func TestValueAccessorsWrongKind(t *testing.T) {
	v := String("x")

	if _, ok := v.AsInt(); ok {
		t.Error("AsInt() on string = ok, want !ok")
	}
	if _, ok := v.AsFloat(); ok {
		t.Error("AsFloat() on string = ok, want !ok")
	}
	if _, ok := Null().AsString(); ok {
		t.Error("AsString() on null = ok, want !ok")
	}
}

func TestFromInterfaceRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"string", "road", String("road")},
		{"float64", 2.5, Float(2.5)},
		{"int", 42, Int(42)},
		{"int64", int64(42), Int(42)},
		{"bool", true, Bool(true)},
		{"unsupported", struct{}{}, Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromInterface(tt.in); !got.Equal(tt.want) {
				t.Errorf("FromInterface(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
