package logger

import "testing"

func TestInit(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	if err := Init("debug"); err != nil {
		t.Fatalf("Init(debug): %v", err)
	}
	Log.Debugw("logger initialised", "test", t.Name())
	_ = Sync()
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
