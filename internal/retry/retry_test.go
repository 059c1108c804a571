package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/logger"
)

func fastPolicy() Policy {
	return Policy{
		ConnectTimeout: 500 * time.Millisecond,
		RetryInterval:  5 * time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  2,
	}
}

func TestConnectSucceedsAfterRetries(t *testing.T) {
	log := logger.New("error", false)
	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	if err := Connect(context.Background(), Target{Service: "test", Addr: "local"}, fastPolicy(), ping, log); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("ping called %d times, want 3", calls)
	}
}

func TestConnectTimesOut(t *testing.T) {
	log := logger.New("error", false)
	policy := fastPolicy()
	policy.ConnectTimeout = 60 * time.Millisecond
	down := errors.New("down")

	err := Connect(context.Background(), Target{Service: "test", Addr: "local"}, policy,
		func(context.Context) error { return down }, log)
	if !errors.Is(err, down) {
		t.Errorf("Connect() error = %v, want wrapped %v", err, down)
	}
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr bool
	}{
		{"valid", func(*Policy) {}, false},
		{"zero connect timeout", func(p *Policy) { p.ConnectTimeout = 0 }, true},
		{"zero retry interval", func(p *Policy) { p.RetryInterval = 0 }, true},
		{"zero max wait", func(p *Policy) { p.MaxWait = 0 }, true},
		{"zero ping timeout", func(p *Policy) { p.PingTimeout = 0 }, true},
		{"negative warn threshold", func(p *Policy) { p.WarnThreshold = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fastPolicy()
			tt.mutate(&p)
			if err := p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
