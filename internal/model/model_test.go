package model

import (
	"testing"
	"time"
)

func TestEntitledTrialingWithFutureTrialEnd(t *testing.T) {
	now := time.Now()
	end := now.Add(24 * time.Hour)
	sub := &Subscription{Status: StatusTrialing, FreeTrialEnd: &end}
	if !sub.Entitled(now) {
		t.Error("expected entitled for trialing with future trial end")
	}
}

func TestEntitledTrialingExpired(t *testing.T) {
	now := time.Now()
	end := now.Add(-24 * time.Hour)
	sub := &Subscription{Status: StatusTrialing, FreeTrialEnd: &end}
	if sub.Entitled(now) {
		t.Error("expected not entitled for trialing with past trial end")
	}
}

func TestEntitledCanceled(t *testing.T) {
	sub := &Subscription{Status: StatusCanceled}
	if sub.Entitled(time.Now()) {
		t.Error("expected not entitled for canceled status")
	}
}

func TestEntitledActiveNoTrial(t *testing.T) {
	sub := &Subscription{Status: StatusActive}
	if !sub.Entitled(time.Now()) {
		t.Error("expected entitled for active with no trial window")
	}
}

func TestEntitledPastDue(t *testing.T) {
	sub := &Subscription{Status: StatusPastDue}
	if sub.Entitled(time.Now()) {
		t.Error("expected not entitled for past_due status")
	}
}

func TestEntitledNil(t *testing.T) {
	var sub *Subscription
	if sub.Entitled(time.Now()) {
		t.Error("expected not entitled for missing record")
	}
}
