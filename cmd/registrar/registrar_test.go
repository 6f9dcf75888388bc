package main

import (
	"bytes"
	"os"
	"syscall"
	"testing"

	"event-registration/models"
	"event-registration/paymentflow"
	"event-registration/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptGuard(t *testing.T) {
	cancelled := 0
	var out bytes.Buffer
	g := newInterruptGuard(func() { cancelled++ }, &out)

	g.Engage()
	assert.True(t, g.handle(os.Interrupt))
	assert.Zero(t, cancelled)
	assert.Contains(t, out.String(), leaveWarning)

	assert.False(t, g.handle(syscall.SIGTERM), "SIGTERM is never swallowed")
	assert.Equal(t, 1, cancelled)

	g.Release()
	assert.False(t, g.handle(os.Interrupt))
	assert.Equal(t, 2, cancelled)
}

func TestSportLookup(t *testing.T) {
	cfg := cliConfig{Sports: []models.Sport{{ID: "chess", Name: "Chess", Fee: 500}}}

	s, err := cfg.sport("CHESS")
	require.NoError(t, err)
	assert.Equal(t, "Chess", s.Name)

	_, err = cfg.sport("polo")
	assert.ErrorContains(t, err, "unknown sport")
}

func TestSessionStoreDrivers(t *testing.T) {
	cfg := cliConfig{Session: sessionConfig{Driver: "file", Dir: t.TempDir()}}
	s, err := cfg.sessionStore()
	require.NoError(t, err)
	assert.IsType(t, &session.File{}, s)

	cfg.Session.Driver = "memory"
	s, err = cfg.sessionStore()
	require.NoError(t, err)
	assert.IsType(t, &session.Memory{}, s)

	cfg.Session.Driver = "carrier-pigeon"
	_, err = cfg.sessionStore()
	assert.Error(t, err)
}

func TestRendererShowsActions(t *testing.T) {
	var out bytes.Buffer
	r := renderer{out: &out}

	r.show(paymentflow.Snapshot{State: paymentflow.Idle})
	assert.Empty(t, out.String())

	r.show(paymentflow.Snapshot{State: paymentflow.Failed, RetryMode: paymentflow.RetryVerify, Message: paymentflow.MsgResumeFound})
	assert.Contains(t, out.String(), "Payment failed")
	assert.Contains(t, out.String(), paymentflow.MsgResumeFound)
	assert.Contains(t, out.String(), "[Retry Save] [Close]")

	out.Reset()
	r.fieldErrors(map[string]string{"name": "Name is required", "email": "Enter a valid email address"})
	assert.Equal(t, "  email: Enter a valid email address\n  name: Name is required\n", out.String())
}
