package main

import (
	"context"
	"iter"
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orchestration "github.com/koscakluka/ema-voice/core"
)

type controllerStub struct {
	state     orchestration.SessionState
	available bool
	startErr  error
	messages  []orchestration.Message

	starts  int
	stops   int
	outputs []string
}

func (c *controllerStub) StartListening(context.Context) error {
	c.starts++
	if c.startErr != nil {
		return c.startErr
	}
	c.state = orchestration.SessionListening
	return nil
}

func (c *controllerStub) StopListening() error {
	c.stops++
	c.state = orchestration.SessionIdle
	return nil
}

func (c *controllerStub) TestOutput(text string) error {
	c.outputs = append(c.outputs, text)
	return nil
}

func (c *controllerStub) SessionState() orchestration.SessionState { return c.state }

func (c *controllerStub) Conversation() iter.Seq[orchestration.Message] {
	return slices.Values(c.messages)
}

func (c *controllerStub) RecognitionAvailable() bool { return c.available }

func sized(t *testing.T, m model) model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(model)
}

// press sends a key and feeds the result of its command back into the model.
func press(t *testing.T, m model, keys ...rune) model {
	t.Helper()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: keys})
	if cmd != nil {
		updated, _ = updated.Update(cmd())
	}
	return updated.(model)
}

func TestViewShowsHintForEmptyConversation(t *testing.T) {
	m := sized(t, newModel(t.Context(), &controllerStub{available: true}))

	assert.Contains(t, m.View(), emptyHint)
	assert.Contains(t, m.View(), "Start Speaking")
}

func TestViewLabelsMessagesByRole(t *testing.T) {
	stub := &controllerStub{available: true, messages: []orchestration.Message{
		{ID: 1, Role: orchestration.RoleUser, Content: "hello"},
		{ID: 2, Role: orchestration.RoleAssistant, Content: orchestration.PlaceholderReply},
	}}
	m := sized(t, newModel(t.Context(), stub))

	view := m.View()
	assert.NotContains(t, view, emptyHint)
	assert.Contains(t, view, "You:")
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "Assistant:")
}

func TestToggleStartsAndStopsListening(t *testing.T) {
	stub := &controllerStub{available: true}
	m := sized(t, newModel(t.Context(), stub))

	m = press(t, m, ' ')
	require.Equal(t, 1, stub.starts)
	assert.Equal(t, orchestration.SessionListening, stub.state)

	m = press(t, m, ' ')
	assert.Equal(t, 1, stub.stops)
	assert.Equal(t, orchestration.SessionIdle, stub.state)
}

func TestToggleDoesNotStartListeningInsideUpdate(t *testing.T) {
	stub := &controllerStub{available: true}
	m := sized(t, newModel(t.Context(), stub))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})

	require.NotNil(t, cmd)
	assert.Zero(t, stub.starts)
	cmd()
	assert.Equal(t, 1, stub.starts)
}

func TestToggleReportsUnavailableRecognition(t *testing.T) {
	stub := &controllerStub{startErr: orchestration.ErrCapabilityUnavailable}
	m := sized(t, newModel(t.Context(), stub))

	m = press(t, m, ' ')

	assert.True(t, m.status.isErr)
	assert.Contains(t, m.View(), "Speech recognition unavailable")
	assert.Contains(t, m.View(), "not available here")
}

func TestTestOutputKeySpeaksSample(t *testing.T) {
	stub := &controllerStub{available: true}
	m := sized(t, newModel(t.Context(), stub))

	press(t, m, 't')

	assert.Equal(t, []string{sampleOutputText}, stub.outputs)
	assert.Empty(t, stub.messages)
}

func TestSessionStateMessageShowsListening(t *testing.T) {
	m := sized(t, newModel(t.Context(), &controllerStub{available: true}))

	updated, _ := m.Update(sessionStateMsg{state: orchestration.SessionListening})

	assert.Contains(t, updated.(model).View(), "Listening...")
}

func TestQuitKeyQuits(t *testing.T) {
	m := sized(t, newModel(t.Context(), &controllerStub{}))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
