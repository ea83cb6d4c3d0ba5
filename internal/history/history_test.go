// ABOUTME: Tests for history fetch, pairing, text formatting and HTML export

package history

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/2389/legisbot/internal/api"
)

type stubBackend struct {
	sessions []api.HistorySession
	err      error
}

func (s stubBackend) History(ctx context.Context) ([]api.HistorySession, error) {
	return s.sessions, s.err
}

func at(day int) api.Timestamp {
	return api.Timestamp{Time: time.Date(2024, 5, day, 12, 0, 0, 0, time.UTC)}
}

func sampleSession(id int64, day int) api.HistorySession {
	return api.HistorySession{
		ID:        id,
		CreatedAt: at(day),
		Messages: []api.HistoryMessage{
			{ID: 1, Sender: api.SenderUser, Content: "¿Qué dice el artículo 14?"},
			{ID: 2, Sender: api.SenderBot, Content: "Garantiza **derechos** <script>x</script>", Sources: []api.Source{{"name": "constitucion.pdf"}}},
			{ID: 3, Sender: api.SenderUser, Content: "¿Y el 15?"},
		},
	}
}

func TestFetch(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		got := Fetch(context.Background(), stubBackend{sessions: []api.HistorySession{
			sampleSession(1, 1), sampleSession(2, 3), sampleSession(3, 2),
		}}, nil)

		require.Len(t, got, 3)
		assert.Equal(t, []int64{2, 3, 1}, []int64{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("failure is logged", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		got := Fetch(context.Background(), stubBackend{err: errors.New("503")}, zap.New(core))
		assert.Empty(t, got)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "fetching chat history", logs.All()[0].Message)
	})

	t.Run("failure degrades to empty", func(t *testing.T) {
		got := Fetch(context.Background(), stubBackend{err: errors.New("503")}, nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestExchanges(t *testing.T) {
	ex := Exchanges(sampleSession(1, 1))
	require.Len(t, ex, 2)
	assert.Equal(t, "¿Qué dice el artículo 14?", ex[0].Question)
	assert.Contains(t, ex[0].Answer, "Garantiza")
	assert.Equal(t, "constitucion.pdf", SourceLabels(ex[0].Sources))
	assert.Equal(t, "¿Y el 15?", ex[1].Question)
	assert.Empty(t, ex[1].Answer)

	orphan := Exchanges(api.HistorySession{Messages: []api.HistoryMessage{{Sender: api.SenderBot, Content: "hola"}}})
	require.Len(t, orphan, 1)
	assert.Empty(t, orphan[0].Question)
	assert.Equal(t, "hola", orphan[0].Answer)
}

func TestFormat(t *testing.T) {
	var empty bytes.Buffer
	require.NoError(t, Format(&empty, nil))
	assert.Equal(t, EmptyText+"\n", empty.String())

	var buf bytes.Buffer
	require.NoError(t, Format(&buf, []api.HistorySession{sampleSession(7, 1)}))
	out := buf.String()
	assert.Contains(t, out, "Sesión #7")
	assert.Contains(t, out, "P: ¿Qué dice el artículo 14?")
	assert.Contains(t, out, "Fuentes: constitucion.pdf")
}

func TestExportHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportHTML(&buf, []api.HistorySession{sampleSession(7, 1)}))
	out := buf.String()

	assert.Contains(t, out, "<strong>derechos</strong>")
	assert.NotContains(t, out, "<script>x</script>")
	assert.Contains(t, out, "P: ¿Qué dice el artículo 14?")
	assert.Contains(t, out, "Fuentes: constitucion.pdf")

	var empty bytes.Buffer
	require.NoError(t, ExportHTML(&empty, nil))
	assert.Contains(t, empty.String(), EmptyText)
}
