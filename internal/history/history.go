// ABOUTME: Past chat sessions: degrade-to-empty fetch and plain-text formatting
// ABOUTME: Sessions are shown newest first with question/answer pairs and their sources

package history

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/2389/legisbot/internal/api"
)

// EmptyText is shown when there is no history.
const EmptyText = "No tenés consultas todavía."

// Backend is what history needs from the backend client.
type Backend interface {
	History(ctx context.Context) ([]api.HistorySession, error)
}

// Fetch returns the user's sessions newest first, or an empty slice when the
// backend cannot be reached or refuses.
func Fetch(ctx context.Context, backend Backend, logger *zap.Logger) []api.HistorySession {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions, err := backend.History(ctx)
	if err != nil {
		logger.Warn("fetching chat history", zap.Error(err))
		return []api.HistorySession{}
	}
	sorted := slices.Clone(sessions)
	slices.SortStableFunc(sorted, func(a, b api.HistorySession) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
	return sorted
}

// Exchange is a question with its answer, as the history views show them.
type Exchange struct {
	Question string
	Answer   string
	Sources  []api.Source
	AskedAt  api.Timestamp
}

// Exchanges pairs each user message with the bot message that follows it.
// A trailing question with no answer gets an empty Answer.
func Exchanges(session api.HistorySession) []Exchange {
	var out []Exchange
	for _, msg := range session.Messages {
		switch msg.Sender {
		case api.SenderUser:
			out = append(out, Exchange{Question: msg.Content, AskedAt: msg.Timestamp})
		case api.SenderBot:
			if len(out) == 0 || out[len(out)-1].Answer != "" {
				out = append(out, Exchange{AskedAt: msg.Timestamp})
			}
			last := &out[len(out)-1]
			last.Answer = msg.Content
			last.Sources = msg.Sources
		}
	}
	return out
}

// SourceLabels joins the display labels of sources.
func SourceLabels(sources []api.Source) string {
	labels := make([]string, 0, len(sources))
	for _, s := range sources {
		labels = append(labels, s.Label())
	}
	return strings.Join(labels, ", ")
}

// Format writes a plain-text listing of sessions.
func Format(w io.Writer, sessions []api.HistorySession) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, EmptyText)
		return err
	}

	var b strings.Builder
	for i, session := range sessions {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Sesión #%d  %s\n", session.ID, formatTime(session.CreatedAt))
		for _, ex := range Exchanges(session) {
			fmt.Fprintf(&b, "  P: %s\n", ex.Question)
			fmt.Fprintf(&b, "  R: %s\n", indentContinuation(ex.Answer, "     "))
			if len(ex.Sources) > 0 {
				fmt.Fprintf(&b, "     Fuentes: %s\n", SourceLabels(ex.Sources))
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func formatTime(ts api.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("02/01/2006 15:04")
}

func indentContinuation(text, indent string) string {
	return strings.ReplaceAll(strings.TrimRight(text, "\n"), "\n", "\n"+indent)
}
