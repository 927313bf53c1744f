package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"jan-server/clients/jan-chat/internal/domain/conversation"
	"jan-server/clients/jan-chat/internal/domain/message"
	"jan-server/clients/jan-chat/internal/domain/notice"
	"jan-server/clients/jan-chat/internal/domain/session"
	"jan-server/clients/jan-chat/internal/domain/share"
)

const timeLayout = "2006-01-02 15:04"

// PrintConversations lists the registry, numbering entries from 1 and marking the
// active one with '*'.
func PrintConversations(w io.Writer, s conversation.State) {
	if len(s.Items) == 0 {
		fmt.Fprintln(w, "No conversations yet. Use /new to start one.")
		return
	}
	for i, c := range s.Items {
		marker := " "
		if c.ID == s.ActiveID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %2d. %-40s %s  %s\n", marker, i+1, truncate(c.Title, 40), stamp(c.UpdatedAt), c.ID)
	}
}

// PrintMessages prints a thread in order.
func PrintMessages(w io.Writer, msgs []message.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "(no messages)")
		return
	}
	for _, m := range msgs {
		PrintMessage(w, m)
	}
}

// PrintMessage prints one thread entry.
func PrintMessage(w io.Writer, m message.Message) {
	who := "You"
	if m.Role == message.RoleAssistant {
		who = "Assistant"
	}
	fmt.Fprintf(w, "[%s] %s:\n%s\n\n", stamp(m.CreatedAt), who, indent(m.Content))
}

// PrintShared prints the read-only view of a shared conversation.
func PrintShared(w io.Writer, s *share.SharedConversation) {
	fmt.Fprintf(w, "%s\nShared by %s\n\n", s.Title(), s.SharedBy())
	PrintMessages(w, s.Messages)
}

// PrintSession prints who is signed in.
func PrintSession(w io.Writer, s session.Session) {
	switch s.Status {
	case session.StatusAuthenticated:
		fmt.Fprintf(w, "Signed in as %s <%s>\n", s.Name, s.Email)
	case session.StatusLoading:
		fmt.Fprintln(w, "Restoring session...")
	default:
		fmt.Fprintln(w, "Not signed in.")
	}
}

// PrintNotice prints a notice on one line.
func PrintNotice(w io.Writer, n notice.Notice) {
	tag := "ok"
	if !n.Success() {
		tag = "error"
	}
	fmt.Fprintf(w, "[%s] %s\n", tag, n.Message)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
