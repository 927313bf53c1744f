// Package console is the interactive chat front end. It reads intents line by line,
// hands them to the coordinator and re-renders whenever a store publishes.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"jan-server/clients/jan-chat/internal/application/coordinator"
	"jan-server/clients/jan-chat/internal/domain/conversation"
	"jan-server/clients/jan-chat/internal/domain/message"
	"jan-server/clients/jan-chat/internal/domain/notice"
	"jan-server/clients/jan-chat/internal/domain/session"
)

// Console runs the read-eval-render loop. Store callbacks and the notice pump write
// to out concurrently with the loop, so every write goes through print.
type Console struct {
	coord   *coordinator.Coordinator
	notices <-chan notice.Notice
	in      io.Reader
	out     io.Writer
	log     zerolog.Logger

	outMu sync.Mutex

	stateMu     sync.Mutex
	useRAG      bool
	compose     []string
	shownID     string
	shownCount  int
	activeTitle string
	status      session.Status

	sends sync.WaitGroup

	// lines is the input feed while Run is active; prompts read their answer from it.
	lines <-chan string
}

// New creates a Console. notices is usually the channel of a notice.Queue the
// coordinator reports to.
func New(coord *coordinator.Coordinator, notices <-chan notice.Notice, in io.Reader, out io.Writer, log zerolog.Logger) *Console {
	return &Console{
		coord:   coord,
		notices: notices,
		in:      in,
		out:     out,
		log:     log.With().Str("component", "console").Logger(),
	}
}

// Run processes input until /quit, end of input or ctx is cancelled. In-flight
// sends are awaited before it returns.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, unsubscribe := range c.subscribe() {
		defer unsubscribe()
	}

	var pump sync.WaitGroup
	pump.Add(1)
	go func() {
		defer pump.Done()
		c.pumpNotices(ctx)
	}()

	lines := make(chan string)
	c.lines = lines
	go c.scan(ctx, lines)

	c.print(func(w io.Writer) {
		fmt.Fprintln(w, "jan-chat. Type a message to send it, or /help for commands.")
		PrintSession(w, c.coord.Session().Current())
	})

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if quit := c.handle(ctx, line); quit {
				break loop
			}
		}
	}

	c.sends.Wait()
	cancel()
	pump.Wait()
	return nil
}

func (c *Console) scan(ctx context.Context, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		c.log.Error().Err(err).Msg("reading input failed")
	}
}

// pumpNotices prints notices until ctx is done, then flushes whatever is pending.
func (c *Console) pumpNotices(ctx context.Context) {
	for {
		select {
		case n := <-c.notices:
			c.print(func(w io.Writer) { PrintNotice(w, n) })
		case <-ctx.Done():
			for {
				select {
				case n := <-c.notices:
					c.print(func(w io.Writer) { PrintNotice(w, n) })
				default:
					return
				}
			}
		}
	}
}

func (c *Console) print(fn func(w io.Writer)) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fn(c.out)
}

// subscribe attaches renderers to every store. Callbacks only read state and
// write output; they never call back into the coordinator.
func (c *Console) subscribe() []func() {
	return []func(){
		c.coord.Session().Subscribe(c.onSession),
		c.coord.Registry().Subscribe(c.onRegistry),
		c.coord.Messages().Subscribe(c.onMessages),
	}
}

func (c *Console) onSession(s session.Session) {
	c.stateMu.Lock()
	changed := s.Status != c.status && s.Status != session.StatusLoading
	c.status = s.Status
	c.stateMu.Unlock()
	if changed {
		c.print(func(w io.Writer) { PrintSession(w, s) })
	}
}

func (c *Console) onRegistry(s conversation.State) {
	if s.Active == nil {
		c.stateMu.Lock()
		c.activeTitle = ""
		c.stateMu.Unlock()
		return
	}
	c.stateMu.Lock()
	renamed := c.activeTitle != "" && c.shownID == s.Active.ID && c.activeTitle != s.Active.Title
	c.activeTitle = s.Active.Title
	c.stateMu.Unlock()
	if renamed {
		title := s.Active.Title
		c.print(func(w io.Writer) { fmt.Fprintf(w, "Conversation renamed to %q\n", title) })
	}
}

// onMessages prints the thread when the active conversation changes and only the
// new entries when the same thread grows.
func (c *Console) onMessages(s message.State) {
	if s.Loading {
		return
	}

	c.stateMu.Lock()
	switched := s.ConversationID != c.shownID
	from := c.shownCount
	if switched || len(s.Messages) < from {
		from = 0
	}
	c.shownID = s.ConversationID
	c.shownCount = len(s.Messages)
	if switched {
		c.activeTitle = ""
	}
	c.stateMu.Unlock()

	if s.ConversationID == "" {
		return
	}
	c.print(func(w io.Writer) {
		if switched {
			title := conversation.DefaultTitle
			if conv, ok := c.coord.Registry().Snapshot().Find(s.ConversationID); ok {
				title = conv.Title
			}
			fmt.Fprintf(w, "── %s ──\n", title)
		}
		for _, m := range s.Messages[from:] {
			PrintMessage(w, m)
		}
	})
}
