package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const helpText = `Commands:
  <text>                      send a message to the active conversation
  /new                        start a conversation
  /list                       list conversations
  /select <n|id>              open a conversation
  /delete <n|id>              delete a conversation (asks first)
  /share [n|id]               create a share link
  /summary                    summarize the active conversation
  /rag on|off                 answer from uploaded documents
  /doc <text>                 upload text as a document
  /upload <path>              upload a PDF, DOCX or TXT file
  /exec <lang> <code>         run code and put the result in the compose buffer
  /compose [text]             show the compose buffer or add a line to it
  /send                       send the compose buffer
  /shared <token|url>         open a shared conversation
  /login <email> <password>   sign in
  /register <name> <email> <password>
  /whoami                     show the signed in user
  /logout                     sign out
  /help                       show this help
  /quit                       leave`

// DeletePrompt is asked before a conversation is deleted.
const DeletePrompt = "Delete this conversation? [y/N] "

// handle runs one input line. It reports whether the console should stop.
func (c *Console) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		c.send(ctx, line)
		return false
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		c.print(func(w io.Writer) { fmt.Fprintln(w, helpText) })
	case "/new":
		_, _ = c.coord.Create(ctx)
	case "/list":
		state := c.coord.Registry().Snapshot()
		c.print(func(w io.Writer) { PrintConversations(w, state) })
	case "/select":
		if id, ok := c.resolve(args); ok {
			_ = c.coord.Select(ctx, id)
		}
	case "/delete":
		id, ok := c.resolve(args)
		if !ok {
			return false
		}
		if !c.confirm(ctx, DeletePrompt) {
			c.print(func(w io.Writer) { fmt.Fprintln(w, "Cancelled.") })
			return false
		}
		_ = c.coord.Delete(ctx, id)
	case "/share":
		id := ""
		if len(args) > 0 {
			var ok bool
			if id, ok = c.resolve(args); !ok {
				return false
			}
		}
		_, _ = c.coord.Share(ctx, id)
	case "/summary":
		if summary, err := c.coord.Summarize(ctx, ""); err == nil {
			c.print(func(w io.Writer) { fmt.Fprintf(w, "Summary:\n%s\n", indent(summary)) })
		}
	case "/rag":
		c.setRAG(args)
	case "/doc":
		_, _ = c.coord.UploadDocument(ctx, rest, "")
	case "/upload":
		c.upload(ctx, rest)
	case "/exec":
		c.execute(ctx, args, rest)
	case "/compose":
		c.addCompose(rest)
	case "/send":
		c.sendCompose(ctx)
	case "/shared":
		if shared, err := c.coord.OpenShared(ctx, rest); err == nil {
			c.print(func(w io.Writer) { PrintShared(w, shared) })
		}
	case "/login":
		if len(args) != 2 {
			c.usage("/login <email> <password>")
			return false
		}
		_, _ = c.coord.Login(ctx, args[0], args[1])
	case "/register":
		if len(args) != 3 {
			c.usage("/register <name> <email> <password>")
			return false
		}
		_, _ = c.coord.Register(ctx, args[0], args[1], args[2])
	case "/whoami":
		s := c.coord.Session().Current()
		c.print(func(w io.Writer) { PrintSession(w, s) })
	case "/logout":
		_ = c.coord.Logout(ctx)
	default:
		c.print(func(w io.Writer) { fmt.Fprintf(w, "Unknown command %s. Type /help.\n", cmd) })
	}
	return false
}

// send dispatches text without waiting so the user can keep working while the
// backend answers. Failures arrive as notices.
func (c *Console) send(ctx context.Context, text string) {
	c.stateMu.Lock()
	useRAG := c.useRAG
	c.stateMu.Unlock()

	c.sends.Add(1)
	go func() {
		defer c.sends.Done()
		_ = c.coord.SendMessage(ctx, text, useRAG)
	}()
}

func (c *Console) sendCompose(ctx context.Context) {
	c.stateMu.Lock()
	text := strings.Join(c.compose, "\n")
	c.compose = nil
	c.stateMu.Unlock()

	if strings.TrimSpace(text) == "" {
		c.print(func(w io.Writer) { fmt.Fprintln(w, "The compose buffer is empty.") })
		return
	}
	c.send(ctx, text)
}

func (c *Console) addCompose(text string) {
	c.stateMu.Lock()
	if text != "" {
		c.compose = append(c.compose, text)
	}
	buffer := strings.Join(c.compose, "\n")
	c.stateMu.Unlock()

	if text == "" {
		c.print(func(w io.Writer) {
			if buffer == "" {
				fmt.Fprintln(w, "The compose buffer is empty.")
				return
			}
			fmt.Fprintf(w, "Compose buffer:\n%s\n", indent(buffer))
		})
	}
}

func (c *Console) setRAG(args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		c.usage("/rag on|off")
		return
	}
	c.stateMu.Lock()
	c.useRAG = args[0] == "on"
	c.stateMu.Unlock()
	c.print(func(w io.Writer) { fmt.Fprintf(w, "Document search is %s.\n", args[0]) })
}

func (c *Console) upload(ctx context.Context, path string) {
	if path == "" {
		c.usage("/upload <path>")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		c.print(func(w io.Writer) { fmt.Fprintf(w, "[error] %v\n", err) })
		return
	}
	defer f.Close()
	// One byte past the limit is enough for validation to reject the file.
	content, err := io.ReadAll(io.LimitReader(f, c.coord.MaxUploadBytes()+1))
	if err != nil {
		c.print(func(w io.Writer) { fmt.Fprintf(w, "[error] %v\n", err) })
		return
	}
	_, _ = c.coord.UploadFile(ctx, filepath.Base(path), content)
}

func (c *Console) execute(ctx context.Context, args []string, rest string) {
	if len(args) < 2 {
		c.usage("/exec <lang> <code>")
		return
	}
	code := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
	exec, err := c.coord.ExecuteCode(ctx, code, args[0])
	if err != nil {
		return
	}

	c.stateMu.Lock()
	c.compose = []string{exec.Compose}
	c.stateMu.Unlock()
	c.print(func(w io.Writer) {
		fmt.Fprintf(w, "%s\n(Result placed in the compose buffer. /send to post it.)\n", exec.Compose)
	})
}

// resolve turns a 1-based list position or an id into a conversation id.
func (c *Console) resolve(args []string) (string, bool) {
	if len(args) != 1 {
		c.usage("<n|id>")
		return "", false
	}
	state := c.coord.Registry().Snapshot()
	if n, err := strconv.Atoi(args[0]); err == nil {
		if n < 1 || n > len(state.Items) {
			c.print(func(w io.Writer) { fmt.Fprintf(w, "No conversation number %d.\n", n) })
			return "", false
		}
		return state.Items[n-1].ID, true
	}
	return args[0], true
}

func (c *Console) usage(s string) {
	c.print(func(w io.Writer) { fmt.Fprintf(w, "Usage: %s\n", s) })
}

// confirm prints question and takes the next input line as the answer. End of
// input counts as no.
func (c *Console) confirm(ctx context.Context, question string) bool {
	c.print(func(w io.Writer) { fmt.Fprint(w, question) })
	select {
	case line, ok := <-c.lines:
		return ok && Confirmed(line)
	case <-ctx.Done():
		return false
	}
}

// Confirmed reports whether answer accepts a y/N prompt.
func Confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
