package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/satchelhq/satchel/pkg/api"
	"github.com/satchelhq/satchel/pkg/chat"
	"github.com/satchelhq/satchel/pkg/render"
	"github.com/satchelhq/satchel/pkg/session"
	"github.com/satchelhq/satchel/pkg/stream"
)

var (
	chatNew       bool
	chatTitle     string
	chatModel     string
	chatDirectory string
)

var chatCmd = &cobra.Command{
	Use:   "chat [session-id]",
	Short: "Open a session and chat with the assistant",
	Long: `Opens a session, prints its history and follows the live event
stream. Lines typed on stdin are sent as prompts; Ctrl-C exits.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "create a new session")
	chatCmd.Flags().StringVar(&chatTitle, "title", "", "title for the new session")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "model as provider/model")
	chatCmd.Flags().StringVar(&chatDirectory, "directory", "", "project directory for the new session")
}

func runChat(cmd *cobra.Command, args []string) error {
	if !chatNew && len(args) == 0 {
		return fmt.Errorf("session id required (or --new)")
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// changed signals a store mutation from the event stream so the view
	// can re-render.
	changed := make(chan struct{}, 1)
	dispatcher := &notifyingDispatcher{store: a.store, changed: changed}

	streams := stream.NewManager(a.client, dispatcher)
	streams.Bind(a.conn)
	defer streams.Close()
	defer a.conn.Disconnect()

	// Bind before connecting so the connected transition opens the stream
	if !a.conn.TestConnection(ctx) {
		return fmt.Errorf("connection failed: %s", a.conn.LastError())
	}

	sessionID := ""
	if chatNew {
		sessionID, err = a.store.CreateSession(ctx, chatTitle, chatDirectory)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	} else {
		sessionID = args[0]
		a.store.SelectSession(ctx, sessionID)
	}

	formatter := render.NewFormatter(terminalWidth())
	view := chatView{store: a.store, formatter: formatter, sessionID: sessionID, out: cmd.OutOrStdout()}
	view.redraw()

	go readPrompts(ctx, a.store, sessionID, parseModel(chatModel), os.Stdin, dispatcher.signal)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			view.redraw()
		}
	}
}

// readPrompts forwards input lines to the store as optimistic sends. Each
// send nudges the view so the placeholder (or a send failure) shows up
// immediately instead of waiting for the next stream event.
func readPrompts(ctx context.Context, store *session.Store, sessionID string, model *api.Model, in io.Reader, notify func()) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		store.SendMessage(ctx, sessionID, line, model)
		notify()
	}
}

// parseModel splits a provider/model flag value. Empty or malformed values
// fall back to the server default.
func parseModel(value string) *api.Model {
	if value == "" {
		return nil
	}
	provider, model, found := strings.Cut(value, "/")
	if !found || provider == "" || model == "" {
		return nil
	}
	return &api.Model{ProviderID: provider, ModelID: model}
}

type chatView struct {
	store     *session.Store
	formatter *render.Formatter
	sessionID string
	out       interface{ Write([]byte) (int, error) }
}

func (v chatView) redraw() {
	// Full clear and repaint; parts mutate in place so diffing buys little
	fmt.Fprint(v.out, "\033[2J\033[H")

	messages, _ := v.store.Messages(v.sessionID)
	for _, message := range messages {
		fmt.Fprintln(v.out, v.formatter.FormatMessage(message))
	}
	if v.store.Typing() {
		fmt.Fprintln(v.out, v.formatter.FormatTyping())
	}
	if errMsg := v.store.Err(); errMsg != "" {
		fmt.Fprintln(v.out, "error: "+errMsg)
	}
	fmt.Fprint(v.out, "> ")
}

// notifyingDispatcher forwards stream events to the store and nudges the
// view. The store stays the single owner of conversation state.
type notifyingDispatcher struct {
	store   *session.Store
	changed chan struct{}
}

func (d *notifyingDispatcher) signal() {
	select {
	case d.changed <- struct{}{}:
	default:
	}
}

func (d *notifyingDispatcher) OnMessageCreated(sessionID string, message chat.Message) {
	d.store.OnMessageCreated(sessionID, message)
	d.signal()
}

func (d *notifyingDispatcher) OnMessageUpdated(sessionID string, message chat.Message) {
	d.store.OnMessageUpdated(sessionID, message)
	d.signal()
}

func (d *notifyingDispatcher) OnMessagePartDelta(sessionID, messageID, partID, delta string) {
	d.store.OnMessagePartDelta(sessionID, messageID, partID, delta)
	d.signal()
}

func (d *notifyingDispatcher) OnMessagePartUpdated(sessionID string, part chat.Part) {
	d.store.OnMessagePartUpdated(sessionID, part)
	d.signal()
}

func (d *notifyingDispatcher) OnSessionStatus(sessionID string, status chat.SessionStatus) {
	d.store.OnSessionStatus(sessionID, status)
	d.signal()
}

func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 100
}
