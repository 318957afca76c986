package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/trace/internal/message"
	"github.com/dmitrijs2005/trace/internal/transport"
	"github.com/spf13/cobra"
)

const (
	defaultAddr    = "127.0.0.1:50061"
	defaultTimeout = 30 * time.Second
	// The device flow waits for the user to approve in a browser.
	loginTimeout = 5 * time.Minute
)

// Client is implemented by *transport.GRPCClient.
type Client interface {
	SendRaw(ctx context.Context, raw []byte) ([]byte, error)
	Close() error
}

// DialFunc connects to the worker at addr as sender.
type DialFunc func(addr string, sender message.Sender) (Client, error)

func dialGRPC(addr string, sender message.Sender) (Client, error) {
	return transport.NewGRPCClient(addr, sender)
}

type options struct {
	addr     string
	surface  string
	tabID    int
	tabURL   string
	tabTitle string
	timeout  time.Duration
	output   string
}

type App struct {
	opts options
	dial DialFunc
	in   *bufio.Reader
}

// NewRootCommand builds the tracectl command tree. A nil dial connects over
// gRPC; in is used for interactive prompts.
func NewRootCommand(dial DialFunc, in io.Reader) *cobra.Command {
	if dial == nil {
		dial = dialGRPC
	}
	a := &App{dial: dial, in: bufio.NewReader(in)}

	root := &cobra.Command{
		Use:           "tracectl",
		Short:         "Send messages to a running Trace worker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch a.opts.output {
			case "", "json", "pretty":
				return nil
			}
			return fmt.Errorf("unknown output format %q (want json or pretty)", a.opts.output)
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.opts.addr, "addr", "a", defaultAddr, "worker gRPC address")
	f.StringVar(&a.opts.surface, "surface", "cli", "sender surface reported to the worker")
	f.IntVar(&a.opts.tabID, "tab-id", 0, "sender tab ID")
	f.StringVar(&a.opts.tabURL, "tab-url", "", "sender tab URL")
	f.StringVar(&a.opts.tabTitle, "tab-title", "", "sender tab title")
	f.DurationVarP(&a.opts.timeout, "timeout", "t", defaultTimeout, "per-message timeout")
	f.StringVarP(&a.opts.output, "output", "o", "", "output format: json or pretty")

	root.AddCommand(
		a.sendCommand(),
		a.actionsCommand(),
		a.statusCommand(),
		a.loginCommand(),
		a.simpleCommand("verify", "Verify the stored token with the backend", &message.VerifyAuth{}),
		a.simpleCommand("logout", "Clear the stored session", &message.Logout{}),
		a.simpleCommand("wake", "Reload the session from durable storage", &message.Wake{}),
		a.simpleCommand("ping", "Check that the backend answers", &message.TestConnection{}),
		a.simpleCommand("usage", "Show usage statistics", &message.GetUsageStats{}),
		a.subscriptionCommand(),
		a.summarizeCommand(),
		a.prefsCommand(),
		a.feedbackCommand(),
		a.extensionCommand(),
		a.onboardingCommand(),
	)
	return root
}

func (a *App) sender() message.Sender {
	return message.Sender{
		Surface:  a.opts.surface,
		TabID:    a.opts.tabID,
		TabURL:   a.opts.tabURL,
		TabTitle: a.opts.tabTitle,
	}
}

// roundTrip sends one envelope on a fresh connection.
func (a *App) roundTrip(ctx context.Context, raw []byte, timeout time.Duration) ([]byte, error) {
	c, err := a.dial(a.opts.addr, a.sender())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", a.opts.addr, err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.SendRaw(ctx, raw)
}

func (a *App) call(cmd *cobra.Command, req message.Request) error {
	return a.callWithTimeout(cmd, req, a.opts.timeout)
}

func (a *App) callWithTimeout(cmd *cobra.Command, req message.Request, timeout time.Duration) error {
	raw, err := message.Encode(req)
	if err != nil {
		return err
	}
	return a.callRaw(cmd, raw, timeout)
}

func (a *App) callRaw(cmd *cobra.Command, raw []byte, timeout time.Duration) error {
	out, err := a.roundTrip(cmd.Context(), raw, timeout)
	if err != nil {
		return err
	}
	if err := a.print(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	return failure(out)
}

// fetch sends req and decodes the response into v without printing it.
func (a *App) fetch(cmd *cobra.Command, req message.Request, v any) error {
	raw, err := message.Encode(req)
	if err != nil {
		return err
	}
	out, err := a.roundTrip(cmd.Context(), raw, a.opts.timeout)
	if err != nil {
		return err
	}
	if err := failure(out); err != nil {
		return err
	}
	return json.Unmarshal(out, v)
}

func (a *App) print(w io.Writer, raw []byte) error {
	pretty := a.opts.output == "pretty" || (a.opts.output == "" && writesToTerminal(w))

	var buf bytes.Buffer
	if pretty {
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return err
		}
	} else {
		if err := json.Compact(&buf, raw); err != nil {
			return err
		}
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// ErrFailed marks a response the worker answered with success false.
var ErrFailed = errors.New("request failed")

func failure(raw []byte) error {
	var f struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &f); err != nil || f.Success == nil || *f.Success {
		return nil
	}
	if f.Error == "" {
		return ErrFailed
	}
	return fmt.Errorf("%w: %s", ErrFailed, f.Error)
}
