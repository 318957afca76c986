package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/message"
	"github.com/spf13/cobra"
)

func (a *App) simpleCommand(use, short string, req message.Request) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.call(cmd, req)
		},
	}
}

func (a *App) sendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send <action> [fields-json]",
		Short: "Send a raw envelope",
		Long: "Send an envelope with the given action. The optional second argument is a\n" +
			"JSON object whose keys are merged into the envelope.",
		Example: `  tracectl send summarizePage '{"tabId": 12}'`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := message.Action(args[0])
			if !message.Known(action) {
				return fmt.Errorf("unknown action %q, see tracectl actions", action)
			}

			fields := map[string]any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &fields); err != nil {
					return fmt.Errorf("fields must be a JSON object: %w", err)
				}
			}
			fields["action"] = action

			raw, err := json.Marshal(fields)
			if err != nil {
				return err
			}
			timeout := a.opts.timeout
			if action == message.ActionGoogleAuth {
				timeout = max(timeout, loginTimeout)
			}
			return a.callRaw(cmd, raw, timeout)
		},
	}
}

func (a *App) actionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the actions the worker understands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, action := range message.Actions() {
				fmt.Fprintln(cmd.OutOrStdout(), action)
			}
			return nil
		},
	}
}

func (a *App) statusCommand() *cobra.Command {
	return a.simpleCommand("status", "Show whether a session is established", &message.CheckAuth{})
}

func (a *App) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google",
		Long:  "Start the Google sign-in on the worker. The worker prints the verification\npage and code and opens the browser when configured to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.callWithTimeout(cmd, &message.GoogleAuth{}, max(a.opts.timeout, loginTimeout))
		},
	}
}

func (a *App) subscriptionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscription",
		Aliases: []string{"sub"},
		Short:   "Inspect or change the subscription",
	}
	cmd.AddCommand(
		a.simpleCommand("status", "Show the subscription status", &message.GetSubscriptionStatus{}),
		a.simpleCommand("refresh", "Re-sync the subscription with the billing provider", &message.RefreshSubscriptionStatus{}),
		a.cancelCommand(),
		&cobra.Command{
			Use:   "checkout <price-id>",
			Short: "Create a checkout session and print its URL",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.call(cmd, &message.CreateCheckoutSession{PriceID: args[0]})
			},
		},
	)
	return cmd
}

func (a *App) cancelCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				answer, err := GetSimpleText(a.in, "Cancel the subscription? Type yes to confirm", cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				if !strings.EqualFold(answer, "yes") {
					return fmt.Errorf("not confirmed")
				}
			}
			return a.call(cmd, &message.CancelSubscription{})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *App) summarizeCommand() *cobra.Command {
	var (
		req      message.SummarizePage
		htmlFile string
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarise a page",
		Long: "Summarise a page by URL, by HTML body, or by the ID of a tab the worker\n" +
			"has seen. --html-file - reads the body from stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if htmlFile != "" {
				body, err := a.readFile(htmlFile)
				if err != nil {
					return err
				}
				req.HTML = body
			}
			if req.TabID == 0 {
				req.TabID = a.opts.tabID
			}
			if req.TabID == 0 && req.URL == "" && req.HTML == "" {
				return fmt.Errorf("one of --tab, --url or --html-file is required")
			}
			return a.call(cmd, &req)
		},
	}
	cmd.Flags().IntVar(&req.TabID, "tab", 0, "tab ID to summarise (defaults to --tab-id)")
	cmd.Flags().StringVar(&req.URL, "url", "", "page URL")
	cmd.Flags().StringVar(&htmlFile, "html-file", "", "file with the page HTML")
	cmd.Flags().StringVarP(&req.CustomPrompt, "prompt", "p", "", "custom prompt")
	return cmd
}

func (a *App) readFile(path string) (string, error) {
	if path == "-" {
		var b strings.Builder
		if _, err := a.in.WriteTo(&b); err != nil {
			return "", err
		}
		return b.String(), nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (a *App) prefsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prefs",
		Aliases: []string{"preferences"},
		Short:   "Show or change reading preferences",
	}
	cmd.AddCommand(a.simpleCommand("get", "Show the preferences", &message.LoadPreferences{}))

	var (
		style         string
		auto          bool
		notifications bool
		readerType    string
		readingLevel  string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Change the preferences named by flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var current message.PreferencesResult
			if err := a.fetch(cmd, &message.LoadPreferences{}, &current); err != nil {
				return err
			}
			p := current.Preferences

			flags := cmd.Flags()
			if flags.Changed("style") {
				p.SummaryStyle = models.SummaryStyle(style)
			}
			if flags.Changed("auto") {
				p.AutoSummarizeEnabled = auto
			}
			if flags.Changed("notifications") {
				p.NotificationsEnabled = notifications
			}
			if flags.Changed("reader-type") {
				p.ReaderType = models.ReaderType(readerType)
			}
			if flags.Changed("reading-level") {
				p.ReadingLevel = models.ReadingLevel(readingLevel)
			}
			return a.call(cmd, &message.SavePreferences{Preferences: &p})
		},
	}
	set.Flags().StringVar(&style, "style", "", "summary style: quick, eli8 or detailed")
	set.Flags().BoolVar(&auto, "auto", false, "summarise pages automatically")
	set.Flags().BoolVar(&notifications, "notifications", true, "show notifications")
	set.Flags().StringVar(&readerType, "reader-type", "", "casual, student or professional")
	set.Flags().StringVar(&readingLevel, "reading-level", "", "beginner, intermediate or advanced")
	cmd.AddCommand(set)
	return cmd
}

func (a *App) feedbackCommand() *cobra.Command {
	var fb models.Feedback
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Send feedback to the Trace team",
		Long:  "Send feedback. Without --message the text is read interactively.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(fb.Message) == "" {
				msg, err := GetMultiline(a.in, "Feedback", cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				fb.Message = msg
			}
			if fb.PageURL == "" {
				fb.PageURL = a.opts.tabURL
			}
			if fb.PageTitle == "" {
				fb.PageTitle = a.opts.tabTitle
			}
			return a.call(cmd, &message.SendFeedback{Feedback: &fb})
		},
	}
	cmd.Flags().StringVar(&fb.Type, "type", "general", "feedback type")
	cmd.Flags().StringVarP(&fb.Message, "message", "m", "", "feedback text")
	cmd.Flags().StringVar(&fb.PageURL, "page-url", "", "page the feedback is about")
	cmd.Flags().StringVar(&fb.PageTitle, "page-title", "", "title of that page")
	return cmd
}

func (a *App) extensionCommand() *cobra.Command {
	toggle := func(use, short string, enabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				// toggleExtension has no response; the worker answers {}.
				if err := a.call(cmd, &message.ToggleExtension{Enabled: enabled}); err != nil {
					return err
				}
				return a.call(cmd, &message.GetExtensionStatus{})
			},
		}
	}

	cmd := &cobra.Command{
		Use:     "extension",
		Aliases: []string{"ext"},
		Short:   "Turn Trace on or off",
	}
	cmd.AddCommand(
		a.simpleCommand("status", "Show whether Trace is on", &message.GetExtensionStatus{}),
		toggle("on", "Turn Trace on", true),
		toggle("off", "Turn Trace off", false),
	)
	return cmd
}

func (a *App) onboardingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Inspect or advance onboarding",
	}
	cmd.AddCommand(
		a.simpleCommand("status", "Show onboarding progress", &message.GetOnboardingStatus{}),
		a.simpleCommand("complete", "Mark onboarding as completed", &message.CompleteOnboarding{}),
		&cobra.Command{
			Use:   "step <n>",
			Short: "Record the current onboarding step",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("step must be a number: %w", err)
				}
				return a.call(cmd, &message.SetOnboardingStep{Step: n})
			},
		},
	)
	return cmd
}
