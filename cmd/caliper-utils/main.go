// caliper-utils runs the event enrichment helpers from the command line,
// against the same configuration as the HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/caliper-tracking/caliper-tracking-backend/config"
	"github.com/caliper-tracking/caliper-tracking-backend/handlers"
	"github.com/caliper-tracking/caliper-tracking-backend/internal/app"
	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/caliper-tracking/caliper-tracking-backend/services"
	"github.com/caliper-tracking/caliper-tracking-backend/types"
	"github.com/spf13/cobra"
)

var version = "dev"

// helpers is what the subcommands need from the assembled application.
type helpers struct {
	tracking      handlers.TrackingServiceInterface
	notifications handlers.NotificationServiceInterface
	defaultFrom   string
	close         func()
}

type loader func(ctx context.Context) (*helpers, error)

func loadHelpers(ctx context.Context) (*helpers, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &helpers{
		tracking:      a.Tracking,
		notifications: a.Notifications,
		defaultFrom:   cfg.Email.FromAddress,
		close:         a.Close,
	}, nil
}

func main() {
	os.Exit(execute(newRootCmd(loadHelpers)))
}

// execute runs cmd and flushes the logger before the exit code is returned.
func execute(cmd *cobra.Command) int {
	err := cmd.Execute()
	_ = logger.Close()
	if err != nil {
		return 1
	}
	return 0
}

func newRootCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "caliper-utils",
		Short:        "Resolve users, teams and links referenced by Caliper events.",
		Version:      version,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newConvertDatetimeCmd(),
		newUsernameCmd(load),
		newUserLinkCmd(load),
		newTeamURLCmd(load),
		newCertificateURLCmd(load),
		newSendNotificationCmd(load),
	)
	return cmd
}

// withHelpers loads the application for one command and releases it afterwards.
func withHelpers(cmd *cobra.Command, load loader, fn func(h *helpers) error) error {
	h, err := load(cmd.Context())
	if err != nil {
		return err
	}
	if h.close != nil {
		defer h.close()
	}
	return fn(h)
}

func newConvertDatetimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert-datetime <timestamp>",
		Short: "Print an ISO-8601 timestamp in UTC with millisecond precision.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			utc, err := services.ConvertDatetimeString(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), utc)
			return nil
		},
	}
}

func newUsernameCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "username <user-id>",
		Short: "Print the username of an LMS user id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return withHelpers(cmd, load, func(h *helpers) error {
				username, err := h.tracking.UsernameFromUserID(cmd.Context(), userID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), username)
				return nil
			})
		},
	}
}

func newUserLinkCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "user-link <username>",
		Short: "Print the learner profile URL of a username.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHelpers(cmd, load, func(h *helpers) error {
				fmt.Fprintln(cmd.OutOrStdout(), h.tracking.UserLinkFromUsername(args[0]))
				return nil
			})
		},
	}
}

func newTeamURLCmd(load loader) *cobra.Command {
	var referer string
	cmd := &cobra.Command{
		Use:   "team-url <team-id>",
		Short: "Print the in-page link to a team on the referring page.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHelpers(cmd, load, func(h *helpers) error {
				teamURL, err := h.tracking.TeamURLFromTeamID(cmd.Context(), referer, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), teamURL)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&referer, "referer", "", "URL of the page the event came from")
	_ = cmd.MarkFlagRequired("referer")
	return cmd
}

func newCertificateURLCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "certificate-url <user-id> <course-id>",
		Short: "Print the HTML view URL of a learner's course certificate.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return withHelpers(cmd, load, func(h *helpers) error {
				certURL, err := h.tracking.CertificateURL(userID, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), certURL)
				return nil
			})
		},
	}
}

func newSendNotificationCmd(load loader) *cobra.Command {
	var (
		data    types.NotificationData
		subject string
		from    string
		to      []string
	)
	cmd := &cobra.Command{
		Use:   "send-notification",
		Short: "Mail an operator notification and report whether it was sent.",
		Long: `Sends a plain-text notification of the form

  Name:<tab><name>
  <body>

followed by the error text when --error is given. Exits non-zero when the
message could not be delivered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHelpers(cmd, load, func(h *helpers) error {
				sender := from
				if sender == "" {
					sender = h.defaultFrom
				}
				if !h.notifications.SendNotification(cmd.Context(), data, subject, sender, to) {
					return fmt.Errorf("notification was not sent")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "sent")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&data.Name, "name", "", "name shown on the first line")
	cmd.Flags().StringVar(&data.Body, "body", "", "message body")
	cmd.Flags().StringVar(&data.Error, "error", "", "error text appended to the body")
	cmd.Flags().StringVar(&subject, "subject", "", "mail subject")
	cmd.Flags().StringVar(&from, "from", "", "sender address (defaults to EMAIL_FROM_ADDRESS)")
	cmd.Flags().StringSliceVar(&to, "to", nil, "recipient address, repeatable")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}
