// Package cli implements the trackear command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"timetrack-invoicing-backend/internal/client"
	"timetrack-invoicing-backend/internal/preview"
	"timetrack-invoicing-backend/internal/services/draft"
)

type app struct {
	profilePath string
	profile     Profile
}

// NewRootCommand builds the trackear command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "trackear",
		Short:         "Compose invoices from tracked time",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			p, err := LoadProfile(a.profilePath)
			if err != nil {
				return err
			}
			a.profile = p
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.profilePath, "profile", DefaultProfilePath(), "Profile file")

	root.AddCommand(a.loginCommand(), a.projectsCommand(), a.clientsCommand(), a.invoiceCommand())
	return root
}

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) api(ctx context.Context) (*client.Client, error) {
	if a.profile.Token == "" {
		return nil, errors.New("not logged in, run trackear login first")
	}
	return client.New(ctx, a.profile.Server, a.profile.Token), nil
}

func (a *app) loginCommand() *cobra.Command {
	var server, email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token in the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if server != "" {
				a.profile.Server = server
			}
			if password == "" {
				password = os.Getenv("TRACKEAR_PASSWORD")
			}
			resp, err := client.Login(cmd.Context(), a.profile.Server, email, password)
			if err != nil {
				return err
			}
			a.profile.Email = resp.User.Email
			a.profile.Token = resp.Token
			if err := a.profile.Save(a.profilePath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", resp.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Server URL")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (or TRACKEAR_PASSWORD)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) projectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List your projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api(cmd.Context())
			if err != nil {
				return err
			}
			projects, err := api.Projects(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range projects {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", p.ID, p.Name)
			}
			return nil
		},
	}
}

func (a *app) clientsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List your clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api(cmd.Context())
			if err != nil {
				return err
			}
			clients, err := api.Clients(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range clients {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s <%s>\n", c.ID, c.FirstName, c.LastName, c.Email)
			}
			return nil
		},
	}
}

func (a *app) invoiceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Create and send invoices",
	}
	cmd.AddCommand(a.invoiceNewCommand(), a.invoiceNotifyCommand())
	return cmd
}

type invoiceOptions struct {
	project, client string
	from, to        string
	rate            string
	remove          []string
	preview         bool
	finalize        bool
}

func (a *app) invoiceNewCommand() *cobra.Command {
	var opts invoiceOptions
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Import tracked time into a new invoice",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInvoiceNew(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.project, "project", "", "Project id (default from profile)")
	cmd.Flags().StringVar(&opts.client, "client", "", "Client id (default from profile)")
	cmd.Flags().StringVar(&opts.from, "from", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.to, "to", "", "Last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.rate, "rate", "", "Bill every entry at this rate")
	cmd.Flags().StringSliceVar(&opts.remove, "remove", nil, "Track ids to leave out")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Print the invoice")
	cmd.Flags().BoolVar(&opts.finalize, "finalize", false, "Make the invoice visible to the client")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) runInvoiceNew(cmd *cobra.Command, opts invoiceOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	project, err := idOrDefault(opts.project, a.profile.DefaultProject, "project")
	if err != nil {
		return err
	}
	clientID, err := idOrDefault(opts.client, a.profile.DefaultClient, "client")
	if err != nil {
		return err
	}
	from, err := time.Parse(time.DateOnly, opts.from)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := time.Parse(time.DateOnly, opts.to)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}

	api, err := a.api(ctx)
	if err != nil {
		return err
	}

	s := draft.NewSession(api)
	if err := s.Configure(project, clientID); err != nil {
		return err
	}
	if err := s.SetPeriod(from, to); err != nil {
		return err
	}
	if err := s.Import(ctx, from, to); err != nil {
		return err
	}

	for _, raw := range opts.remove {
		track, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid --remove %q: %w", raw, err)
		}
		if err := s.Remove(ctx, track); err != nil {
			return err
		}
	}
	if opts.rate != "" {
		if err := s.ApplyRate(ctx, opts.rate); err != nil {
			return err
		}
	}

	inv := s.Invoice()
	fmt.Fprintf(out, "Invoice %s: %d entries, total %s\n", inv.ID, len(inv.Entries), s.Total().StringFixed(2))

	if !opts.preview && !opts.finalize {
		return nil
	}
	if err := s.Preview(); err != nil {
		return err
	}
	if opts.preview {
		fmt.Fprint(out, preview.Render(a.header(cmd, api, project, clientID), s.Invoice()))
	}
	if opts.finalize {
		if err := s.Finalize(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "Invoice %s is now visible to the client\n", inv.ID)
	}

	a.profile.DefaultProject = project
	a.profile.DefaultClient = clientID
	return a.profile.Save(a.profilePath)
}

// header looks up display names; lookups that fail fall back to ids.
func (a *app) header(cmd *cobra.Command, api *client.Client, project, clientID uuid.UUID) preview.Header {
	h := preview.Header{Project: project.String(), Client: clientID.String()}
	if projects, err := api.Projects(cmd.Context()); err == nil {
		for _, p := range projects {
			if p.ID == project {
				h.Project = p.Name
			}
		}
	}
	if clients, err := api.Clients(cmd.Context()); err == nil {
		for _, c := range clients {
			if c.ID == clientID {
				h.Client = strings.TrimSpace(c.FirstName + " " + c.LastName)
			}
		}
	}
	return h
}

func (a *app) invoiceNotifyCommand() *cobra.Command {
	var project, invoice string
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Email the client that an invoice is ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := idOrDefault(project, a.profile.DefaultProject, "project")
			if err != nil {
				return err
			}
			invoiceID, err := uuid.Parse(invoice)
			if err != nil {
				return fmt.Errorf("invalid --invoice: %w", err)
			}
			api, err := a.api(cmd.Context())
			if err != nil {
				return err
			}
			if err := api.NotifyClient(cmd.Context(), projectID, invoiceID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Notification queued")
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project id (default from profile)")
	cmd.Flags().StringVar(&invoice, "invoice", "", "Invoice id")
	cmd.MarkFlagRequired("invoice")
	return cmd
}

func idOrDefault(value string, fallback uuid.UUID, name string) (uuid.UUID, error) {
	if value == "" {
		if fallback == uuid.Nil {
			return uuid.Nil, fmt.Errorf("--%s is required", name)
		}
		return fallback, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return id, nil
}
