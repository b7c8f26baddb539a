package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/http/dto"
	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/auth"
)

type rootOptions struct {
	baseURL        string
	timeout        time.Duration
	owner          string
	token          string
	idempotencyKey string
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "ledger-cli",
		Short:         "Command line client for the ledger balance API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "API base URL")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "HTTP client timeout")
	rootCmd.PersistentFlags().StringVar(&opts.owner, "owner", "", "Owner id sent as X-Owner-ID when no token is given")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", "", "Bearer token")
	rootCmd.PersistentFlags().StringVar(&opts.idempotencyKey, "idempotency-key", "", "Idempotency-Key for write requests")

	rootCmd.AddCommand(
		newAccountsCmd(opts),
		newEntriesCmd(opts),
		newBalanceCmd(opts),
		newReconcileCmd(opts),
		newTokenCmd(),
	)

	return rootCmd
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.baseURL, o.owner, o.token, o.idempotencyKey, o.timeout)
}

// call performs the request and prints the JSON response, if any.
func (o *rootOptions) call(cmd *cobra.Command, method, path string, query url.Values, body any) error {
	resp, err := o.client().do(cmd.Context(), method, path, query, body)
	if err != nil {
		return err
	}
	if len(resp) == 0 {
		return printJSON(cmd.OutOrStdout(), map[string]string{"status": "ok"})
	}
	return printRaw(cmd.OutOrStdout(), resp)
}

func newAccountsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
	}

	var (
		kind, walletKind, initial string
		limit, offset             int
	)

	openCmd := &cobra.Command{
		Use:   "open NAME",
		Short: "Open a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := parseAmount(initial, true)
			if err != nil {
				return err
			}
			req := dto.OpenAccountRequest{
				Name:           args[0],
				Kind:           kind,
				WalletKind:     walletKind,
				InitialBalance: balance,
			}
			return opts.call(cmd, http.MethodPost, "/api/v1/accounts", nil, req)
		},
	}
	openCmd.Flags().StringVar(&kind, "kind", string(domain.AccountKindCurrent), "Account kind (current, savings, operational)")
	openCmd.Flags().StringVar(&walletKind, "wallet", "", "Wallet kind (bank, mobile-money, cash)")
	openCmd.Flags().StringVar(&initial, "initial", "0", "Initial balance")

	getCmd := &cobra.Command{
		Use:   "get ACCOUNT_ID",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0]), nil, nil)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))
			return opts.call(cmd, http.MethodGet, "/api/v1/accounts", q, nil)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	closeCmd := &cobra.Command{
		Use:   "close ACCOUNT_ID",
		Short: "Close an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, http.MethodDelete, "/api/v1/accounts/"+url.PathEscape(args[0]), nil, nil)
		},
	}

	cmd.AddCommand(openCmd, getCmd, listCmd, closeCmd)
	return cmd
}

type entryFlags struct {
	amount, label, description, reference, category, at, direction string
}

func newEntriesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Post and inspect entries",
	}

	cmd.AddCommand(
		newPostCmd(opts, "credit", "credits"),
		newPostCmd(opts, "debit", "debits"),
		newEditCmd(opts),
		newListEntriesCmd(opts),
		&cobra.Command{
			Use:   "get ENTRY_ID",
			Short: "Show an entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.call(cmd, http.MethodGet, "/api/v1/entries/"+url.PathEscape(args[0]), nil, nil)
			},
		},
		&cobra.Command{
			Use:   "delete ENTRY_ID",
			Short: "Delete an entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.call(cmd, http.MethodDelete, "/api/v1/entries/"+url.PathEscape(args[0]), nil, nil)
			},
		},
	)
	return cmd
}

func newPostCmd(opts *rootOptions, name, resource string) *cobra.Command {
	f := &entryFlags{}
	cmd := &cobra.Command{
		Use:   name + " ACCOUNT_ID",
		Short: "Post a " + name + " to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(f.amount, false)
			if err != nil {
				return err
			}
			occurredAt, err := parseOptionalTime(f.at)
			if err != nil {
				return err
			}
			req := dto.PostEntryRequest{
				Amount:      amount,
				Label:       f.label,
				Description: f.description,
				Reference:   f.reference,
				Category:    f.category,
				OccurredAt:  occurredAt,
			}
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/" + resource
			return opts.call(cmd, http.MethodPost, path, nil, req)
		},
	}
	cmd.Flags().StringVar(&f.amount, "amount", "", "Amount, strictly positive")
	cmd.Flags().StringVar(&f.label, "label", "", "Entry label")
	cmd.Flags().StringVar(&f.description, "description", "", "Free text description")
	cmd.Flags().StringVar(&f.reference, "reference", "", "External reference")
	cmd.Flags().StringVar(&f.category, "category", "", "Category")
	cmd.Flags().StringVar(&f.at, "at", "", "Occurrence time (RFC3339), defaults to now")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	f := &entryFlags{}
	cmd := &cobra.Command{
		Use:   "edit ENTRY_ID",
		Short: "Edit an entry; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.EditEntryRequest{}
			flags := cmd.Flags()
			if flags.Changed("amount") {
				amount, err := parseAmount(f.amount, false)
				if err != nil {
					return err
				}
				req.Amount = &amount
			}
			if flags.Changed("at") {
				at, err := parseOptionalTime(f.at)
				if err != nil {
					return err
				}
				req.OccurredAt = at
			}
			if flags.Changed("direction") {
				req.Direction = &f.direction
			}
			if flags.Changed("label") {
				req.Label = &f.label
			}
			if flags.Changed("description") {
				req.Description = &f.description
			}
			if flags.Changed("reference") {
				req.Reference = &f.reference
			}
			if flags.Changed("category") {
				req.Category = &f.category
			}
			return opts.call(cmd, http.MethodPatch, "/api/v1/entries/"+url.PathEscape(args[0]), nil, req)
		},
	}
	cmd.Flags().StringVar(&f.amount, "amount", "", "New amount")
	cmd.Flags().StringVar(&f.direction, "direction", "", "New direction (credit, debit)")
	cmd.Flags().StringVar(&f.label, "label", "", "New label")
	cmd.Flags().StringVar(&f.description, "description", "", "New description")
	cmd.Flags().StringVar(&f.reference, "reference", "", "New reference")
	cmd.Flags().StringVar(&f.category, "category", "", "New category")
	cmd.Flags().StringVar(&f.at, "at", "", "New occurrence time (RFC3339)")
	return cmd
}

func newListEntriesCmd(opts *rootOptions) *cobra.Command {
	var (
		from, to, direction, cursor string
		limit                       int
	)
	cmd := &cobra.Command{
		Use:   "list ACCOUNT_ID",
		Short: "List an account's entries, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for key, val := range map[string]string{"from": from, "to": to, "direction": direction, "cursor": cursor} {
				if val != "" {
					q.Set(key, val)
				}
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/entries"
			return opts.call(cmd, http.MethodGet, path, q, nil)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Earliest occurrence time (RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "Latest occurrence time (RFC3339)")
	cmd.Flags().StringVar(&direction, "direction", "", "Only credits or debits")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Cursor from a previous page")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	return cmd
}

func newBalanceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Query balances",
	}

	totalCmd := &cobra.Command{
		Use:   "total",
		Short: "Sum of the owner's active account balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.call(cmd, http.MethodGet, "/api/v1/balance", nil, nil)
		},
	}

	var at string
	atCmd := &cobra.Command{
		Use:   "at ACCOUNT_ID",
		Short: "Balance of an account at a point in time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if at != "" {
				if _, err := parseOptionalTime(at); err != nil {
					return err
				}
				q.Set("at", at)
			}
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/balance/history"
			return opts.call(cmd, http.MethodGet, path, q, nil)
		},
	}
	atCmd.Flags().StringVar(&at, "at", "", "Point in time (RFC3339), defaults to now")

	cmd.AddCommand(totalCmd, atCmd)
	return cmd
}

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [ACCOUNT_ID]",
		Short: "Check stored balances against the entry history",
		Long:  "With an account id, checks that account. Without, reports on every account of the owner.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return opts.call(cmd, http.MethodGet, "/api/v1/reconciliation", nil, nil)
			}
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/reconciliation"
			return opts.call(cmd, http.MethodGet, path, nil, nil)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rebuild ACCOUNT_ID",
		Short: "Recompute an account's running balances from its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/rebuild"
			return opts.call(cmd, http.MethodPost, path, nil, nil)
		},
	})
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		secret, role string
		ttl          time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token OWNER_ID",
		Short: "Issue a bearer token for an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			token, err := auth.NewJWTManager(secret, ttl).Generate(args[0], domain.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret, as configured on the server")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOwner), "Role (owner, viewer)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func parseAmount(s string, allowZero bool) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount.IsNegative() || (!allowZero && amount.IsZero()) {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return &t, nil
}

// printRaw re-indents a JSON response body.
func printRaw(w io.Writer, body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(body))
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
