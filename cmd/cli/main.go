package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/auth"
)

type options struct {
	baseURL   string
	timeout   time.Duration
	principal string
	role      string
	token     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "stockledger-cli",
		Short:         "StockLedger CLI tool",
		Long:          `A command line interface for interacting with the StockLedger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the StockLedger API")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	flags.StringVar(&opts.principal, "principal", "", "Identity sent in the development headers")
	flags.StringVar(&opts.role, "role", string(domain.RoleTrader), "Role sent in the development headers")
	flags.StringVar(&opts.token, "token", os.Getenv("STOCKLEDGER_TOKEN"), "Bearer token; overrides --principal")

	rootCmd.AddCommand(
		accountCmd(opts),
		stockCmd(opts),
		tradeCmd(opts),
		portfolioCmd(opts),
		adminCmd(opts),
		tokenCmd(),
	)

	return rootCmd
}

func accountCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "account", Short: "Account operations"}

	var displayName string
	create := &cobra.Command{
		Use:   "create",
		Short: "Open an account for the principal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newClient(opts).call(cmd, "POST", "/api/v1/account", dto.CreateAccountRequest{DisplayName: displayName})
		},
	}
	create.Flags().StringVar(&displayName, "name", "", "Display name")

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the principal's account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newClient(opts).call(cmd, "GET", "/api/v1/account", nil)
		},
	}

	topUp := &cobra.Command{
		Use:   "topup <amount>",
		Short: "Credit the principal's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseUint("amount", args[0])
			if err != nil {
				return err
			}
			return newClient(opts).call(cmd, "POST", "/api/v1/account/topup", dto.TopUpRequest{Amount: amount})
		},
	}

	cmd.AddCommand(create, get, topUp)
	return cmd
}

func stockCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "stock", Short: "Catalog operations"}

	create := &cobra.Command{
		Use:   "create <symbol> <name> <price> <quantity>",
		Short: "List a new stock",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, quantity, err := parsePriceQuantity(args[2], args[3])
			if err != nil {
				return err
			}
			return newClient(opts).call(cmd, "POST", "/api/v1/stocks", dto.CreateStockRequest{
				Symbol: args[0], Name: args[1], Price: price, AvailableQuantity: quantity,
			})
		},
	}

	upsert := &cobra.Command{
		Use:   "upsert <symbol> <name> <price> <quantity>",
		Short: "Create or replace a listing",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, quantity, err := parsePriceQuantity(args[2], args[3])
			if err != nil {
				return err
			}
			return newClient(opts).call(cmd, "PUT", "/api/v1/stocks/"+args[0], dto.UpsertStockRequest{
				Name: args[1], Price: price, AvailableQuantity: quantity,
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <symbol>",
		Short: "Remove a listing nobody holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient(opts).call(cmd, "DELETE", "/api/v1/stocks/"+args[0], nil)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newClient(opts).call(cmd, "GET", "/api/v1/stocks", nil)
		},
	}

	cmd.AddCommand(create, upsert, del, list)
	return cmd
}

func tradeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "trade", Short: "Buy and sell stock"}

	for _, side := range []string{"buy", "sell"} {
		cmd.AddCommand(&cobra.Command{
			Use:   side + " <symbol> <quantity>",
			Short: "Execute a " + side + " order",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				quantity, err := parseUint("quantity", args[1])
				if err != nil {
					return err
				}
				return newClient(opts).call(cmd, "POST", "/api/v1/trades/"+side, dto.TradeRequest{
					Symbol: args[0], Quantity: quantity,
				})
			},
		})
	}

	return cmd
}

func portfolioCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "portfolio", Short: "Inspect holdings"}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show every holding and the total asset value",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return newClient(opts).call(cmd, "GET", "/api/v1/portfolio", nil)
			},
		},
		&cobra.Command{
			Use:   "stock <symbol>",
			Short: "Show a single holding",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return newClient(opts).call(cmd, "GET", "/api/v1/portfolio/"+args[0], nil)
			},
		},
	)

	return cmd
}

func adminCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Administrative operations"}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "reset-holdings",
			Short: "Delete every holding",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return newClient(opts).call(cmd, "DELETE", "/api/v1/admin/holdings", nil)
			},
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Check holdings against balances and the catalog",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return newClient(opts).call(cmd, "GET", "/api/v1/admin/reconciliation", nil)
			},
		},
	)

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token <identity>",
		Short: "Mint a bearer token signed with the server secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			token, err := auth.NewJWTManager(secret, ttl).Generate(domain.Principal{
				ID:   args[0],
				Role: domain.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC secret shared with the server")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&role, "as", string(domain.RoleTrader), "Role claim (trader or admin)")
	return cmd
}

func parseUint(name, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, s)
	}
	return v, nil
}

func parsePriceQuantity(price, quantity string) (uint64, uint64, error) {
	p, err := parseUint("price", price)
	if err != nil {
		return 0, 0, err
	}
	q, err := parseUint("quantity", quantity)
	if err != nil {
		return 0, 0, err
	}
	return p, q, nil
}
