package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/redmonkez12/bookings-api/internal/auth"
	"github.com/redmonkez12/bookings-api/internal/config"
	"github.com/redmonkez12/bookings-api/internal/cors"
)

var errOriginDenied = errors.New("origin denied")

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Load the environment configuration and print the effective values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				printFail(cmd.OutOrStdout(), err.Error())
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) {
	printTitle(w, "Effective configuration")
	printField(w, "APP_ENV", cfg.Server.Env)
	printField(w, "SERVER_PORT", cfg.Server.Port)
	printField(w, "CORS_ORIGIN", cors.ParseAllowList(cfg.Server.CORSOrigin).String())
	printField(w, "DB_DRIVER", cfg.Database.Driver)
	if cfg.Database.Driver == config.DriverSQLite {
		printField(w, "SQLITE_PATH", cfg.Database.SQLitePath)
	} else {
		printField(w, "DB_HOST", cfg.Database.Host+":"+cfg.Database.Port)
		printField(w, "DB_NAME", cfg.Database.DBName)
	}
	if cfg.Redis.Enabled() {
		printField(w, "REDIS", cfg.Redis.Address())
		printField(w, "RATE_LIMIT", fmt.Sprintf("%d per %s", cfg.RateLimit.Requests, cfg.RateLimit.Window))
	} else {
		printField(w, "REDIS", "disabled (no rate limiting)")
	}
	printField(w, "JWT_SECRET", fmt.Sprintf("set (%d bytes)", len(cfg.Auth.Secret)))
	printField(w, "TOKEN_FORMAT", cfg.Auth.TokenFormat)
	printField(w, "JWT_EXPIRE", cfg.Auth.TokenLifetime.String())
	printField(w, "JWT_COOKIE_EXPIRE", cfg.Auth.CookieLifetime.String())
	printField(w, "RESET_TOKEN_TTL", cfg.Auth.ResetTokenTTL.String())
	if cfg.Email.SMTPHost != "" {
		printField(w, "SMTP", cfg.Email.SMTPHost+":"+cfg.Email.SMTPPort)
	} else {
		printField(w, "SMTP", "disabled (reset links logged)")
	}
	printField(w, "FRONTEND_URL", cfg.Email.FrontendURL)
}

func newCORSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Show whether an Origin would be allowed by the CORS allow-list",
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, _ := cmd.Flags().GetString("origin")
			raw, _ := cmd.Flags().GetString("allow")
			if !cmd.Flags().Changed("allow") {
				raw = config.CORSOrigin()
			}
			return checkOrigin(cmd.OutOrStdout(), cors.ParseAllowList(raw), origin)
		},
	}
	cmd.Flags().String("origin", "", "Origin header value to test (empty means no Origin)")
	cmd.Flags().String("allow", "", "Raw allow-list (defaults to CORS_ORIGIN)")
	return cmd
}

func checkOrigin(w io.Writer, list cors.AllowList, origin string) error {
	printField(w, "allow-list", list.String())
	printField(w, "origin", strconv.Quote(origin))

	if !list.Allows(origin) {
		printFail(w, "denied: no CORS headers will be sent")
		return errOriginDenied
	}

	switch {
	case origin == "":
		printOK(w, "allowed: request has no Origin")
	case list.Wildcard:
		printOK(w, "allowed: wildcard, Access-Control-Allow-Origin echoes "+origin)
	default:
		printOK(w, "allowed: exact match")
	}
	return nil
}

func loadTokenService() (auth.TokenService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return auth.NewTokenService(cfg.Auth)
}

func newTokenIssueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue <user-id>",
		Short: "Issue a session token for a user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			svc, err := loadTokenService()
			if err != nil {
				return err
			}
			token, err := svc.Issue(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newTokenVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify a session token and print its claims or failure reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadTokenService()
			if err != nil {
				return err
			}
			return verifyToken(cmd.OutOrStdout(), svc, args[0])
		},
	}
}

func verifyToken(w io.Writer, svc auth.TokenService, token string) error {
	claims, err := svc.Verify(token)
	if err != nil {
		printFail(w, "invalid: "+auth.FailureReason(err))
		return err
	}

	printOK(w, "valid")
	printField(w, "user id", claims.UserID.String())
	printField(w, "issued at", claims.IssuedAt.Format(time.RFC3339))
	printField(w, "expires at", claims.ExpiresAt.Format(time.RFC3339))
	return nil
}

func newPingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping <base-url>",
		Short: "Poll <base-url>/health until the API answers, waking an idle deployment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attempts, _ := cmd.Flags().GetInt("attempts")
			interval, _ := cmd.Flags().GetDuration("interval")
			client := &http.Client{Timeout: 30 * time.Second}
			return pingHealth(cmd.Context(), cmd.OutOrStdout(), client, args[0], attempts, interval)
		},
	}
	cmd.Flags().Int("attempts", 10, "Maximum number of health checks")
	cmd.Flags().Duration("interval", 5*time.Second, "Delay between attempts")
	return cmd
}
