package studio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voicecast/internal/auth"
	"voicecast/internal/cli/scheme/colours"
)

// AddAuthCommands attaches "auth login|logout|status" to rootCmd.
func (a *App) AddAuthCommands(rootCmd *cobra.Command) {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "🔑 Manage the API token",
		Long:  "Store, inspect or remove the bearer token sent with every backend request",
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Save a bearer token",
		Args:  cobra.NoArgs,
		RunE:  a.Login,
	}
	loginCmd.Flags().String("token", "", "Bearer token")
	_ = loginCmd.MarkFlagRequired("token")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE:  a.Logout,
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a token is stored",
		Args:  cobra.NoArgs,
		RunE:  a.AuthStatus,
	}

	authCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
	rootCmd.AddCommand(authCmd)
}

func (a *App) Login(cmd *cobra.Command, args []string) error {
	token, _ := cmd.Flags().GetString("token")
	token = strings.TrimSpace(token)
	if err := a.tokens.Save(a.ctx, token); err != nil {
		return err
	}
	colours.Success.Println("✅ Token saved")
	return nil
}

func (a *App) Logout(cmd *cobra.Command, args []string) error {
	if err := a.tokens.Clear(a.ctx); err != nil {
		return err
	}
	colours.Success.Println("👋 Token removed")
	return nil
}

func (a *App) AuthStatus(cmd *cobra.Command, args []string) error {
	rec, err := a.tokens.Load(a.ctx)
	if errors.Is(err, auth.ErrNoToken) {
		colours.Warning.Println("🔓 Not logged in")
		return nil
	}
	if err != nil {
		return err
	}
	colours.Success.Println("🔒 Logged in")
	colours.Field("Token", maskToken(rec.Token))
	colours.Field("Saved", rec.SavedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return fmt.Sprintf("%s…%s", token[:4], token[len(token)-4:])
}
