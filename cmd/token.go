package cmd

import (
	"encoding/json"
	"log"
	"os"

	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/spf13/cobra"
)

var (
	tokenUserID    int64
	tokenCompanyID int64
	tokenRole      string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for an actor",
	Long:  `Sign an RS256 access token carrying user, company and role so callers can reach the API.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		role, err := actor.ParseRole(tokenRole)
		if err != nil {
			log.Fatalf("invalid role: %v", err)
		}

		privateKey, err := cfg.Security.GetPrivateKey()
		if err != nil {
			log.Fatalf("invalid private key: %v", err)
		}
		publicKey, err := cfg.Security.GetPublicKey()
		if err != nil {
			log.Fatalf("invalid public key: %v", err)
		}

		tokens := auth.NewJWTTokenGenerator(privateKey, publicKey, cfg.Security.AccessTokenDuration)
		resp, err := tokens.Issue(actor.Actor{UserID: tokenUserID, CompanyID: tokenCompanyID, Role: role})
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			log.Fatalf("failed to write token: %v", err)
		}
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenUserID, "user", 0, "employee id of the actor")
	tokenCmd.Flags().Int64Var(&tokenCompanyID, "company", 1, "company id of the actor")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(actor.RoleEmployee), "EMPLOYEE, MANAGER, HR or ADMIN")
	_ = tokenCmd.MarkFlagRequired("user")
}
