package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"config-envelope-service/internal/infra"
)

// adminSecretCmd は管理者パスワードをCloud KMSで暗号化し、
// ADMIN_PASSWORD_CIPHERTEXT に設定する値を出力する。
func adminSecretCmd() *cobra.Command {
	var (
		keyName  string
		password string
	)
	cmd := &cobra.Command{
		Use:   "admin-secret",
		Short: "Encrypt the admin password with Cloud KMS",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyName == "" {
				keyName = os.Getenv("KMS_KEY_NAME")
			}
			if keyName == "" {
				return fmt.Errorf("--key-name is required (or set KMS_KEY_NAME)")
			}

			password, err := resolvePassword(cmd, password)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			kmsClient, err := infra.NewKMSClient(ctx, keyName)
			if err != nil {
				return err
			}
			defer kmsClient.Close()

			ciphertext, err := kmsClient.Encrypt(ctx, []byte(password))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ADMIN_PASSWORD_CIPHERTEXT=%s\n", base64.StdEncoding.EncodeToString(ciphertext))
			return nil
		},
	}
	cmd.Flags().StringVar(&keyName, "key-name", "", "Cloud KMS key resource name (or set KMS_KEY_NAME)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (or set ENVCTL_PASSWORD)")
	return cmd
}
