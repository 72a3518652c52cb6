package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"config-envelope-service/internal/envelope"
	"config-envelope-service/internal/infra"
	"config-envelope-service/internal/usecase"
)

// fetchMaxBytes はCLIでのリモート取得の上限。
const fetchMaxBytes = 1 << 20

// openCmd はローカルでの復号コマンド。
func openCmd() *cobra.Command {
	var (
		data     string
		file     string
		url      string
		password string
	)
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Decrypt an envelope locally",
		Long:  "Decrypt an envelope from --data, --file or --url and print the config payload.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if data == "" && url == "" {
				if file == "" {
					return fmt.Errorf("one of --data, --file or --url is required")
				}
				raw, err := readInput(cmd, file)
				if err != nil {
					return err
				}
				data = raw
			}

			password, err := resolvePassword(cmd, password)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			service := usecase.NewDecryptService(
				infra.NewHTTPFetcher(timeout, fetchMaxBytes),
				envelope.NewOpener(),
			)
			payload, err := service.Decrypt(ctx, password, usecase.DecryptInput{Data: data, URL: url})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), payload)
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "Envelope JSON or base64 token")
	cmd.Flags().StringVar(&file, "file", "", "File containing the envelope (- for stdin)")
	cmd.Flags().StringVar(&url, "url", "", "Subscription URL to fetch the envelope from")
	cmd.Flags().StringVar(&password, "password", "", "Decryption password (or set ENVCTL_PASSWORD)")
	return cmd
}
