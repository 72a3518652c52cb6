package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"config-envelope-service/internal/domain"
	"config-envelope-service/internal/envelope"
)

// sealCmd は設定ペイロードの暗号化コマンド。
func sealCmd() *cobra.Command {
	var (
		file       string
		password   string
		iterations int
		ttl        time.Duration
		format     string
	)
	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt a config payload into an envelope",
		Long:  "Encrypt a JSON config payload (from --file or stdin) into a version 2.0 envelope.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "token" && format != "json" {
				return fmt.Errorf("--format must be token or json")
			}

			raw, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			var payload domain.ConfigPayload
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return fmt.Errorf("parsing payload: %w", err)
			}
			if !payload.Type.Valid() {
				return fmt.Errorf("payload type must be one of vod, dailymotion, all: %q", payload.Type)
			}

			now := time.Now()
			if payload.Timestamp == 0 {
				payload.Timestamp = now.UnixMilli()
			}
			if ttl > 0 {
				expiresAt := now.Add(ttl).UnixMilli()
				payload.ExpiresAt = &expiresAt
			}

			plaintext, err := json.Marshal(&payload)
			if err != nil {
				return fmt.Errorf("encoding payload: %w", err)
			}

			password, err = resolvePassword(cmd, password)
			if err != nil {
				return err
			}

			pkg, err := envelope.Seal(plaintext, password, envelope.SealOptions{Iterations: iterations})
			if err != nil {
				return err
			}

			if format == "json" {
				return printJSON(cmd.OutOrStdout(), pkg)
			}
			token, err := envelope.EncodeToken(pkg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Payload JSON file (default: stdin)")
	cmd.Flags().StringVar(&password, "password", "", "Encryption password (or set ENVCTL_PASSWORD)")
	cmd.Flags().IntVar(&iterations, "iterations", domain.DefaultIterations, "PBKDF2 iterations")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Expire the config after this duration (e.g. 720h)")
	cmd.Flags().StringVar(&format, "format", "token", "Envelope format: token, json")
	return cmd
}
