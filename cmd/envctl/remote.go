package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// remoteCmd はサーバーの復号APIを呼び出すコマンド。
func remoteCmd() *cobra.Command {
	var (
		apiURL   string
		data     string
		file     string
		url      string
		password string
	)
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Decrypt an envelope via the server API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiURL == "" {
				apiURL = os.Getenv("ENVCTL_API_URL")
			}
			if apiURL == "" {
				return fmt.Errorf("--api-url is required (or set ENVCTL_API_URL)")
			}
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

			reqBody, err := json.Marshal(map[string]string{
				"password":        password,
				"encryptedData":   data,
				"subscriptionUrl": url,
			})
			if err != nil {
				return fmt.Errorf("encoding request: %w", err)
			}

			httpClient := &http.Client{Timeout: timeout}
			endpoint := strings.TrimRight(apiURL, "/") + "/api/decrypt"
			resp, err := httpClient.Post(endpoint, "application/json", bytes.NewReader(reqBody))
			if err != nil {
				return fmt.Errorf("API request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return handleErrorResponse(resp.StatusCode, body)
			}

			if output == "json" {
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			}
			var result struct {
				Data json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), result.Data)
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API endpoint URL (or set ENVCTL_API_URL)")
	cmd.Flags().StringVar(&data, "data", "", "Envelope JSON or base64 token")
	cmd.Flags().StringVar(&file, "file", "", "File containing the envelope (- for stdin)")
	cmd.Flags().StringVar(&url, "url", "", "Subscription URL for the server to fetch")
	cmd.Flags().StringVar(&password, "password", "", "Decryption password (or set ENVCTL_PASSWORD)")
	return cmd
}
