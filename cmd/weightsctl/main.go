// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command weightsctl administers feature weight sets on a running
// validator instance.
//
// Usage:
//
//	weightsctl list
//	weightsctl get <id>
//	weightsctl import weights.json
//	weightsctl set-default <id>
//	weightsctl --server http://validator:8080 list
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "weightsctl",
	Short: "Administer response-validator feature weight sets",
	Long: `weightsctl manages the feature weight sets of a running response
validator: listing stored sets, inspecting one, importing a new set from a
JSON file, and moving the default pointer.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored weight-set keys and the default",
	RunE: func(_ *cobra.Command, _ []string) error {
		return getJSON("/datasets/feature_weights")
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one weight set",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return getJSON("/datasets/feature_weights/" + args[0])
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a weight set from a JSON file",
	Long: `Import reads a JSON object mapping the six feature names (plus an
optional "intercept") to coefficients and stores it. Importing a set that
already exists prints the existing key.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		// Validate locally so a typo fails before it hits the server.
		var payload map[string]float64
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		return postJSON("/datasets/feature_weights", http.MethodPost, raw)
	},
}

var setDefaultCmd = &cobra.Command{
	Use:   "set-default <id>",
	Short: "Point the default at an existing weight set",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		body, _ := json.Marshal(map[string]string{"feature_weights_set_id": args[0]})
		return postJSON("/datasets/feature_weights/default", http.MethodPut, body)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server",
		envOr("VALIDATOR_URL", "http://localhost:8080"), "Validator base URL")
	rootCmd.AddCommand(listCmd, getCmd, importCmd, setDefaultCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func getJSON(path string) error {
	resp, err := httpClient.Get(serverURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func postJSON(path, method string, body []byte) error {
	req, err := http.NewRequest(method, serverURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

// printResponse pretty-prints the server's JSON and maps non-2xx statuses
// to a command failure.
func printResponse(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(raw))
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
