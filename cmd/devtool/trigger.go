package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type TriggerCommand struct{}

func (c *TriggerCommand) Name() string {
	return "trigger"
}

func (c *TriggerCommand) Description() string {
	return "Call the finalize endpoints of a running server (sweep [limit], finalize <game-id>)"
}

func (c *TriggerCommand) Run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("subcommand required: sweep, finalize")
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	if e.CronSecret == "" {
		return fmt.Errorf("CRON_SECRET must be set")
	}

	var path string
	var body io.Reader
	switch args[0] {
	case "sweep":
		path = "/api/v1/cron/finalize"
		if len(args) > 1 {
			limit, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid limit %q: %w", args[1], err)
			}
			payload, _ := json.Marshal(map[string]int{"limit": limit})
			body = bytes.NewReader(payload)
		}
	case "finalize":
		if len(args) < 2 {
			return fmt.Errorf("game ID required for finalize")
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid game ID %q: %w", args[1], err)
		}
		path = "/api/v1/games/" + id.String() + "/finalize"
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(e.ServerURL, "/")+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+e.CronSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: e.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, out, "", "  ") == nil {
		out = pretty.Bytes()
	}
	fmt.Println(string(out))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	PrintSuccess("%s %s", args[0], resp.Status)
	return nil
}
