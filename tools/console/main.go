// Command console is the operator client for a starhold node. It speaks the
// HTTP API only; it never touches the database directly.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	empireID  int64

	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "console",
		Short: "Starhold operator console",
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Node URL")
	rootCmd.PersistentFlags().Int64VarP(&empireID, "empire", "e", 0, "Empire ID (X-Empire-ID)")

	rootCmd.AddCommand(statusCmd(), registerCmd(), accrueCmd(), capacitiesCmd(),
		energyCmd(), actionsCmd(), startCmd(), cancelCmd(), ledgerCmd(), snapshotCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func call(method, path string, payload interface{}) (map[string]interface{}, []interface{}, error) {
	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if empireID > 0 {
		req.Header.Set("X-Empire-ID", strconv.FormatInt(empireID, 10))
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("%s: bad response (%d)", path, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var obj map[string]interface{}
		json.Unmarshal(raw, &obj)
		return nil, nil, fmt.Errorf("%s: %v (%d)", path, obj["message"], resp.StatusCode)
	}

	var obj map[string]interface{}
	if json.Unmarshal(raw, &obj) == nil {
		return obj, nil, nil
	}
	var list []interface{}
	if json.Unmarshal(raw, &list) == nil {
		return nil, list, nil
	}
	return nil, nil, fmt.Errorf("%s: unexpected response shape", path)
}

func fail(err error) {
	errorColor.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Node status probe",
		Run: func(cmd *cobra.Command, args []string) {
			obj, _, err := call("GET", "/api/status", nil)
			if err != nil {
				fail(err)
			}
			fmt.Printf("uptime: %vs, structure types: %v\n", obj["uptime_s"], obj["catalog"])
		},
	}
}

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <name> <password>",
		Short: "Create an empire with its home base",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			obj, _, err := call("POST", "/api/register", map[string]string{"name": args[0], "password": args[1]})
			if err != nil {
				fail(err)
			}
			successColor.Printf("empire %v founded at %v\n", obj["empire_id"], obj["home_base"])
		},
	}
}

func accrueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accrue",
		Short: "Settle passive income and show the balance",
		Run: func(cmd *cobra.Command, args []string) {
			obj, _, err := call("POST", "/api/accrue", map[string]string{})
			if err != nil {
				fail(err)
			}
			emp := obj["empire"].(map[string]interface{})
			fmt.Printf("credits: %v (+%v), income: %v/h\n",
				emp["credits"], obj["credits_gained"], obj["credits_per_hour"])
		},
	}
}

func capacitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capacities <coord>",
		Short: "Throughput rates at a base",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			obj, _, err := call("GET", "/api/capacities?coord="+args[0], nil)
			if err != nil {
				fail(err)
			}
			fmt.Printf("construction: %v/h, production: %v/h, research: %v/h\n",
				obj["construction_per_hour"], obj["production_per_hour"], obj["research_per_hour"])
		},
	}
}

func energyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "energy <coord>",
		Short: "Energy budget at a base",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			obj, _, err := call("GET", "/api/energy?coord="+args[0], nil)
			if err != nil {
				fail(err)
			}
			fmt.Printf("produced: %v, consumed: %v, balance: %v, reserved: %v\n",
				obj["produced"], obj["consumed"], obj["balance"], obj["reserved_negative"])
		},
	}
}

func actionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions [coord]",
		Short: "List the pending-action queue",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := "/api/actions"
			if len(args) == 1 {
				path += "?coord=" + args[0]
			}
			_, list, err := call("GET", path, nil)
			if err != nil {
				fail(err)
			}
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"ID", "Base", "Kind", "Key", "Level", "Cost", "Completes", "Status"}),
			)
			for _, item := range list {
				a := item.(map[string]interface{})
				completes := "-"
				if ms, ok := a["completes_at"].(float64); ok && ms > 0 {
					completes = time.UnixMilli(int64(ms)).Format(time.RFC3339)
				}
				table.Append([]string{
					fmt.Sprintf("%.8v", a["id"]),
					fmt.Sprint(a["base_coord"]),
					fmt.Sprint(a["kind"]),
					fmt.Sprint(a["key"]),
					fmt.Sprint(a["target_level"]),
					fmt.Sprint(a["cost"]),
					completes,
					fmt.Sprint(a["status"]),
				})
			}
			table.Render()
		},
	}
}

func startCmd() *cobra.Command {
	kind := "structure"
	cmd := &cobra.Command{
		Use:   "start <coord> <key>",
		Short: "Schedule a construction/research action",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			obj, _, err := call("POST", "/api/actions/start",
				map[string]string{"coord": args[0], "key": args[1], "kind": kind})
			if err != nil {
				fail(err)
			}
			eta := time.Duration(int64(obj["eta_seconds"].(float64))) * time.Second
			successColor.Printf("scheduled %s for %v credits, done in %v (action %v)\n",
				args[1], obj["cost"], eta, obj["action_id"])
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "structure", "Action kind (structure|technology|unit|defense)")
	return cmd
}

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <coord> <action-id>",
		Short: "Cancel a pending action and refund its charge",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			obj, _, err := call("POST", "/api/actions/cancel",
				map[string]string{"coord": args[0], "action_id": args[1]})
			if err != nil {
				fail(err)
			}
			successColor.Printf("cancelled, refunded %v credits\n", obj["refunded_credits"])
		},
	}
}

func ledgerCmd() *cobra.Command {
	limit := 20
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Recent credit ledger entries",
		Run: func(cmd *cobra.Command, args []string) {
			_, list, err := call("GET", "/api/ledger?limit="+strconv.Itoa(limit), nil)
			if err != nil {
				fail(err)
			}
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"When", "Amount", "Reason", "Note", "Balance"}),
			)
			for _, item := range list {
				e := item.(map[string]interface{})
				ts := time.UnixMilli(int64(e["timestamp"].(float64))).Format("2006-01-02 15:04:05")
				table.Append([]string{
					ts,
					fmt.Sprintf("%+v", e["amount"]),
					fmt.Sprint(e["reason"]),
					fmt.Sprint(e["note"]),
					fmt.Sprint(e["balance"]),
				})
			}
			table.Render()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Entries to show")
	return cmd
}

func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Trigger a compressed world snapshot",
		Run: func(cmd *cobra.Command, args []string) {
			obj, _, err := call("POST", "/api/snapshot", map[string]string{})
			if err != nil {
				fail(err)
			}
			successColor.Printf("snapshot day %v: %v bytes, hash %v\n", obj["day_id"], obj["size"], obj["hash"])
		},
	}
}
