package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
)

const healthCheckTimeout = 5 * time.Second

// newHealthCmd creates a cobra command that checks the health of a running
// transport instance by dialing it and issuing a {"tool":"mw_kb_list"} ping.
func newHealthCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the health of a running transport instance",
		Long:  "Dial the transport server and issue a mw_kb_list ping, reporting success if a response frame is received.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHealthCheck(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:7330", "address of the transport server")

	return cmd
}

// runHealthCheck dials addr, sends a mw_kb_list ping, and reports an error
// unless a well-formed response frame is received.
func runHealthCheck(ctx context.Context, addr string) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	dialer := net.Dialer{}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	req, err := json.Marshal(map[string]string{"tool": "mw_kb_list"})
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if _, err := conn.Write(append(req, '\n')); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	var resp struct {
		Error string `json:"error"`
	}

	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("health check returned malformed response: %w", err)
	}

	if resp.Error != "" {
		return fmt.Errorf("health check returned error: %s", resp.Error)
	}

	fmt.Println("ok") //nolint:forbidigo // CLI output is intentional

	return nil
}
