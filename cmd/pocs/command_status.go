package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func newStatusCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running observatory for driver server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			conn, err := dial(ctx, addr)
			if err != nil {
				return err
			}
			defer conn.Close()

			client := healthpb.NewHealthClient(conn)

			rows := make([][]string, 0, 2)
			for _, svc := range []struct{ name, label string }{
				{"", "observatory"},
				{driverServerService, "driver server"},
			} {
				resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: svc.name})
				switch {
				case grpcCode(err) == codes.NotFound:
					rows = append(rows, []string{svc.label, "NOT CONFIGURED"})
				case err != nil:
					return err
				default:
					rows = append(rows, []string{svc.label, resp.GetStatus().String()})
				}
			}

			printTable(cmd.OutOrStdout(), []string{"SERVICE", "STATUS"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "observatory gRPC address (default $"+addressEnv+" or "+defaultAddress+")")
	return cmd
}
