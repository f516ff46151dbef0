package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Freeeeeet/reservation_series/internal/app"
	"github.com/Freeeeeet/reservation_series/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sessionRequest одна строка ввода в режиме session
type sessionRequest struct {
	Op      string                `json:"op"` // plan, remove, submit
	Staff   int64                 `json:"staff"`
	Plan    *planArgs             `json:"plan,omitempty"`
	Dates   []string              `json:"dates,omitempty"`
	Details service.SeriesDetails `json:"details"`
}

type sessionResponse struct {
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Read JSON requests line by line from stdin and keep drafts between them",
		Long: `Each input line is a JSON object:
  {"op":"plan","staff":1,"plan":{"unit":7,"from":"2026-11-02","to":"2026-12-20","start":"10:00","end":"11:00","days":[0,2],"pattern":"weekly"}}
  {"op":"remove","staff":1,"dates":["2026-11-09"]}
  {"op":"submit","staff":1,"details":{"name":"Choir practice"}}
Each response is written as one JSON line to stdout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			scheduler := app.NewScheduler(a.Drafts, a.Config.DraftTTL/4, a.Logger)
			scheduler.Start(cmd.Context())
			defer scheduler.Stop()

			return serveSession(cmd.Context(), a.Recurring, cmd.InOrStdin(), cmd.OutOrStdout(), a.Logger)
		},
	}
}

func serveSession(ctx context.Context, svc *service.RecurringReservationService, in io.Reader, out io.Writer, logger *zap.Logger) error {
	scanner := bufio.NewScanner(in)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req sessionRequest
		resp := sessionResponse{}
		if err := json.Unmarshal(line, &req); err != nil {
			resp.Error = fmt.Sprintf("decode request: %v", err)
		} else {
			result, err := handleSessionRequest(ctx, svc, req)
			if err != nil {
				logger.Warn("Session request failed",
					zap.String("op", req.Op),
					zap.Int64("staff_id", req.Staff),
					zap.Error(err))
				resp.Error = err.Error()
			} else {
				resp.OK = true
				resp.Result = result
			}
		}

		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	return scanner.Err()
}

func handleSessionRequest(ctx context.Context, svc *service.RecurringReservationService, req sessionRequest) (any, error) {
	switch req.Op {
	case "plan":
		if req.Plan == nil {
			return nil, fmt.Errorf("plan request without plan arguments")
		}
		planReq, err := req.Plan.request()
		if err != nil {
			return nil, err
		}
		return svc.Plan(ctx, req.Staff, planReq)
	case "remove":
		dates, err := parseDates(req.Dates)
		if err != nil {
			return nil, err
		}
		removed, err := svc.RemoveInstances(req.Staff, dates)
		if err != nil {
			return nil, err
		}
		return map[string]int{"removed": removed}, nil
	case "submit":
		return svc.SubmitDraft(ctx, req.Staff, req.Details)
	default:
		return nil, fmt.Errorf("unknown op %q", req.Op)
	}
}
