package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"zentrix.com/portal/infrastructure/communication"
	"zentrix.com/portal/infrastructure/devops"
	"zentrix.com/portal/portal/app"
	"zentrix.com/portal/portal/core"
	"zentrix.com/portal/portal/model"
)

// DigestEvent is the optional detail of the scheduled event
type DigestEvent struct {
	Employee string `json:"employee"`
	DryRun   bool   `json:"dryRun"`
}

type DigestResult struct {
	Findings int    `json:"findings"`
	Sent     bool   `json:"sent"`
	Message  string `json:"message"`
}

func parseDetail(raw json.RawMessage) (DigestEvent, error) {
	var detail DigestEvent
	if len(raw) == 0 {
		return detail, nil
	}
	if err := json.Unmarshal(raw, &detail); err != nil {
		return detail, fmt.Errorf("parse event detail: %w", err)
	}
	return detail, nil
}

func HandleRequest(ctx context.Context, event events.CloudWatchEvent) (*DigestResult, error) {
	slog.InfoContext(ctx, "mispunch digest triggered", "id", event.ID, "time", event.Time)

	detail, err := parseDetail(event.Detail)
	if err != nil {
		return nil, err
	}

	cfg, err := devops.Load(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	app.NewLogger(cfg)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init services: %w", err)
	}
	defer a.Close()

	viewer := model.Viewer{Name: detail.Employee}
	if detail.Employee == "" {
		viewer.Role = model.RoleAdmin
	}
	result := a.Attendance.Summary(ctx, viewer)
	if result.LoadFailed {
		return nil, fmt.Errorf("%w: %s", core.ErrFeedUnavailable, result.Message)
	}

	message := core.Digest(result.Summary, time.Now().In(a.Attendance.Location))
	out := &DigestResult{Findings: len(result.Summary.Mispunches), Message: message}
	if detail.DryRun || out.Findings == 0 {
		slog.InfoContext(ctx, "digest not sent", "findings", out.Findings, "dryRun", detail.DryRun)
		return out, nil
	}

	notifiers := communication.Multi{a.Notifier}
	email, err := app.NewEmail(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init email: %w", err)
	}
	if email != nil {
		notifiers = append(notifiers, email)
	}
	if err := notifiers.Notify(ctx, communication.Notification{Message: message, Kind: communication.KindInfo}); err != nil {
		return out, fmt.Errorf("send digest: %w", err)
	}
	out.Sent = true
	slog.InfoContext(ctx, "digest sent", "findings", out.Findings)
	return out, nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") == "" {
		out, err := HandleRequest(context.Background(), events.CloudWatchEvent{ID: "local", Time: time.Now()})
		if err != nil {
			slog.Error("digest failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(out.Message)
		return
	}
	lambda.Start(HandleRequest)
}
