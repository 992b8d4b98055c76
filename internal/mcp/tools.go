package mcp

import (
	"context"
	"encoding/base64"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/probecase/clinsim/internal/domain/encounter"
)

// registerTools registers all encounter tools on the server. Input and
// output schemas are inferred from the param and result struct tags.
func registerTools(server *sdkmcp.Server, svcs Services) {
	enc := svcs.Encounters

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_cases",
		Description: "List available clinical cases with patient demographics and chief complaint",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in ListCasesParams) (*sdkmcp.CallToolResult, ListCasesResult, error) {
		cases, err := enc.Cases(ctx)
		if err != nil {
			return nil, ListCasesResult{}, toolError(err)
		}
		return nil, ListCasesResult{Cases: cases}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "start_encounter",
		Description: "Start a timed simulated patient encounter for a case. Level 1-3 controls how forthcoming the patient is. Optional time limit (seconds) and turn cap.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in StartEncounterParams) (*sdkmcp.CallToolResult, StartEncounterResult, error) {
		sess, err := enc.Start(ctx, encounter.StartRequest{
			CaseID:       in.CaseID,
			Level:        in.Level,
			TimeLimitSec: in.TimeLimitSec,
			MaxTurns:     in.MaxTurns,
		})
		if err != nil {
			return nil, StartEncounterResult{}, toolError(err)
		}

		_, def, err := enc.Export(ctx, sess.ID)
		if err != nil {
			return nil, StartEncounterResult{}, toolError(err)
		}

		result := StartEncounterResult{
			Encounter: encounterState(sess),
			Patient:   def.Summary(),
		}
		if len(sess.Messages) > 0 {
			result.Opening = sess.Messages[0].Content
		}
		return nil, result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "send_message",
		Description: "Say something to the virtual patient and receive their reply",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in SendMessageParams) (*sdkmcp.CallToolResult, SendMessageResult, error) {
		res, err := enc.SendMessage(ctx, in.SessionID, in.Message)
		if err != nil {
			return nil, SendMessageResult{}, toolError(err)
		}
		return nil, SendMessageResult{
			Reply:            res.Reply,
			Hint:             res.Hint,
			TurnLimitReached: res.TurnLimitHit,
			Encounter:        encounterState(res.Session),
		}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "perform_action",
		Description: "Perform a clinical action (vitals, exam, lab, imaging, medication) and get the finding",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in PerformActionParams) (*sdkmcp.CallToolResult, PerformActionResult, error) {
		sess, action, err := enc.PerformAction(ctx, in.SessionID, in.ActionType, in.Details)
		if err != nil {
			return nil, PerformActionResult{}, toolError(err)
		}
		return nil, PerformActionResult{
			Result:    action.Result,
			Encounter: encounterState(sess),
		}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "end_encounter",
		Description: "End the encounter and submit a working diagnosis, optionally with '| Intervention: <plan>' appended",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in EndEncounterParams) (*sdkmcp.CallToolResult, EndEncounterResult, error) {
		sess, err := enc.End(ctx, in.SessionID, in.Diagnosis)
		if err != nil {
			return nil, EndEncounterResult{}, toolError(err)
		}
		return nil, EndEncounterResult{Encounter: encounterState(sess)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_feedback",
		Description: "Get the scored feedback report for an ended encounter",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in GetFeedbackParams) (*sdkmcp.CallToolResult, GetFeedbackResult, error) {
		rep, err := enc.Feedback(ctx, in.SessionID)
		if err != nil {
			return nil, GetFeedbackResult{}, toolError(err)
		}
		return nil, GetFeedbackResult{Feedback: rep}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "export_encounter",
		Description: "Export the full encounter transcript, actions, and revealed findings",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in ExportEncounterParams) (*sdkmcp.CallToolResult, ExportEncounterResult, error) {
		sess, def, err := enc.Export(ctx, in.SessionID)
		if err != nil {
			return nil, ExportEncounterResult{}, toolError(err)
		}
		return nil, ExportEncounterResult{Session: sess, Case: def.Summary()}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_past_encounters",
		Description: "List archived, scored encounters, newest first, optionally filtered by case",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in ListPastEncountersParams) (*sdkmcp.CallToolResult, ListPastEncountersResult, error) {
		summaries, err := enc.History(ctx, in.CaseID, in.Limit)
		if err != nil {
			return nil, ListPastEncountersResult{}, toolError(err)
		}
		return nil, ListPastEncountersResult{Encounters: summaries}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_past_encounter",
		Description: "Retrieve one archived encounter with its transcript, actions, and feedback",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in GetPastEncounterParams) (*sdkmcp.CallToolResult, GetPastEncounterResult, error) {
		archived, err := enc.Archived(ctx, in.SessionID)
		if err != nil {
			return nil, GetPastEncounterResult{}, toolError(err)
		}
		return nil, GetPastEncounterResult{Encounter: archived}, nil
	})

	if svcs.Reports != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "export_report",
			Description: "Render the scored encounter as a PDF report, returned base64-encoded",
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in ExportReportParams) (*sdkmcp.CallToolResult, ExportReportResult, error) {
			sess, def, err := enc.Export(ctx, in.SessionID)
			if err != nil {
				return nil, ExportReportResult{}, toolError(err)
			}
			if sess.Feedback == nil {
				if _, err := enc.Feedback(ctx, in.SessionID); err != nil {
					return nil, ExportReportResult{}, toolError(err)
				}
				sess, def, err = enc.Export(ctx, in.SessionID)
				if err != nil {
					return nil, ExportReportResult{}, toolError(err)
				}
			}
			pdf, err := svcs.Reports.Render(sess, def)
			if err != nil {
				return nil, ExportReportResult{}, fmt.Errorf("rendering report: %w", err)
			}
			return nil, ExportReportResult{
				FileName:  fmt.Sprintf("encounter-%s.pdf", sess.ID),
				PDFBase64: base64.StdEncoding.EncodeToString(pdf),
			}, nil
		})
	}
}
