package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `clinsim runs timed, simulated clinical encounters with a virtual patient, then scores the interview.

Core concepts:
- Case: a scripted patient (demographics, chief complaint, hidden history, findings, expected diagnosis and actions).
- Encounter: one learner's session against a case. It is ACTIVE until ended by the learner, a turn cap, a time limit, or idle expiry.
- Level: 1-3 difficulty. Higher levels make the patient less forthcoming and may withhold findings.
- Feedback: a scored report (diagnosis, intervention, critical actions, communication, efficiency) available only after the encounter ends.

Default workflow:
1) Orient: call list_cases and pick a case_id.
2) Start: call start_encounter (optionally with level, time_limit_sec, max_turns). The result includes the patient's opening statement.
3) Interview: alternate send_message (talk to the patient) and perform_action (vitals, exam, lab, imaging, medication).
   - Findings are revealed per action; the patient only knows what a patient would know.
   - A coaching hint may accompany a reply; it is advisory.
4) Commit: call end_encounter with a working diagnosis. Append "| Intervention: <plan>" to also submit an initial intervention.
5) Review: call get_feedback for the scored report; export_encounter for the raw transcript; export_report for a PDF.
   Past scored encounters stay available through list_past_encounters and get_past_encounter.

Notes:
- Encounters are in-memory and expire after idle TTL; fetch feedback promptly after ending.
- Sending a message after the encounter ended returns ENCOUNTER_ENDED; feedback before ending returns ENCOUNTER_ACTIVE.

Docs:
- clinsim://docs/index (what to read when)
- clinsim://docs/scoring (how the report is scored)
- clinsim://docs/actions (action types and matching)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "clinsim://docs/index",
		Name:        "docs_index",
		Title:       "clinsim docs index",
		Description: "Entry point for agent-facing docs: the encounter loop and where to read more.",
		Content: `# clinsim: Agent Docs Index

## Quick start

1. ` + "`list_cases`" + ` to see available patients.
2. ` + "`start_encounter`" + ` with a case_id. Read the opening statement.
3. Interview with ` + "`send_message`" + `; investigate with ` + "`perform_action`" + `.
4. ` + "`end_encounter`" + ` with your diagnosis, optionally ` + "`| Intervention: <plan>`" + `.
5. ` + "`get_feedback`" + ` for the scored report.

## Docs (read on demand)

- ` + "`clinsim://docs/scoring`" + ` — score categories, caps, and what earns points.
- ` + "`clinsim://docs/actions`" + ` — action types and how requests match case findings.

## Limits

- Encounters live in memory with an idle TTL. An expired session id returns ENCOUNTER_NOT_FOUND.
- With a time limit set, the encounter silently ends once the limit elapses; the next call reflects that.
`,
	},
	{
		URI:         "clinsim://docs/scoring",
		Name:        "docs_scoring",
		Title:       "Scoring model",
		Description: "How the feedback report is computed: categories, point caps, and red flag timing.",
		Content: `# Scoring model

The summary score is the sum of five capped categories, 100 points total.

- **Diagnosis (20)**: the submitted diagnosis is classified against the case's primary diagnosis and differentials. Primary earns full points, a listed differential earns partial credit, anything else earns none. Matching tolerates synonyms and abbreviations (MI, heart attack, STEMI).
- **Intervention (5)**: the optional ` + "`| Intervention:`" + ` clause, judged appropriate, partial, or inappropriate for the submitted diagnosis.
- **Critical actions (25)**: proportional credit for the case's required actions actually performed during the encounter.
- **Communication (20)**: asking enough questions, covering pain/history/medications, and showing empathy, each worth a few points.
- **Efficiency (30)**: time used relative to the limit plus a sensible action count. Untimed encounters get a neutral time score.

Red flags with a time window are reported as missed or late in the feedback lists; lateness is measured from encounter start to the first matching action.
`,
	},
	{
		URI:         "clinsim://docs/actions",
		Name:        "docs_actions",
		Title:       "Clinical actions",
		Description: "Action types accepted by perform_action and how details match findings.",
		Content: `# Clinical actions

` + "`perform_action`" + ` accepts these action types:

- ` + "`vitals`" + ` — vital signs for the current level. Details optional.
- ` + "`exam`" + ` — physical exam. Details name the system ("cardiac", "lungs").
- ` + "`lab`" + ` — lab orders. Details name the test ("troponin", "CBC").
- ` + "`imaging`" + ` — imaging orders ("chest x-ray", "ECG").
- ` + "`medication`" + ` — give a drug ("aspirin 325mg"). Recorded for scoring; no finding is returned beyond acknowledgement.

Matching between your details and the case's findings is forgiving: containment either way counts, so "chest x-ray" matches a "cxr" finding entry. Unmatched requests return an unremarkable result rather than an error.

Findings are level-scoped. A case may hide subtler findings behind higher levels; the resolver falls back to the nearest lower level that defines the category.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
