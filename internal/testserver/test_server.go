// Package testserver wires a full in-process stack for integration
// tests: in-memory store, scripted case, deterministic patient replies,
// sqlite archive, and the MCP server behind an httptest HTTP bridge.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/probecase/clinsim/internal/domain/analyzer"
	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
	"github.com/probecase/clinsim/internal/domain/scoring"
	"github.com/probecase/clinsim/internal/mcp"
	"github.com/probecase/clinsim/internal/sqlite"
)

// CaseID identifies the scripted test case.
const CaseID = "chest-pain-001"

type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	Store   *encounter.Store
	Service *encounter.Service
}

// New builds a full stack with a deterministic patient and no external
// LLM. Feedback scoring runs on the rule fallback only.
func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	store := encounter.NewStore(encounter.StoreConfig{
		TTL:           30 * time.Minute,
		SweepInterval: time.Minute,
	}, nil)

	cases := &scriptedCases{def: TestCase()}
	rules := scoring.NewRules(nil, scoring.DefaultMatchTable(), nil)
	archive := sqlite.NewArchiveRepository(db)
	svc := encounter.NewService(
		store,
		cases,
		&scriptedPatient{},
		nil,
		analyzer.New(rules, nil),
		archive,
		archive,
		nil,
	)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      mcp.Services{Encounters: svc},
		TransportMode: "http",
		Logger:        nil,
	})
	server := httptest.NewServer(mcp.NewHTTPHandler(mcpServer, nil))

	ts := &TestServer{
		Server:  server,
		DB:      db,
		Store:   store,
		Service: svc,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// TestCase returns the scripted chest pain scenario used across tests.
func TestCase() *clinicalcase.Definition {
	window := 10
	return &clinicalcase.Definition{
		ID:             CaseID,
		Title:          "Acute chest pain",
		Patient:        clinicalcase.Patient{Name: "Ray Delgado", Age: 58, Gender: "male", Occupation: "truck driver"},
		ChiefComplaint: "My chest has been hurting for the last hour and it's scaring me.",
		History: []clinicalcase.HistoryFact{
			{ID: "onset", Text: "Pain started about an hour ago while unloading the truck.", Reveal: clinicalcase.RevealAlways},
			{ID: "radiation", Text: "The pain goes into my left arm and jaw.", Reveal: clinicalcase.RevealOnRequest, Topics: []string{"pain", "radiation"}},
			{ID: "smoking", Text: "Smoked a pack a day for thirty years.", Reveal: clinicalcase.RevealOnRequest, Topics: []string{"social", "smoking"}},
			{ID: "meds", Text: "Takes lisinopril for blood pressure, nothing else.", Reveal: clinicalcase.RevealOnRequest, Topics: []string{"medications"}},
		},
		PrimaryDiagnosis: "myocardial infarction",
		Differentials:    []string{"unstable angina", "aortic dissection", "pulmonary embolism"},
		CriticalActions:  []string{"obtain ECG", "give aspirin", "check troponin"},
		RedFlags: []clinicalcase.RedFlag{
			{Action: "obtain ECG", TimeWindowMinutes: &window, Consequence: "delayed STEMI recognition"},
		},
		FindingsByLevel: map[int]clinicalcase.Findings{
			1: {
				Vitals: map[string]string{"BP": "158/94", "HR": "104", "SpO2": "95% on room air"},
				Exam: map[string]string{
					"cardiac": "tachycardic, regular rhythm, no murmurs",
					"lungs":   "clear to auscultation bilaterally",
				},
				Labs: map[string]string{
					"troponin": "elevated at 2.3 ng/mL",
					"cbc":      "within normal limits",
				},
				Imaging: map[string]string{
					"ecg":         "ST elevation in leads II, III, aVF",
					"chest x-ray": "no acute cardiopulmonary process",
				},
			},
		},
	}
}

type scriptedCases struct {
	def *clinicalcase.Definition
}

func (c *scriptedCases) Get(id string) (*clinicalcase.Definition, error) {
	if id != c.def.ID {
		return nil, clinicalcase.ErrCaseNotFound
	}
	return c.def, nil
}

func (c *scriptedCases) List() ([]clinicalcase.Summary, error) {
	return []clinicalcase.Summary{c.def.Summary()}, nil
}

// scriptedPatient answers deterministically so transcripts are stable.
type scriptedPatient struct{}

func (p *scriptedPatient) PatientReply(_ context.Context, _ *clinicalcase.Definition, _ int, _ encounter.RevealedFacts, _ []encounter.Message, input string) (string, error) {
	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "pain"):
		return "It's a heavy pressure right in the middle of my chest, and it spreads to my left arm.", nil
	case strings.Contains(lower, "medication"), strings.Contains(lower, "medicine"):
		return "Just lisinopril for my blood pressure.", nil
	case strings.Contains(lower, "smoke"), strings.Contains(lower, "smoking"):
		return "Yeah, about a pack a day for thirty years.", nil
	default:
		return "I'm not sure, doc. It just hurts.", nil
	}
}
