package domain

// Stage is an entry of the sales pipeline table.
type Stage struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Color    string `json:"color"`
	Progress int    `json:"progress"`
}

const (
	StageQualified     = "qualified"
	StageContactMade   = "contact_made"
	StageDemoScheduled = "demo_scheduled"
	StageProposal      = "proposal"
	StageNegotiation   = "negotiation"
	StageClosed        = "closed"
)

// Stages is the pipeline in board order.
var Stages = []Stage{
	{ID: StageQualified, Title: "Qualified", Color: "blue", Progress: 20},
	{ID: StageContactMade, Title: "Contact Made", Color: "purple", Progress: 40},
	{ID: StageDemoScheduled, Title: "Demo Scheduled", Color: "yellow", Progress: 60},
	{ID: StageProposal, Title: "Proposal", Color: "orange", Progress: 75},
	{ID: StageNegotiation, Title: "Negotiation", Color: "pink", Progress: 85},
	{ID: StageClosed, Title: "Closed", Color: "green", Progress: 100},
}

func LookupStage(id string) (Stage, bool) {
	for _, s := range Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

// StageSummary is the per-stage aggregate shown on the pipeline board.
type StageSummary struct {
	Stage
	Count int     `json:"count"`
	Total float64 `json:"total"`
}
