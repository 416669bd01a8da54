package types

import "time"

type WorkflowPhase string

const (
	PhaseIdle       WorkflowPhase = "idle"
	PhaseValidating WorkflowPhase = "validating"
	PhaseSubmitting WorkflowPhase = "submitting"
	PhaseSuccess    WorkflowPhase = "success"
	PhaseError      WorkflowPhase = "error"
)

// WorkflowState is the single active state of the submission workflow.
// ArtifactID is set only in PhaseSuccess, Message only in PhaseError.
type WorkflowState struct {
	Phase      WorkflowPhase `json:"phase"`
	ArtifactID string        `json:"artifactId,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// SuccessModal is the confirmation affordance opened after a successful submission.
type SuccessModal struct {
	Open     bool   `json:"open"`
	Filename string `json:"filename,omitempty"`
}

// ArtifactRecord remembers a generated EDI file for the recent list.
type ArtifactRecord struct {
	Filename   string    `json:"filename"`
	Company    Company   `json:"company"`
	DocType    DocType   `json:"docType"`
	CreatedAt  time.Time `json:"createdAt"`
	Downloaded bool      `json:"downloaded"`
}

// DashboardSnapshot is everything a rendering layer needs to draw the dashboard.
type DashboardSnapshot struct {
	Session   Session            `json:"session"`
	View      string             `json:"view"`
	File      *SelectedFile      `json:"file,omitempty"`
	Params    SubmissionParams   `json:"params"`
	DatesLock bool               `json:"datesLocked"`
	State     WorkflowState      `json:"state"`
	Busy      bool               `json:"busy"`
	CanSubmit bool               `json:"canSubmit"`
	Status    StatusNotification `json:"status"`
	Modal     SuccessModal       `json:"modal"`
	Liveness  LivenessSignal     `json:"liveness"`
}
