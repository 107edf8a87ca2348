package model

// ThesisExtraction is the structured result of the AI extraction collaborator.
type ThesisExtraction struct {
	ConvictionScore   *int            `json:"conviction_score"`
	LifecyclePhaseTag *LifecyclePhase `json:"lifecycle_phase_tag"`
	ThesisNarrative   string          `json:"thesis_narrative"`
	MilestoneCount    int             `json:"milestone_count"`
	RedFlagCount      int             `json:"red_flag_count"`
	NextCatalyst      *string         `json:"next_catalyst"`
	DilutionRisk      bool            `json:"dilution_risk"`
	InsiderActivity   string          `json:"insider_activity"`
}
