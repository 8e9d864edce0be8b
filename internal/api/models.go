package api

// ProcessRequest represents the request body for submitting a source URL
type ProcessRequest struct {
	URL             string `json:"url"             validate:"required,url"`
	SummaryLanguage string `json:"summary_language" validate:"omitempty,min=2,max=16"`
}

// ProcessResponse represents the response for an accepted submission
type ProcessResponse struct {
	TaskID  string `json:"task_id"`
	Joined  bool   `json:"joined"`
	Message string `json:"message"`
}

// defaultSummaryLanguage is applied when a submission omits the field.
const defaultSummaryLanguage = "zh"
