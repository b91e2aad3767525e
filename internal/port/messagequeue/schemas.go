package messagequeue

// ReviewCreatedPayload is the schema for reviews.created messages.
type ReviewCreatedPayload struct {
	ReviewID  string `json:"review_id"`
	TaskType  string `json:"task_type"`
	Urgency   string `json:"urgency"`
	Framework string `json:"framework"`
	Blocking  bool   `json:"blocking"`
}

// ReviewDecidedPayload is the schema for reviews.decided messages.
type ReviewDecidedPayload struct {
	ReviewID     string `json:"review_id"`
	DecisionType string `json:"decision_type"`
	ReviewerName string `json:"reviewer_name,omitempty"`
}
