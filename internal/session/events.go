package session

import "time"

// EventType identifies the kind of session event.
type EventType string

const (
	EventPipelineStart    EventType = "pipeline_start"
	EventPipelineComplete EventType = "pipeline_complete"
	EventStageComplete    EventType = "stage_complete"
	EventError            EventType = "error"
)

// Event is a single timestamped entry in a session log.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Data:      data,
	}
}

// PipelineStartData returns event data for the start of one QA run.
func PipelineStartData(conversationID, agentName string, eventCount int) map[string]any {
	return map[string]any{
		"conversation_id": conversationID,
		"agent_name":      agentName,
		"event_count":     eventCount,
	}
}

// StageCompleteData returns event data recorded after each pipeline stage.
func StageCompleteData(stage string, detail map[string]any) map[string]any {
	d := map[string]any{
		"stage": stage,
	}
	for k, v := range detail {
		d[k] = v
	}
	return d
}

// PipelineCompleteData returns event data for a finished QA run.
func PipelineCompleteData(conversationID string, issueCount int, overallScore float64, durationMs int64) map[string]any {
	return map[string]any{
		"conversation_id": conversationID,
		"issue_count":     issueCount,
		"overall_score":   overallScore,
		"duration_ms":     durationMs,
	}
}

// ErrorData returns event data for a pipeline failure.
func ErrorData(stage, message string) map[string]any {
	return map[string]any{
		"stage":   stage,
		"message": message,
	}
}
