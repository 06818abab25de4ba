package events

import "encoding/json"

// sseData is the wire shape of a job event rendered over Server-Sent Events,
// matching the job-update payload documented for the event stream.
type sseData struct {
	JobID     string         `json:"job_id"`
	ProjectID string         `json:"project_id,omitempty"`
	Status    JobStatus      `json:"status"`
	Progress  int            `json:"progress"`
	Timestamp int64          `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func encodeSSEData(event JobEvent) ([]byte, error) {
	data := sseData{
		JobID:     event.GetJobID(),
		ProjectID: event.GetProjectID(),
		Status:    event.GetStatus(),
		Progress:  event.GetProgress(),
		Timestamp: event.GetTimestamp().Unix(),
		Metadata:  event.GetMetadata(),
	}
	if err := event.GetError(); err != nil {
		data.Error = err.Error()
	}
	return json.Marshal(data)
}
