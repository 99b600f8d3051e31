package models

// State is the indexing state reported by Video Indexer.
type State string

const (
	StateUploaded    State = "Uploaded"
	StateProcessing  State = "Processing"
	StateProcessed   State = "Processed"
	StateFailed      State = "Failed"
	StateQuarantined State = "Quarantined"
)

func (s State) IsProcessed() bool { return s == StateProcessed }

// IsFailed reports a terminal state that will never reach Processed.
func (s State) IsFailed() bool { return s == StateFailed || s == StateQuarantined }

// Transcript is the flattened speech text of an indexed video.
type Transcript struct {
	VideoID string   `json:"-"`
	Lines   []string `json:"transcript"`
}

func NewTranscript(videoID string, lines []string) *Transcript {
	if lines == nil {
		lines = []string{}
	}
	return &Transcript{VideoID: videoID, Lines: lines}
}
