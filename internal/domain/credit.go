package domain

// Operation enumerates credit-charged operations. Each carries an
// independently configured fixed cost.
type Operation string

const (
	OpImage  Operation = "image"
	OpVideo  Operation = "video"
	OpPrompt Operation = "prompt"
	OpChat   Operation = "chat"
)

// CostTable maps operations to their fixed credit cost.
type CostTable struct {
	Image  int
	Video  int
	Prompt int
	Chat   int
}

// Cost returns the configured cost for op, defaulting to the image cost for
// unknown operations.
func (t CostTable) Cost(op Operation) int {
	switch op {
	case OpVideo:
		return t.Video
	case OpPrompt:
		return t.Prompt
	case OpChat:
		return t.Chat
	default:
		return t.Image
	}
}
