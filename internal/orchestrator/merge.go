package orchestrator

import "github.com/Sukhwinder-i0/komyra-ai/internal/types"

// MergeSessionState reconciles a client-held session copy with the stored
// authoritative record. The authoritative copy wins for every field except
// conversation_history, which is taken from the local copy: the client
// records each answer the moment it is given, so its transcript can be ahead
// of the server's. Most visibly, the answer to the final main question only
// ever exists client-side until the client submits its copy.
func MergeSessionState(local, authoritative *types.InterviewSession) *types.InterviewSession {
	if authoritative == nil {
		if local == nil {
			return nil
		}
		return local.Clone()
	}

	merged := authoritative.Clone()
	if local != nil {
		history := make([]types.InterviewAnswer, len(local.ConversationHistory))
		copy(history, local.ConversationHistory)
		merged.ConversationHistory = history
	}
	return merged
}
