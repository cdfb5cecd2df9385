package conversation

import (
	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/tutor"
)

// loadedMsg carries the thread state read from the store.
type loadedMsg struct {
	Messages   []chat.Message
	Curriculum *curriculum.Curriculum
	Pending    *assessment.Trigger
	Err        error
}

// replyMsg is sent when a tutor action finishes.
type replyMsg struct {
	Action tutor.Action
	Reply  *tutor.Reply
	Err    error
}

// deferredMsg is sent when the pending assessment was put off.
type deferredMsg struct {
	Err error
}

// attemptReadyMsg is sent when assessment content has been generated.
type attemptReadyMsg struct {
	Attempt *assessment.Attempt
	Err     error
}

// typeTickMsg advances the typing animation of message ID.
type typeTickMsg struct {
	ID string
}
