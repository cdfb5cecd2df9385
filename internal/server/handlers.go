package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/progression"
	"github.com/abhisek/tutorchat/internal/tutor"
)

// userTutor resolves the caller's tutor.
func (s *Server) userTutor(c *gin.Context) (*tutor.Tutor, int64, bool) {
	uid := c.GetInt64(userIDKey)
	t, err := s.tutorFor(c.Request.Context(), uid)
	if err != nil {
		s.internalError(c, err)
		return nil, 0, false
	}
	return t, uid, true
}

// threadTutor resolves the caller's tutor and makes the :id thread
// current, as opening a thread in the UI does.
func (s *Server) threadTutor(c *gin.Context) (*tutor.Tutor, int64, string, bool) {
	t, uid, ok := s.userTutor(c)
	if !ok {
		return nil, 0, "", false
	}
	id := c.Param("id")
	if !t.Chats().IsCurrent(id) {
		if err := t.Chats().Switch(c.Request.Context(), id); err != nil {
			s.writeError(c, err)
			return nil, 0, "", false
		}
	}
	return t, uid, id, true
}

// writeError maps domain errors to HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tutor.ErrReauth):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "LLM provider rejected the credentials", "reauth": true})
	case errors.Is(err, chat.ErrUnknownThread):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tutor.ErrEmptyInput), errors.Is(err, assessment.ErrSubmitted),
		errors.Is(err, assessment.ErrNoSuchItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, tutor.ErrBusy), errors.Is(err, tutor.ErrStale),
		errors.Is(err, tutor.ErrNoCurriculum), errors.Is(err, tutor.ErrNoPending),
		errors.Is(err, tutor.ErrEmptyAssessment),
		errors.Is(err, progression.ErrNotStarted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.internalError(c, err)
	}
}

func (s *Server) handleCheckRequirements(c *gin.Context) {
	t, _, ok := s.userTutor(c)
	if !ok {
		return
	}
	count, err := strconv.Atoi(c.Param("count"))
	if err != nil || count < 0 {
		count = 0
	}
	req, err := t.RequirementsFor(c.Request.Context(), t.Chats().Current(), count, s.cfg.DefaultTotal)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quiz":     req[assessment.TypeQuiz],
		"exercise": req[assessment.TypeExercise],
		"project":  req[assessment.TypeProject],
	})
}

func (s *Server) handleListChats(c *gin.Context) {
	t, _, ok := s.userTutor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": t.Chats().Threads(), "current": t.Chats().Current()})
}

func (s *Server) handleCreateChat(c *gin.Context) {
	t, _, ok := s.userTutor(c)
	if !ok {
		return
	}
	th, err := t.Chats().Create(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, th)
}

func (s *Server) handleSwitchChat(c *gin.Context) {
	_, _, id, ok := s.threadTutor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"current": id})
}

func (s *Server) handleDeleteChat(c *gin.Context) {
	t, uid, ok := s.userTutor(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := t.Chats().Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	s.setAttempt(uid, id, nil)
	c.JSON(http.StatusOK, gin.H{"current": t.Chats().Current()})
}

func (s *Server) handleMessages(c *gin.Context) {
	t, _, ok := s.userTutor(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, found := t.Chats().Thread(id); !found {
		s.writeError(c, chat.ErrUnknownThread)
		return
	}
	msgs, err := t.Chats().Messages(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (s *Server) handleSend(c *gin.Context) {
	var body struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	t, _, id, ok := s.threadTutor(c)
	if !ok {
		return
	}
	r, err := t.Send(c.Request.Context(), id, body.Content)
	s.writeReply(c, r, err)
}

func (s *Server) handleNext(c *gin.Context) {
	t, _, id, ok := s.threadTutor(c)
	if !ok {
		return
	}
	r, err := t.Next(c.Request.Context(), id)
	s.writeReply(c, r, err)
}

func (s *Server) handleRedo(c *gin.Context) {
	t, _, id, ok := s.threadTutor(c)
	if !ok {
		return
	}
	r, err := t.Redo(c.Request.Context(), id)
	s.writeReply(c, r, err)
}

func (s *Server) writeReply(c *gin.Context, r *tutor.Reply, err error) {
	if err != nil {
		s.writeError(c, err)
		return
	}
	if r.Messages == nil {
		r.Messages = []chat.Message{}
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleCurriculum(c *gin.Context) {
	t, _, ok := s.userTutor(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, found := t.Chats().Thread(id); !found {
		s.writeError(c, chat.ErrUnknownThread)
		return
	}
	cur, err := t.Curriculum(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if cur == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no curriculum yet"})
		return
	}
	pending, err := t.Pending(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"curriculum": cur,
		"state":      cur.State().String(),
		"count":      cur.Count(),
		"total":      cur.TotalSubtopics(),
		"progress":   cur.Progress(),
		"pending":    pending,
	})
}

func (s *Server) handleStartAssessment(c *gin.Context) {
	t, uid, id, ok := s.threadTutor(c)
	if !ok {
		return
	}
	at, err := t.StartAssessment(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.setAttempt(uid, id, at)
	c.JSON(http.StatusOK, attemptView(at))
}

func (s *Server) handleRetryAssessment(c *gin.Context) {
	t, uid, id, ok := s.threadTutor(c)
	if !ok {
		return
	}
	at := s.attempt(uid, id)
	if at == nil {
		s.writeError(c, tutor.ErrNoPending)
		return
	}
	next, err := t.RetryAssessment(c.Request.Context(), id, at)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.setAttempt(uid, id, next)
	c.JSON(http.StatusOK, attemptView(next))
}

func (s *Server) handleSubmitAssessment(c *gin.Context) {
	var work assessment.Submission
	if err := c.ShouldBindJSON(&work); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission"})
		return
	}
	t, uid, id, ok := s.threadTutor(c)
	if !ok {
		return
	}
	at := s.attempt(uid, id)
	if at == nil {
		s.writeError(c, tutor.ErrNoPending)
		return
	}
	r, err := t.SubmitAssessment(c.Request.Context(), id, at, work)
	if errors.Is(err, tutor.ErrEmptyAssessment) {
		c.JSON(http.StatusConflict, gin.H{"error": at.Assessment.EmptyMessage()})
		return
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempt": at, "messages": r.Messages})
}

func (s *Server) handleDeferAssessment(c *gin.Context) {
	t, uid, id, ok := s.threadTutor(c)
	if !ok {
		return
	}
	if err := t.DeferAssessment(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	s.setAttempt(uid, id, nil)
	c.JSON(http.StatusOK, gin.H{"deferred": true})
}

// attemptView hides answers and sample solutions until submission.
func attemptView(at *assessment.Attempt) *assessment.Attempt {
	if at.Submitted {
		return at
	}
	view := *at
	a := *at.Assessment
	a.Questions = append([]assessment.Question(nil), a.Questions...)
	for i := range a.Questions {
		a.Questions[i].Correct = ""
		a.Questions[i].Explanation = ""
	}
	a.Exercises = append([]assessment.Exercise(nil), a.Exercises...)
	for i := range a.Exercises {
		a.Exercises[i].SampleSolution = ""
	}
	view.Assessment = &a
	return &view
}
