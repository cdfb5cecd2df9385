package server

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/tutor"
)

// streamFrame is one websocket text frame of a typing stream.
type streamFrame struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
	Done      bool   `json:"done"`
}

// handleStream replays the thread's last bot message over a websocket as
// progressively longer text, then closes the connection.
func (s *Server) handleStream(c *gin.Context) {
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
	var last *chat.Message
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == chat.RoleBot {
			last = &msgs[i]
			break
		}
	}
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no bot message"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowOrigins,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := c.Request.Context()
	write := func(frame streamFrame) error {
		raw, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		return conn.Write(ctx, websocket.MessageText, raw)
	}

	var writeErr error
	err = tutor.Stream(ctx, last.Content, s.cfg.TypingDelay, func(partial string) {
		if writeErr == nil {
			writeErr = write(streamFrame{MessageID: last.ID, Content: partial})
		}
	})
	if err == nil {
		err = writeErr
	}
	if err == nil {
		err = write(streamFrame{MessageID: last.ID, Content: tutor.Display(last.Content), Done: true})
	}
	if err != nil {
		s.logger.Debug("stream ended early", zap.String("chat", id), zap.Error(err))
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
