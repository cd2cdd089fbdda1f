package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"trello-project/web-client/board"
	"trello-project/web-client/logging"
	"trello-project/web-client/models"
	"trello-project/web-client/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ViewMessage is one frame of the view stream.
type ViewMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Stream pushes session snapshots, and board snapshots when projectId is
// given, until the client goes away or the workspace is torn down.
func (h *Handler) Stream(allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}

	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFrom(r)

		var b *board.ProjectBoard
		if raw := r.URL.Query().Get("projectId"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "Invalid projectId", http.StatusBadRequest)
				return
			}
			b = ws.Board.Project(id)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Logger.Warnf("Event ID: WEBSOCKET_UPGRADE_FAILED, Description: %v", err)
			return
		}

		sessions, stopSession := ws.Session.Subscribe()
		defer stopSession()

		var tasks <-chan []models.Task
		if b != nil {
			var stopTasks func()
			tasks, stopTasks = b.Tasks.Subscribe()
			defer stopTasks()
		}

		done := make(chan struct{})
		go readPump(conn, done)
		writePump(conn, done, sessions, tasks, b)
	}
}

// readPump only watches for the close frame and pongs.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Logger.Debugf("Event ID: WEBSOCKET_CLOSED, Description: %v", err)
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, done <-chan struct{}, sessions <-chan session.Session, tasks <-chan []models.Task, b *board.ProjectBoard) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		var msg ViewMessage
		select {
		case <-done:
			return
		case snap, ok := <-sessions:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "workspace closed"))
				return
			}
			msg = ViewMessage{Type: "session", Data: snap}
		case list, ok := <-tasks:
			if !ok {
				tasks = nil
				continue
			}
			msg = ViewMessage{Type: "board", Data: boardSnapshot(b, list)}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		payload, err := json.Marshal(msg)
		if err != nil {
			logging.Logger.Errorf("Event ID: WEBSOCKET_ENCODE_ERROR, Description: %v", err)
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func boardSnapshot(b *board.ProjectBoard, tasks []models.Task) boardView {
	statuses, _ := b.Statuses.Get()
	return boardView{ProjectID: b.ID, Columns: board.Columns(statuses, tasks)}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
