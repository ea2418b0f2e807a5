package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/entity"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/tictactoe"
)

// inbound actions
const (
	ActionCreateRoom = "create-room"
	ActionJoinRoom   = "join-room"
	ActionMove       = "move"
	ActionTimeOut    = "time-out"
)

// outbound actions
const (
	ActionBoardInit            = "board-init"
	ActionRoomCreated          = "room-created"
	ActionStartMatch           = "start-match"
	ActionBoardUpdate          = "board-update"
	ActionTurnUpdate           = "turn-update"
	ActionGameOverByMove       = "game-over-by-move"
	ActionGameDraw             = "game-draw"
	ActionGameOverByTimeout    = "game-over-by-timeout"
	ActionGameOverByDisconnect = "game-over-by-disconnect"
	ActionToast                = "toast"
	ActionMoveRejected         = "move-rejected"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CreateRoomPayload struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type MovePayload struct {
	Position    int           `json:"position"`
	RoomID      string        `json:"roomId"`
	TimerFirst  *entity.Timer `json:"timerFirst,omitempty"`
	TimerSecond *entity.Timer `json:"timerSecond,omitempty"`
}

type TimeOutPayload struct {
	RoomID string `json:"roomId"`
	Player struct {
		Tag string `json:"tag"`
	} `json:"player"`
}

type BoardPayload struct {
	Board   entity.Board `json:"board"`
	Message string       `json:"message,omitempty"`
}

type RoomCreatedPayload struct {
	RoomID   string `json:"roomId"`
	Duration int    `json:"duration"`
}

type StartMatchPayload struct {
	FirstName  string      `json:"firstName"`
	SecondName string      `json:"secondName"`
	Turn       entity.Seat `json:"turn"`
	Duration   int         `json:"duration"`
}

type TurnPayload struct {
	Turn entity.Seat `json:"turn"`
}

type GameOverByMovePayload struct {
	ConnectionID string         `json:"connectionId"`
	Line         tictactoe.Line `json:"line"`
	Board        entity.Board   `json:"board"`
	Winner       string         `json:"winner"`
}

type GameOverPayload struct {
	WinnerID string `json:"winnerId"`
	Player   string `json:"player"`
}

type ToastPayload struct {
	IsError bool   `json:"isError"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type MoveRejectedPayload struct {
	Reason string `json:"reason"`
}

func encode(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", action, err)
	}

	return data, nil
}

func decode(message *Message, payload any) error {
	if len(message.Payload) == 0 {
		return fmt.Errorf("%w: %s has no payload", errMalformedPayload, message.Action)
	}

	if err := json.Unmarshal(message.Payload, payload); err != nil {
		return fmt.Errorf("%w: %s: %w", errMalformedPayload, message.Action, err)
	}

	return nil
}
