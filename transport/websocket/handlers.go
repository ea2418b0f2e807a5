package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/tictactoe"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/usecase"
)

var errMalformedPayload = errors.New("malformed payload")

// move rejection reasons sent with move-rejected
const (
	ReasonNotYourTurn    = "not-your-turn"
	ReasonCellOccupied   = "cell-occupied"
	ReasonInvalidCell    = "invalid-cell"
	ReasonGameNotStarted = "game-not-started"
	ReasonGameFinished   = "game-finished"
)

func (that *Server) handleCreateRoom(ctx context.Context, sender *client, message *Message) error {
	var payload CreateRoomPayload
	if err := decode(message, &payload); err != nil {
		return err
	}

	created, err := that.rooms.CreateRoom(ctx, sender.id, payload.Name, payload.Duration)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	that.sendToClient(sender, ActionRoomCreated, RoomCreatedPayload{
		RoomID:   created.RoomID,
		Duration: created.Duration,
	})

	return nil
}

func (that *Server) handleJoinRoom(ctx context.Context, sender *client, message *Message) error {
	var payload JoinRoomPayload
	if err := decode(message, &payload); err != nil {
		return err
	}

	started, err := that.rooms.JoinRoom(ctx, sender.id, payload.RoomID, payload.Name)
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	that.sendTo(started.Recipients, ActionStartMatch, StartMatchPayload{
		FirstName:  started.FirstName,
		SecondName: started.SecondName,
		Turn:       started.Turn,
		Duration:   started.Duration,
	})

	return nil
}

func (that *Server) handleMove(ctx context.Context, sender *client, message *Message) error {
	var payload MovePayload
	if err := decode(message, &payload); err != nil {
		return err
	}

	result, err := that.rooms.MakeMove(ctx, usecase.MoveRequest{
		ConnectionID: sender.id,
		RoomID:       payload.RoomID,
		Position:     payload.Position,
		Timers: tictactoe.Timers{
			First:  payload.TimerFirst,
			Second: payload.TimerSecond,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	switch {
	case result.Won:
		that.sendTo(result.Recipients, ActionGameOverByMove, GameOverByMovePayload{
			ConnectionID: result.MoverConnectionID,
			Line:         result.Line,
			Board:        result.Board,
			Winner:       result.WinnerName,
		})
	case result.Draw:
		that.sendTo(result.Recipients, ActionGameDraw, BoardPayload{Board: result.Board})
	default:
		update := BoardPayload{Board: result.Board}
		if result.Disappeared != 0 {
			update.Message = fmt.Sprintf("Square %d - Disappeared.", result.Disappeared)
		}

		that.sendTo(result.Recipients, ActionBoardUpdate, update)
		that.sendTo(result.Recipients, ActionTurnUpdate, TurnPayload{Turn: result.Turn})
	}

	return nil
}

func (that *Server) handleTimeOut(ctx context.Context, sender *client, message *Message) error {
	var payload TimeOutPayload
	if err := decode(message, &payload); err != nil {
		return err
	}

	over, err := that.rooms.TimeOut(ctx, sender.id, payload.RoomID, payload.Player.Tag)
	if err != nil {
		return fmt.Errorf("failed to time out: %w", err)
	}

	that.sendTo(over.Recipients, ActionGameOverByTimeout, GameOverPayload{
		WinnerID: over.WinnerConnectionID,
		Player:   over.LoserName,
	})

	return nil
}

// handleDisconnect ends the match the closed connection was playing, if any.
func (that *Server) handleDisconnect(ctx context.Context, sender *client) {
	log := sender.logger.With("method", "handleDisconnect")

	over, err := that.rooms.Disconnect(ctx, sender.id)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		return
	}

	if err != nil {
		log.Error("failed to finish match", "error", err)
		return
	}

	that.sendTo(over.Recipients, ActionGameOverByDisconnect, GameOverPayload{
		WinnerID: over.WinnerConnectionID,
		Player:   over.LoserName,
	})
}

// reportError tells the sender why its message was refused. Rule violations
// of a move get move-rejected, everything else a toast.
func (that *Server) reportError(sender *client, action string, err error) {
	if action == ActionMove {
		if reason := rejectionReason(err); reason != "" {
			that.sendToClient(sender, ActionMoveRejected, MoveRejectedPayload{Reason: reason})
			return
		}
	}

	title, text := toastText(action, err)
	that.sendToast(sender, true, title, text)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperror.ErrNotYourTurn):
		return ReasonNotYourTurn
	case errors.Is(err, apperror.ErrCellOccupied):
		return ReasonCellOccupied
	case errors.Is(err, apperror.ErrInvalidCell):
		return ReasonInvalidCell
	case errors.Is(err, apperror.ErrGameIsNotStarted):
		return ReasonGameNotStarted
	case errors.Is(err, apperror.ErrGameFinished):
		return ReasonGameFinished
	default:
		return ""
	}
}

func toastText(action string, err error) (string, string) {
	switch {
	case errors.Is(err, errMalformedPayload):
		return "Bad Request", "Malformed payload."
	case errors.Is(err, apperror.ErrRoomNotFound) && action == ActionMove:
		return "Invalid Room", "Server Error"
	case errors.Is(err, apperror.ErrRoomNotFound) && action == ActionJoinRoom:
		return "Room Not Found", "Wrong Room Code!"
	case errors.Is(err, apperror.ErrRoomNotFound):
		return "Room Not Found", "Server Error"
	case errors.Is(err, apperror.ErrRoomFull):
		return "Room Full", "This room already has two players."
	case errors.Is(err, apperror.ErrAlreadyInRoom):
		return "Already Playing", "Finish your current match first."
	case errors.Is(err, apperror.ErrInvalidName):
		return "Invalid Name", fmt.Sprintf("Names are 1 to %d characters.", usecase.MaxNameLength)
	case errors.Is(err, apperror.ErrInvalidDuration):
		return "Invalid Duration", fmt.Sprintf("Pick %d to %d minutes.", usecase.MinDuration, usecase.MaxDuration)
	case errors.Is(err, apperror.ErrInvalidSeat):
		return "Invalid Player", "Unknown player tag."
	case errors.Is(err, apperror.ErrNoActiveRoom):
		return "Not In Room", "You are not playing in this room."
	case errors.Is(err, apperror.ErrRoomIDExhausted):
		return "Server Busy", "Could not open a room, try again."
	default:
		return "Server Error", "Something went wrong."
	}
}
