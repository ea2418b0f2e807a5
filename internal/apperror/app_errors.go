package apperror

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room already has two players")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrRoomIDExhausted   = errors.New("could not allocate a free room id")
	ErrAlreadyInRoom     = errors.New("connection is already in a room")
	ErrNoActiveRoom      = errors.New("no active room")

	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell position")
	ErrInvalidSeat      = errors.New("invalid player tag")

	ErrInvalidDuration = errors.New("invalid match duration")
	ErrInvalidName     = errors.New("invalid player name")
)
