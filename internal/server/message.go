package server

import (
	"encoding/json"

	"github.com/lox/gammond/internal/board"
)

// Message is the wire envelope in both directions.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage wraps payload in an envelope for event.
func NewMessage(event string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Event: event, Payload: data}, nil
}

// Client → Server events. Payload shapes follow below.
const (
	EventClientReadyForSync = "client_ready_for_sync"
	EventStartPVE           = "start_pve"
	EventClientReadyForRoll = "client_ready_for_roll"
	EventRequestPlayerRoll  = "request_player_roll"
	EventSendPlayerStep     = "send_player_step"
	EventRequestUndo        = "request_undo"
	EventSendTurnFinished   = "send_turn_finished"
	EventPlayerGiveUp       = "player_give_up"
	EventFindPVPMatch       = "find_pvp_match"
	EventCancelPVPSearch    = "cancel_pvp_search"
	EventPlayerReady        = "player_ready"
)

// Server → Client events emitted by the gateway and game service. The
// session layer's own event names live in internal/game.
const (
	EventAuthFailed          = "auth_failed"
	EventProfileDataUpdate   = "profile_data_update"
	EventGameCreated         = "game_created"
	EventMatchFound          = "match_found"
	EventSearchingMatch      = "searching_match"
	EventSearchCancelled     = "search_cancelled"
	EventMatchmakingRejected = "matchmaking_rejected"
	EventMatchFailedRequeued = "match_failed_requeued"
	EventSyncCompleteNoGame  = "sync_complete_no_game"
	EventReconnectFailed     = "reconnect_failed"
)

// Client → Server payloads.

type StartPVEData struct {
	BotLevel   string `json:"bot_level"`
	PlayerSign int    `json:"player_sign"`
}

type ReadyForRollData struct {
	GameID string `json:"game_id"`
}

type PlayerStepData struct {
	Step board.Step `json:"step"`
}

// Server → Client payloads.

type GameCreatedData struct {
	GameID string `json:"game_id"`
}

type MatchFoundData struct {
	GameID       string `json:"game_id"`
	Role         string `json:"role"`
	OpponentData any    `json:"opponent_data"`
}

type ReconnectFailedData struct {
	GameID string `json:"game_id"`
}

type MessageData struct {
	Message string `json:"message"`
}
