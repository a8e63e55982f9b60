package parser

import "time"

// Outcome is the classification result for a single log line. It is a closed
// set: EngineBatch, ClientMessage, StateEvent, Telemetry, NoMatch, ParseError.
// Consumers type-switch over it and treat any other value as a bug.
type Outcome interface {
	outcome()
}

func (EngineBatch) outcome()   {}
func (ClientMessage) outcome() {}
func (StateEvent) outcome()    {}
func (Telemetry) outcome()     {}
func (NoMatch) outcome()       {}
func (ParseError) outcome()    {}

// NoMatch means the line carried none of the known envelope tags. Most log
// lines are unrelated noise, so this is the common case, not an error.
type NoMatch struct{}

// ParseError means the line carried a known envelope tag but its payload
// failed structural decode. The raw line and failure are kept for reporting.
type ParseError struct {
	Line string
	Err  error
}

// Engine (GRE) message type tags.
const (
	EngineTypeConnectResp  = "GREMessageType_ConnectResp"
	EngineTypeGameState    = "GREMessageType_GameStateMessage"
	EngineTypeMulliganReq  = "GREMessageType_MulliganReq"
	EngineTypeIntermission = "GREMessageType_IntermissionReq"
)

// Client message payload type tags.
const (
	ClientTypeMulliganResp   = "ClientMessageType_MulliganResp"
	ClientTypeSubmitDeckResp = "ClientMessageType_SubmitDeckResp"
)

// Match room state types.
const (
	RoomStatePlaying   = "MatchGameRoomStateType_Playing"
	RoomStateCompleted = "MatchGameRoomStateType_MatchCompleted"
)

// Result scopes on the final result list.
const (
	ScopeGame  = "MatchScope_Game"
	ScopeMatch = "MatchScope_Match"
)

// Business event types.
const (
	TelemetryTypeMatchStart    = "Telemetry_MatchStart"
	TelemetryTypeDraftPack     = "Telemetry_DraftPack"
	TelemetryTypeDraftComplete = "Telemetry_DraftComplete"
)

// EngineBatch is one engine-to-client event envelope. A single line can carry
// several GRE messages; order within the batch is the engine's send order.
type EngineBatch struct {
	TransactionID string
	Messages      []EngineMessage
}

// EngineMessage is one decoded engine-to-client message. Exactly one payload
// pointer is set for the known types; unknown types keep Type only so the
// ordered message log stays complete.
type EngineMessage struct {
	Type          string            `json:"type"`
	MsgID         int               `json:"msgId,omitempty"`
	SystemSeatIDs []int             `json:"systemSeatIds,omitempty"`
	ConnectResp   *ConnectResp      `json:"connectResp,omitempty"`
	GameState     *GameStateMessage `json:"gameStateMessage,omitempty"`
	MulliganReq   *MulliganReq      `json:"mulliganReq,omitempty"`
	Intermission  *IntermissionReq  `json:"intermissionReq,omitempty"`
}

// ConnectResp acknowledges the controller's connection. Its seat list is the
// only trustworthy source of the controller's identity, and it embeds the
// deck the controller brought to game one. Some client builds place the seat
// list here instead of on the enclosing message; both placements are decoded.
type ConnectResp struct {
	SystemSeatIDs []int       `json:"systemSeatIds"`
	DeckMessage   DeckMessage `json:"deckMessage"`
}

// DeckMessage is a raw mainboard/sideboard card-id pair.
type DeckMessage struct {
	DeckCards      []int `json:"deckCards"`
	SideboardCards []int `json:"sideboardCards"`
}

// GameStateMessage is a (possibly partial) snapshot of the game state.
type GameStateMessage struct {
	GameStateID int           `json:"gameStateId"`
	GameInfo    *GameInfo     `json:"gameInfo,omitempty"`
	Players     []PlayerState `json:"players,omitempty"`
	Zones       []Zone        `json:"zones,omitempty"`
	GameObjects []GameObject  `json:"gameObjects,omitempty"`
	TurnInfo    *TurnInfo     `json:"turnInfo,omitempty"`
}

// GameInfo carries coarse per-game metadata.
type GameInfo struct {
	Stage      string `json:"stage,omitempty"`
	MatchState string `json:"matchState,omitempty"`
}

// PlayerState is the per-seat slice of a game state snapshot.
type PlayerState struct {
	SystemSeatNumber   int    `json:"systemSeatNumber"`
	PendingMessageType string `json:"pendingMessageType,omitempty"`
}

// PendingMulligan reports whether this seat is awaiting a mulligan decision.
func (p PlayerState) PendingMulligan() bool {
	return p.PendingMessageType == ClientTypeMulliganResp
}

// Zone type tags. Only the hand zone matters to reconstruction.
const ZoneTypeHand = "ZoneType_Hand"

// Zone is one zone slice of a snapshot, holding object instance ids.
type Zone struct {
	ZoneID            int    `json:"zoneId"`
	Type              string `json:"type"`
	OwnerSeatID       int    `json:"ownerSeatId"`
	ObjectInstanceIDs []int  `json:"objectInstanceIds,omitempty"`
}

// GameObject maps a table instance to its printed card (grpId) and owner.
type GameObject struct {
	InstanceID  int `json:"instanceId"`
	GrpID       int `json:"grpId"`
	OwnerSeatID int `json:"ownerSeatId"`
}

// TurnInfo carries whose decision the engine is waiting on.
type TurnInfo struct {
	DecisionPlayer int `json:"decisionPlayer"`
}

// MulliganReq offers a keep-or-mulligan decision. MulliganCount is how many
// times this seat has already mulliganed this game.
type MulliganReq struct {
	MulliganCount int `json:"mulliganCount"`
}

// IntermissionReq marks the boundary between games of one match.
type IntermissionReq struct{}

// ClientMessage is one client-to-engine message.
type ClientMessage struct {
	MessageType string
	RequestID   int
	Payload     ClientPayload
}

// ClientPayload is the typed body of a client message. RespID correlates a
// MulliganResp with the engine's MulliganReq msgId.
type ClientPayload struct {
	Type           string          `json:"type"`
	RespID         int             `json:"respId,omitempty"`
	MulliganResp   *MulliganResp   `json:"mulliganResp,omitempty"`
	SubmitDeckResp *SubmitDeckResp `json:"submitDeckResp,omitempty"`
}

// Mulligan decision values sent by the client.
const (
	MulliganOptionAccept   = "MulliganOption_AcceptHand"
	MulliganOptionMulligan = "MulliganOption_Mulligan"
)

// MulliganResp is the client's answer to a mulligan offer.
type MulliganResp struct {
	Decision string `json:"decision"`
}

// SubmitDeckResp is the client's sideboarded deck for the next game.
type SubmitDeckResp struct {
	Deck DeckMessage `json:"deck"`
}

// StateEvent is a match-room state change. An event with StateType Playing
// opens a match; MatchCompleted closes it and carries the final results.
type StateEvent struct {
	MatchID     string
	StateType   string
	Players     []ReservedPlayer
	FinalResult *FinalMatchResult
}

// Opened reports whether this event opens a match room.
func (e StateEvent) Opened() bool { return e.StateType == RoomStatePlaying }

// Completed reports whether this event closes a match room.
func (e StateEvent) Completed() bool { return e.StateType == RoomStateCompleted }

// ReservedPlayer is one roster entry of the match room.
type ReservedPlayer struct {
	PlayerName   string `json:"playerName"`
	SystemSeatID int    `json:"systemSeatId"`
}

// FinalMatchResult is the result list embedded in the completion event.
type FinalMatchResult struct {
	MatchID    string       `json:"matchId,omitempty"`
	ResultList []GameResult `json:"resultList"`
}

// GameResult is one entry of the final result list. Scope distinguishes
// per-game results from the match-level one.
type GameResult struct {
	Scope         string `json:"scope"`
	WinningTeamID int    `json:"winningTeamId"`
}

// Telemetry is one business/analytics event. Gameplay reconstruction ignores
// these except for timestamps, format labels and draft pack picks.
type Telemetry struct {
	EventID   string
	EventTime time.Time
	EventType string
	EventName string
	MatchID   string
	Draft     *DraftPack
}

// Relevant reports whether the event is worth keeping on a replay's
// telemetry log: it must carry a timestamp or an event identifier.
func (t Telemetry) Relevant() bool {
	return t.EventID != "" || !t.EventTime.IsZero()
}

// DraftPack is one offered pack plus the pick made from it.
type DraftPack struct {
	PackNumber      int   `json:"packNumber"`
	PickNumber      int   `json:"pickNumber"`
	SelectionNumber int   `json:"selectionNumber"`
	CardsInPack     []int `json:"cardsInPack"`
	PickGrpID       int   `json:"pickGrpId"`
}
