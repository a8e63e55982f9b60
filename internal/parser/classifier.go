package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Envelope tag keys, tried in order. First matching tag wins.
const (
	tagEngine = "greToClientEvent"
	tagClient = "clientToMatchServiceMessageType"
	tagRoom   = "matchGameRoomStateChangedEvent"
	tagBiz    = "businessEvent"
)

// Classify strips leading log noise from one line and attempts a structural
// decode against the known envelope shapes. It is pure: no I/O, no state.
func Classify(line string) Outcome {
	raw, ok := extractObject(line)
	if !ok {
		return NoMatch{}
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		// Braces without a valid object around them are just noise.
		return NoMatch{}
	}

	switch {
	case hasKey(probe, tagEngine):
		return classifyEngine(line, raw)
	case hasKey(probe, tagClient):
		return classifyClient(line, raw)
	case hasKey(probe, tagRoom):
		return classifyRoom(line, raw)
	case hasKey(probe, tagBiz):
		return classifyBusiness(line, raw)
	}
	return NoMatch{}
}

func hasKey(probe map[string]json.RawMessage, key string) bool {
	_, ok := probe[key]
	return ok
}

// extractObject returns the JSON object embedded in the line, skipping any
// leading timestamp/level prefix. Lines without braces are noise.
func extractObject(line string) (string, bool) {
	start := strings.IndexByte(line, '{')
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(line, '}')
	if end < start {
		return "", false
	}
	return line[start : end+1], true
}

type engineEnvelope struct {
	TransactionID    string `json:"transactionId"`
	GreToClientEvent struct {
		GreToClientMessages []EngineMessage `json:"greToClientMessages"`
	} `json:"greToClientEvent"`
}

func classifyEngine(line, raw string) Outcome {
	var env engineEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return ParseError{Line: line, Err: fmt.Errorf("engine envelope: %w", err)}
	}
	return EngineBatch{
		TransactionID: env.TransactionID,
		Messages:      env.GreToClientEvent.GreToClientMessages,
	}
}

type clientEnvelope struct {
	MessageType string        `json:"clientToMatchServiceMessageType"`
	RequestID   int           `json:"requestId"`
	Payload     ClientPayload `json:"payload"`
}

func classifyClient(line, raw string) Outcome {
	var env clientEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return ParseError{Line: line, Err: fmt.Errorf("client envelope: %w", err)}
	}
	return ClientMessage{
		MessageType: env.MessageType,
		RequestID:   env.RequestID,
		Payload:     env.Payload,
	}
}

type roomEnvelope struct {
	Event struct {
		GameRoomInfo struct {
			GameRoomConfig struct {
				MatchID         string           `json:"matchId"`
				ReservedPlayers []ReservedPlayer `json:"reservedPlayers"`
			} `json:"gameRoomConfig"`
			StateType        string            `json:"stateType"`
			FinalMatchResult *FinalMatchResult `json:"finalMatchResult"`
		} `json:"gameRoomInfo"`
	} `json:"matchGameRoomStateChangedEvent"`
}

func classifyRoom(line, raw string) Outcome {
	var env roomEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return ParseError{Line: line, Err: fmt.Errorf("room envelope: %w", err)}
	}
	info := env.Event.GameRoomInfo
	return StateEvent{
		MatchID:     info.GameRoomConfig.MatchID,
		StateType:   info.StateType,
		Players:     info.GameRoomConfig.ReservedPlayers,
		FinalResult: info.FinalMatchResult,
	}
}

type businessEnvelope struct {
	BusinessEvent struct {
		EventID   string `json:"eventId"`
		EventTime string `json:"eventTime"`
		EventType string `json:"eventType"`
		EventName string `json:"eventName"`
		MatchID   string `json:"matchId"`
		DraftPack
	} `json:"businessEvent"`
}

func classifyBusiness(line, raw string) Outcome {
	var env businessEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return ParseError{Line: line, Err: fmt.Errorf("business envelope: %w", err)}
	}
	ev := env.BusinessEvent

	t := Telemetry{
		EventID:   ev.EventID,
		EventType: ev.EventType,
		EventName: ev.EventName,
		MatchID:   ev.MatchID,
	}
	if ev.EventTime != "" {
		ts, err := time.Parse(time.RFC3339, ev.EventTime)
		if err != nil {
			return ParseError{Line: line, Err: fmt.Errorf("business eventTime: %w", err)}
		}
		t.EventTime = ts
	}
	if ev.EventType == TelemetryTypeDraftPack {
		pack := ev.DraftPack
		t.Draft = &pack
	}
	return t
}
