package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"
)

const frameTimeout = 10 * time.Second

type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type CreateSessionRequest struct {
	QuestionSetID   string `json:"questionSetId" binding:"required,max=64"`
	GameMode        string `json:"gameMode" binding:"omitempty,max=32"`
	HostUserID      string `json:"hostUserId" binding:"required,max=64"`
	HostDisplayName string `json:"hostDisplayName" binding:"required,displayname"`
	HostAvatarID    string `json:"hostAvatarId" binding:"omitempty,max=64"`
}

type JoinSessionRequest struct {
	Code        string `json:"code" binding:"required,joincode"`
	UserID      string `json:"userId" binding:"required,max=64"`
	DisplayName string `json:"displayName" binding:"required,displayname"`
	AvatarID    string `json:"avatarId" binding:"omitempty,max=64"`
}

type SessionCodeRequest struct {
	Code string `json:"code" binding:"required,joincode"`
}

type SubmitAnswerRequest struct {
	Code           string   `json:"code" binding:"required,joincode"`
	AnswerIndex    *int     `json:"answerIndex" binding:"required,min=0"`
	ElapsedSeconds *float64 `json:"elapsedSeconds" binding:"required,min=0"`
}

type normalizer interface {
	normalize()
}

func (r *CreateSessionRequest) normalize() {
	r.QuestionSetID = strings.TrimSpace(r.QuestionSetID)
	r.GameMode = strings.TrimSpace(r.GameMode)
	r.HostUserID = strings.TrimSpace(r.HostUserID)
	r.HostDisplayName = normalizeText(r.HostDisplayName)
	r.HostAvatarID = strings.TrimSpace(r.HostAvatarID)
}

func (r *JoinSessionRequest) normalize() {
	r.Code = normalizeCode(r.Code)
	r.UserID = strings.TrimSpace(r.UserID)
	r.DisplayName = normalizeText(r.DisplayName)
	r.AvatarID = strings.TrimSpace(r.AvatarID)
}

func (r *SessionCodeRequest) normalize() {
	r.Code = normalizeCode(r.Code)
}

func (r *SubmitAnswerRequest) normalize() {
	r.Code = normalizeCode(r.Code)
}

var gatewayMessages = bindMessages{
	"Code": {
		"required": "code is required",
		"joincode": "code must be a 6 character session code",
	},
	"UserID":          {"required": "userId is required", "max": "userId is too long"},
	"HostUserID":      {"required": "hostUserId is required", "max": "hostUserId is too long"},
	"DisplayName":     {"required": "displayName is required", "displayname": displayNameRule},
	"HostDisplayName": {"required": "hostDisplayName is required", "displayname": displayNameRule},
	"QuestionSetID":   {"required": "questionSetId is required", "max": "questionSetId is too long"},
	"AnswerIndex":     {"required": "answerIndex is required", "min": "answerIndex must be zero or greater"},
	"ElapsedSeconds":  {"required": "elapsedSeconds is required", "min": "elapsedSeconds must not be negative"},
}

// handleFrame decodes one inbound frame and dispatches it to the orchestrator.
// Failures are reported to the sending connection only.
func (s *Server) handleFrame(connID string, raw []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.sendError(connID, msgError, "", reasonInvalidRequest, "malformed frame")
		return
	}

	switch frame.Type {
	case msgCreateSession:
		var req CreateSessionRequest
		if !s.decodePayload(connID, msgError, frame, &req) {
			return
		}
		if _, err := s.orch.CreateSession(ctx, connID, req); err != nil {
			s.replyError(connID, msgError, "", err)
		}
	case msgJoinSession:
		var req JoinSessionRequest
		if !s.decodePayload(connID, msgJoinError, frame, &req) {
			return
		}
		if _, err := s.orch.JoinSession(ctx, connID, req); err != nil {
			s.replyError(connID, msgJoinError, req.Code, err)
		}
	case msgRequestState:
		var req SessionCodeRequest
		if !s.decodePayload(connID, msgError, frame, &req) {
			return
		}
		snap, err := s.orch.State(ctx, req.Code)
		if err != nil {
			s.replyError(connID, msgError, req.Code, err)
			return
		}
		s.hub.Send(connID, newMessage(msgSessionState, snap.Code, s.clock.Now(), sessionData{Session: snap}))
	case msgStartSession:
		var req SessionCodeRequest
		if !s.decodePayload(connID, msgError, frame, &req) {
			return
		}
		if err := s.orch.StartSession(ctx, connID, req.Code); err != nil {
			s.replyError(connID, msgError, req.Code, err)
		}
	case msgSubmitAnswer:
		var req SubmitAnswerRequest
		if !s.decodePayload(connID, msgError, frame, &req) {
			return
		}
		if err := s.orch.SubmitAnswer(ctx, connID, req); err != nil {
			s.replyError(connID, msgError, req.Code, err)
		}
	case msgAdvanceQuestion:
		var req SessionCodeRequest
		if !s.decodePayload(connID, msgError, frame, &req) {
			return
		}
		if err := s.orch.AdvanceQuestion(ctx, connID, req.Code); err != nil {
			s.replyError(connID, msgError, req.Code, err)
		}
	default:
		s.sendError(connID, msgError, "", reasonUnknownMessage, "unknown message type")
	}
}

func (s *Server) decodePayload(connID, errType string, frame inboundFrame, req normalizer) bool {
	if len(frame.Data) == 0 || string(frame.Data) == "null" {
		s.sendError(connID, errType, "", reasonInvalidRequest, "data is required")
		return false
	}
	if err := json.Unmarshal(frame.Data, req); err != nil {
		s.sendError(connID, errType, "", reasonInvalidRequest, "malformed data")
		return false
	}
	req.normalize()
	if err := binding.Validator.ValidateStruct(req); err != nil {
		s.sendError(connID, errType, "", reasonInvalidRequest, resolveBindError(err, gatewayMessages, "invalid request"))
		return false
	}
	return true
}

func (s *Server) replyError(connID, errType, code string, err error) {
	reason := reasonFor(err)
	message := err.Error()
	if reason == reasonInternal {
		log.Error().Err(err).Str("connection_id", connID).Str("session_code", code).Msg("request failed")
		message = "internal error"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		reason = reasonUnavailable
		message = "request timed out"
	}
	s.sendError(connID, errType, code, reason, message)
}

func (s *Server) sendError(connID, errType, code, reason, message string) {
	s.hub.Send(connID, newMessage(errType, code, s.clock.Now(), errorData{Reason: reason, Message: message}))
}
