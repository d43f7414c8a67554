package handler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/playtestbot/roster/internal/command"
	"github.com/playtestbot/roster/internal/domain"
	"github.com/playtestbot/roster/internal/guard"
	"github.com/playtestbot/roster/internal/metrics"
	"github.com/playtestbot/roster/internal/service"
)

// Response visibility for chat clients.
const (
	Ephemeral = "ephemeral"
	InChannel = "in_channel"
)

// CommandRequest is the inbound command payload. Forms and JSON bodies share field names.
type CommandRequest struct {
	UserID  string `json:"user_id"`
	Command string `json:"command"`
	Text    string `json:"text"`
	// TriggerID identifies one delivery. Retries of the same delivery reuse it.
	TriggerID string `json:"trigger_id,omitempty"`
}

// CommandResponse is what chat clients render.
type CommandResponse struct {
	ResponseType string      `json:"response_type"`
	Text         string      `json:"text"`
	Code         string      `json:"code,omitempty"`
	Data         interface{} `json:"data,omitempty"`
}

// CommandHandler executes playtest commands against the services.
type CommandHandler struct {
	mutator *service.StateMutator
	roster  *service.RosterService
	metrics metrics.Recorder
	logger  *slog.Logger

	limiter *guard.RateLimiter
	replay  *guard.IdempotencyGuard
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(mutator *service.StateMutator, roster *service.RosterService, rec metrics.Recorder, logger *slog.Logger) *CommandHandler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &CommandHandler{mutator: mutator, roster: roster, metrics: rec, logger: logger}
}

// WithGuards throttles callers with limiter and drops redelivered commands seen by
// replay. Either may be nil.
func (h *CommandHandler) WithGuards(limiter *guard.RateLimiter, replay *guard.IdempotencyGuard) *CommandHandler {
	h.limiter = limiter
	h.replay = replay
	return h
}

// Handle parses and executes one command.
func (h *CommandHandler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCommandRequest(r)
	if err != nil {
		h.fail(w, r, "unknown", req.UserID, err)
		return
	}

	key := deliveryKey(r, req)
	if res := h.replay.Check(r.Context(), key); !res.Allowed {
		h.logger.Info("duplicate command delivery dropped", "delivery_key", key, "user_id", req.UserID)
		h.metrics.ObserveCommand("unknown", "duplicate")
		RespondJSON(w, http.StatusOK, ephemeral("Already handled.", nil))
		return
	}

	cmd, err := command.FromRequest(req.Command, req.Text)
	if err != nil {
		h.fail(w, r, "unknown", req.UserID, err)
		return
	}
	verb := string(cmd.Verb)

	if strings.TrimSpace(req.UserID) == "" {
		h.fail(w, r, verb, "", domain.ErrNotAuthorized("missing user_id"))
		return
	}
	callerID := strings.TrimSpace(req.UserID)

	if res := h.limiter.Check(r.Context(), callerID); !res.Allowed {
		h.replay.Remove(key)
		h.fail(w, r, verb, callerID, domain.ErrRateLimited(res.Reason))
		return
	}

	resp, err := h.execute(r.Context(), callerID, cmd)
	if err != nil {
		if appErr, ok := domain.AsAppError(err); !ok || appErr.Status >= 500 {
			h.replay.Remove(key)
		}
		h.fail(w, r, verb, callerID, err)
		return
	}
	h.metrics.ObserveCommand(verb, "ok")
	RespondJSON(w, http.StatusOK, resp)
}

func (h *CommandHandler) execute(ctx context.Context, callerID string, cmd command.Command) (*CommandResponse, error) {
	target := cmd.TargetOr(callerID)

	if kind, value, ok := cmd.StateChange(); ok {
		p, err := h.mutator.SetState(ctx, callerID, target, kind, value)
		if err != nil {
			return nil, err
		}
		return ephemeral(renderStateChange(cmd.Verb, callerID, p), p), nil
	}

	switch cmd.Verb {
	case command.VerbReset:
		p, err := h.mutator.Reset(ctx, callerID, target)
		if err != nil {
			return nil, err
		}
		return ephemeral(renderStateChange(cmd.Verb, callerID, p), p), nil

	case command.VerbRegister:
		p, err := h.mutator.Register(ctx, callerID, target, cmd.Name)
		if err != nil {
			return nil, err
		}
		return ephemeral(renderStateChange(cmd.Verb, callerID, p), p), nil

	case command.VerbUnregister:
		if err := h.mutator.Unregister(ctx, callerID, target); err != nil {
			return nil, err
		}
		return ephemeral("Unregistered "+mention(target)+".", nil), nil

	case command.VerbPromote, command.VerbDemote:
		p, err := h.mutator.SetAdmin(ctx, callerID, target, cmd.Verb == command.VerbPromote)
		if err != nil {
			return nil, err
		}
		return ephemeral(renderStateChange(cmd.Verb, callerID, p), p), nil

	case command.VerbStatus:
		st, err := h.roster.Status(ctx, target)
		if err != nil {
			return nil, err
		}
		return ephemeral(renderStatus(st), st), nil

	case command.VerbPreview:
		res, err := h.roster.Preview(ctx, cmd.Size)
		if err != nil {
			return nil, err
		}
		return ephemeral(renderRoster(res, false), res), nil

	case command.VerbGenerate:
		res, err := h.roster.Generate(ctx, callerID, cmd.Size)
		if err != nil {
			return nil, err
		}
		return &CommandResponse{ResponseType: InChannel, Text: renderRoster(res, true), Data: res}, nil
	}

	return ephemeral(command.Help(), nil), nil
}

// fail renders err to the caller only. Server-side failures are logged with their
// cause and replaced by a generic message.
func (h *CommandHandler) fail(w http.ResponseWriter, r *http.Request, verb, callerID string, err error) {
	appErr, ok := domain.AsAppError(err)
	if !ok {
		appErr = domain.ErrInternal("unexpected error", err)
	}
	h.metrics.ObserveCommand(verb, strings.ToLower(appErr.Code))

	text := appErr.Message
	if appErr.Status >= 500 {
		h.logger.Error("command failed",
			"verb", verb,
			"caller_id", callerID,
			"code", appErr.Code,
			"error", err,
			"request_id", GetRequestID(r.Context()),
		)
		text = genericFailure
	} else {
		h.logger.Debug("command rejected",
			"verb", verb,
			"caller_id", callerID,
			"code", appErr.Code,
			"message", appErr.Message,
		)
	}

	RespondJSON(w, appErr.Status, CommandResponse{
		ResponseType: Ephemeral,
		Text:         text,
		Code:         appErr.Code,
	})
}

// Status serves GET /playtesters/{id}.
func (h *CommandHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.roster.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondQueryError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, st)
}

// Preview serves GET /roster/preview?size=N.
func (h *CommandHandler) Preview(w http.ResponseWriter, r *http.Request) {
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(w, domain.ErrValidation("size must be a number"))
			return
		}
		size = n
	}
	res, err := h.roster.Preview(r.Context(), size)
	if err != nil {
		h.respondQueryError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

func (h *CommandHandler) respondQueryError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := domain.AsAppError(err); !ok || appErr.Status >= 500 {
		h.logger.Error("query failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", GetRequestID(r.Context()),
		)
	}
	RespondError(w, err)
}

func ephemeral(text string, data interface{}) *CommandResponse {
	return &CommandResponse{ResponseType: Ephemeral, Text: text, Data: data}
}

// deliveryKey prefers the Idempotency-Key header over the payload's trigger_id.
func deliveryKey(r *http.Request, req CommandRequest) string {
	if k := strings.TrimSpace(r.Header.Get("Idempotency-Key")); k != "" {
		return k
	}
	return strings.TrimSpace(req.TriggerID)
}

func decodeCommandRequest(r *http.Request) (CommandRequest, error) {
	var req CommandRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := DecodeJSON(r, &req); err != nil {
			return req, domain.ErrValidation("invalid JSON body")
		}
		return req, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return req, domain.ErrValidation("invalid form body")
	}
	req.UserID = r.PostFormValue("user_id")
	req.Command = r.PostFormValue("command")
	req.Text = r.PostFormValue("text")
	req.TriggerID = r.PostFormValue("trigger_id")
	return req, nil
}
