package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/enodebd/internal/audit"
	"github.com/nerrad567/enodebd/internal/auth"
)

// minPasswordLength applies to operator accounts created over the API.
const minPasswordLength = 8

type createOperatorRequest struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Password    string    `json:"password"`
	Role        auth.Role `json:"role"`
}

type updateOperatorRequest struct {
	IsActive *bool `json:"is_active"`
}

func (s *Server) handleListOperators(w http.ResponseWriter, r *http.Request) {
	ops, err := s.operators.List(r.Context())
	if err != nil {
		s.logger.Error("list operators failed", "error", err)
		writeInternalError(w, "failed to list operators")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"operators": ops,
		"count":     len(ops),
	})
}

// handleCreateOperator creates an account. Role defaults to viewer.
func (s *Server) handleCreateOperator(w http.ResponseWriter, r *http.Request) {
	var req createOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !auth.IsValidUsername(req.Username) {
		writeBadRequest(w, "username must be 1-64 letters, digits, dots, hyphens or underscores")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleViewer
	}
	if !auth.IsValidRole(req.Role) {
		writeBadRequest(w, "invalid role: must be viewer, operator or admin")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w, "failed to create operator")
		return
	}

	op := &auth.Operator{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.operators.Create(r.Context(), op); err != nil {
		if errors.Is(err, auth.ErrUsernameExists) {
			writeConflict(w, "username already exists")
			return
		}
		s.logger.Error("create operator failed", "error", err)
		writeInternalError(w, "failed to create operator")
		return
	}

	caller := callerID(r.Context())
	s.logger.Info("operator created", "operator_id", op.ID, "username", op.Username, "role", op.Role, "created_by", caller)
	s.auditLog(audit.ActionCreate, audit.EntityOperator, op.ID, caller, map[string]any{
		"username": op.Username,
		"role":     op.Role,
	})
	writeJSON(w, http.StatusCreated, op)
}

// handleUpdateOperator enables or disables an account. An admin cannot
// disable their own account.
func (s *Server) handleUpdateOperator(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.IsActive == nil {
		writeBadRequest(w, "is_active is required")
		return
	}
	caller := callerID(r.Context())
	if id == caller && !*req.IsActive {
		writeForbidden(w, "cannot disable your own account")
		return
	}

	if err := s.operators.SetActive(r.Context(), id, *req.IsActive); err != nil {
		if errors.Is(err, auth.ErrOperatorNotFound) {
			writeNotFound(w, "operator not found")
			return
		}
		s.logger.Error("update operator failed", "operator_id", id, "error", err)
		writeInternalError(w, "failed to update operator")
		return
	}

	op, err := s.operators.GetByID(r.Context(), id)
	if err != nil {
		s.logger.Error("get operator failed", "operator_id", id, "error", err)
		writeInternalError(w, "failed to update operator")
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntityOperator, id, caller, map[string]any{"is_active": *req.IsActive})
	writeJSON(w, http.StatusOK, op)
}
