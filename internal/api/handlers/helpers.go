package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "secondbrain/internal/api/context"
	"secondbrain/internal/engine/policy"
	"secondbrain/internal/platform/auth"
)

// actorFrom resolves the request's actor from auth claims. Returns nil for
// anonymous requests, which is what the policy evaluator expects.
func actorFrom(r *http.Request) *policy.Actor {
	claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
	if !ok {
		return nil
	}
	return &policy.Actor{ID: claims.UserID, Email: claims.Email}
}

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(apiContext.Claims).(*auth.Claims)
	return claims
}

func paramFrom(r *http.Request, name string) string {
	params, ok := r.Context().Value(apiContext.Params).(httprouter.Params)
	if !ok {
		return ""
	}
	return params.ByName(name)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
