package test

import (
	"context"
	"testing"

	"github.com/MrEthical07/authguard"
	"github.com/MrEthical07/authguard/render"
	"github.com/MrEthical07/authguard/session"
	"github.com/MrEthical07/authguard/storage"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = authguard.New

	var _ *authguard.Guard
	var _ authguard.Config
	var _ authguard.Prompt
	var _ authguard.Navigator
	var _ authguard.AuditSink
	var _ storage.Backend
	var _ render.Page

	var _ error = authguard.ErrAbsentCredential
	var _ error = authguard.ErrCorruptProfile
	var _ error = authguard.ErrTokenInvalid
	var _ error = authguard.ErrInactivityExpired
	var _ error = authguard.ErrLogoutDeclined

	var _ func(*authguard.Guard, context.Context) bool = (*authguard.Guard).CheckAuth
	var _ func(*authguard.Guard, context.Context) = (*authguard.Guard).Logout
	var _ func(*authguard.Guard, context.Context) *session.Profile = (*authguard.Guard).AdminData
	var _ func(*authguard.Guard, context.Context) string = (*authguard.Guard).AdminToken
	var _ func(*authguard.Guard, string) bool = (*authguard.Guard).IsValidToken
	var _ func(*authguard.Guard) error = (*authguard.Guard).SetupAutoLogout
	var _ func(*authguard.Guard, context.Context) = (*authguard.Guard).DisplayAdminInfo
	var _ func(*authguard.Guard, context.Context, authguard.Event) authguard.Outcome = (*authguard.Guard).Dispatch
	var _ func(*authguard.Guard) authguard.Status = (*authguard.Guard).Status
}
