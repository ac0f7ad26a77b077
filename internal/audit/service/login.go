package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"chronicle/internal/audit/fanout"
	"chronicle/internal/audit/models"
	"chronicle/internal/audit/ports"
	"chronicle/pkg/requestcontext"
)

// Session keys checked for the resolved authentication backend identifier.
// The first key found wins.
const (
	sessionKeyAuthBackend      = "auth_backend"
	sessionKeyFrameworkBackend = "_auth_backend"
)

// RequestMeta carries what the authentication flow knows about the triggering
// request. Zero values degrade gracefully: a missing IP becomes the sentinel
// address, a nil session yields an empty backend label.
type RequestMeta struct {
	IP            string
	UserAgent     string
	LoginTypeHint string // value of the X-Chronicle-Login-Type header, "" when absent
	API           bool   // true when the request came through the programmatic API
	Session       ports.Session
}

// AuthSucceeded notifies that a user authenticated successfully.
type AuthSucceeded struct {
	Username   string
	MFAEnabled bool
	Meta       RequestMeta
}

// AuthFailed notifies that an authentication attempt was rejected.
type AuthFailed struct {
	Username string
	Reason   string
	Meta     RequestMeta
}

// OnAuthSucceeded records a successful authentication.
func (r *Recorder) OnAuthSucceeded(ctx context.Context, ev AuthSucceeded) {
	r.logger.DebugContext(ctx, "user login success", "username", ev.Username)
	record := r.buildLoginRecord(ctx, ev.Username, ev.Meta)
	record.Success = true
	record.MFAEnabled = ev.MFAEnabled
	r.writeLoginRecord(ctx, record)
}

// OnAuthFailed records a rejected authentication attempt.
func (r *Recorder) OnAuthFailed(ctx context.Context, ev AuthFailed) {
	r.logger.DebugContext(ctx, "user login failed", "username", ev.Username)
	record := r.buildLoginRecord(ctx, ev.Username, ev.Meta)
	record.Success = false
	record.Reason = models.Truncate(ev.Reason, models.MaxReasonLen)
	r.writeLoginRecord(ctx, record)
}

func (r *Recorder) buildLoginRecord(ctx context.Context, username string, meta RequestMeta) models.LoginRecord {
	ip := meta.IP
	if ip == "" {
		ip = models.UnknownIP
	}

	if meta.UserAgent != "" {
		ua := useragent.New(meta.UserAgent)
		browser, version := ua.Browser()
		r.logger.DebugContext(ctx, "login client",
			"browser", browser, "version", version, "os", ua.OS())
	}

	return models.LoginRecord{
		ID:        uuid.New(),
		Username:  username,
		IP:        ip,
		Type:      resolveLoginType(meta),
		UserAgent: models.Truncate(meta.UserAgent, models.MaxUserAgentLen),
		Backend:   r.labels.resolve(meta.Session),
		CreatedAt: requestcontext.Now(ctx),
	}
}

// writeLoginRecord is the single write entry point shared by the success and
// failure recorders.
func (r *Recorder) writeLoginRecord(ctx context.Context, record models.LoginRecord) {
	if err := r.logins.Create(ctx, record); err != nil {
		r.writeFailed(ctx, "create login record", err)
		return
	}
	r.written(string(fanout.CategoryLoginLog), 1)
	r.notify(ctx, record)
}

// resolveLoginType prefers the request-supplied hint; API requests without a
// hint are tagged unknown, everything else defaults to web.
func resolveLoginType(meta RequestMeta) string {
	if meta.LoginTypeHint != "" {
		return meta.LoginTypeHint
	}
	if meta.API {
		return models.LoginTypeUnknown
	}
	return models.LoginTypeWeb
}

// backendLabels maps authentication backend identifiers to human labels. The
// table is built lazily on first use and immutable for the process lifetime;
// runtime configuration changes require a restart.
type backendLabels struct {
	once sync.Once
	m    map[string]string
}

func (b *backendLabels) resolve(session ports.Session) string {
	if session == nil {
		return ""
	}
	id := session.Get(sessionKeyAuthBackend)
	if id == "" {
		id = session.Get(sessionKeyFrameworkBackend)
	}
	b.once.Do(b.build)
	return b.m[id]
}

func (b *backendLabels) build() {
	m := make(map[string]string, len(authSourceLabels)+len(dispatchChannelLabels))
	for id, label := range authSourceLabels {
		m[id] = label
	}
	for id, label := range dispatchChannelLabels {
		m[id] = label
	}
	b.m = m
}

// Supported authentication sources.
var authSourceLabels = map[string]string{
	"password":   "Password",
	"pubkey":     "SSH Key",
	"ldap":       "LDAP",
	"cas":        "CAS",
	"openid":     "OpenID",
	"radius":     "Radius",
	"saml2":      "SAML2",
	"sso":        "SSO",
	"auth_token": "Auth Token",
}

// Outbound dispatch channels that can also complete a login.
var dispatchChannelLabels = map[string]string{
	"wecom":    "WeCom",
	"dingtalk": "DingTalk",
	"feishu":   "FeiShu",
	"sms":      "SMS",
}
