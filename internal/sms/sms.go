// Package sms selects one of several interchangeable outbound-messaging
// backends behind a uniform send contract. The backend set is closed and
// known at compile time; resolution is a lookup table, not runtime module
// loading. Backends are stateless after construction and safe for reuse
// across calls.
//
// Unlike the audit recorders, errors here surface to the caller: a
// verification-code send cannot proceed without a valid backend and template
// configuration, and the caller needs a delivery outcome.
package sms

import (
	"context"
	"errors"
	"fmt"
)

// Supported backend identifiers.
const (
	BackendAlibaba = "alibaba"
	BackendTencent = "tencent"
)

var (
	// ErrUnsupportedBackend reports a backend identifier outside the closed
	// registry.
	ErrUnsupportedBackend = errors.New("sms: unsupported backend")
	// ErrConfiguration reports missing or incomplete provider settings at
	// backend construction.
	ErrConfiguration = errors.New("sms: backend configuration incomplete")
	// ErrMisconfiguredTemplate reports a missing verification signature or
	// template identifier. Raised before any delivery attempt.
	ErrMisconfiguredTemplate = errors.New("sms: verification code signature or template invalid")
)

// Settings is the process configuration source: flat key/value lookup by
// name. Get returns "" for unset keys.
type Settings interface {
	Get(key string) string
}

// Credential authenticates a backend against its provider.
type Credential struct {
	ID     string
	Secret string
}

// DeliveryRequest is the provider-neutral shape handed to the wire client.
type DeliveryRequest struct {
	Provider       string
	Region         string
	AppID          string
	Recipients     []string
	SignName       string
	TemplateID     string
	TemplateParams map[string]string
}

// DeliveryResult reports the provider's acknowledgement of a send.
type DeliveryResult struct {
	RequestID string
	Delivered []string
	Failed    []string
}

// Gateway is the concrete per-provider wire client, an external collaborator.
// Backends shape requests and resolve configuration; the gateway speaks HTTP.
type Gateway interface {
	Deliver(ctx context.Context, cred Credential, req DeliveryRequest) (DeliveryResult, error)
}

// Backend is one interchangeable outbound-messaging provider.
type Backend interface {
	Send(ctx context.Context, recipients []string, sign, templateID string, params map[string]string) (DeliveryResult, error)
	// SettingsPrefix keys the backend-specific verification signature and
	// template settings.
	SettingsPrefix() string
}

type factory func(settings Settings, gateway Gateway) (Backend, error)

// backends is the closed registry. Adding a provider means adding a factory
// here and nothing else.
var backends = map[string]factory{
	BackendAlibaba: newAlibaba,
	BackendTencent: newTencent,
}

// Sender resolves a backend identifier and exposes the uniform send contract.
type Sender struct {
	backend  Backend
	settings Settings
}

// New validates backendID against the registry and constructs the backend
// from process configuration.
func New(backendID string, settings Settings, gateway Gateway) (*Sender, error) {
	build, ok := backends[backendID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backendID)
	}
	backend, err := build(settings, gateway)
	if err != nil {
		return nil, err
	}
	return &Sender{backend: backend, settings: settings}, nil
}

// Send delegates to the resolved backend.
func (s *Sender) Send(ctx context.Context, recipients []string, sign, templateID string, params map[string]string) (DeliveryResult, error) {
	return s.backend.Send(ctx, recipients, sign, templateID, params)
}

// SendVerifyCode sends a verification code using the backend-specific
// signature and template configured under the backend's settings prefix.
func (s *Sender) SendVerifyCode(ctx context.Context, recipient, code string) (DeliveryResult, error) {
	prefix := s.backend.SettingsPrefix()
	sign := s.settings.Get(prefix + "_VERIFY_SIGN_NAME")
	templateID := s.settings.Get(prefix + "_VERIFY_TEMPLATE_CODE")
	if sign == "" || templateID == "" {
		return DeliveryResult{}, ErrMisconfiguredTemplate
	}
	return s.Send(ctx, []string{recipient}, sign, templateID, map[string]string{"code": code})
}
