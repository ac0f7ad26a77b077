package sms

import (
	"context"
	"fmt"
)

// alibabaBackend sends through Alibaba Cloud SMS.
type alibabaBackend struct {
	gateway Gateway
	cred    Credential
	region  string
}

func newAlibaba(settings Settings, gateway Gateway) (Backend, error) {
	cred := Credential{
		ID:     settings.Get("ALIBABA_ACCESS_KEY_ID"),
		Secret: settings.Get("ALIBABA_ACCESS_KEY_SECRET"),
	}
	if cred.ID == "" || cred.Secret == "" {
		return nil, fmt.Errorf("%w: alibaba access key", ErrConfiguration)
	}
	region := settings.Get("ALIBABA_SMS_REGION")
	if region == "" {
		region = "cn-hangzhou"
	}
	return &alibabaBackend{gateway: gateway, cred: cred, region: region}, nil
}

func (b *alibabaBackend) SettingsPrefix() string { return "ALIBABA" }

func (b *alibabaBackend) Send(ctx context.Context, recipients []string, sign, templateID string, params map[string]string) (DeliveryResult, error) {
	return b.gateway.Deliver(ctx, b.cred, DeliveryRequest{
		Provider:       BackendAlibaba,
		Region:         b.region,
		Recipients:     recipients,
		SignName:       sign,
		TemplateID:     templateID,
		TemplateParams: params,
	})
}

// tencentBackend sends through Tencent Cloud SMS.
type tencentBackend struct {
	gateway Gateway
	cred    Credential
	appID   string
}

func newTencent(settings Settings, gateway Gateway) (Backend, error) {
	cred := Credential{
		ID:     settings.Get("TENCENT_SECRET_ID"),
		Secret: settings.Get("TENCENT_SECRET_KEY"),
	}
	appID := settings.Get("TENCENT_SDKAPPID")
	if cred.ID == "" || cred.Secret == "" || appID == "" {
		return nil, fmt.Errorf("%w: tencent secret or sdk app id", ErrConfiguration)
	}
	return &tencentBackend{gateway: gateway, cred: cred, appID: appID}, nil
}

func (b *tencentBackend) SettingsPrefix() string { return "TENCENT" }

func (b *tencentBackend) Send(ctx context.Context, recipients []string, sign, templateID string, params map[string]string) (DeliveryResult, error) {
	return b.gateway.Deliver(ctx, b.cred, DeliveryRequest{
		Provider:       BackendTencent,
		AppID:          b.appID,
		Recipients:     recipients,
		SignName:       sign,
		TemplateID:     templateID,
		TemplateParams: params,
	})
}
