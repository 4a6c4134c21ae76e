package core

import (
	"context"
	"errors"
	"testing"

	"consulardesk/pkg/domain"
)

func TestSettingsDefaults(t *testing.T) {
	svc := NewInMemoryService(NewDefaultRulesEngine())
	settings, err := svc.Settings(context.Background())
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings.System.Timezone != "Africa/Malabo" || settings.Security.SessionTimeoutMinutes != 60 {
		t.Fatalf("unexpected defaults %+v", settings)
	}
	if err := settings.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestUpdateSettingsSection(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithAuditRecorder(audit))

	updated, _, err := svc.UpdateSettingsSection(ctx, domain.SectionSecurity,
		[]byte(`{"two_factor_auth":true,"session_timeout_minutes":30,"password_expiry_days":45}`))
	if err != nil {
		t.Fatalf("update security: %v", err)
	}
	if !updated.Security.TwoFactorAuth || updated.Security.SessionTimeoutMinutes != 30 || updated.Security.PasswordExpiryDays != 45 {
		t.Fatalf("unexpected security section %+v", updated.Security)
	}
	if updated.Embassy.Name != domain.DefaultSettings().Embassy.Name {
		t.Fatalf("other sections must be kept")
	}
	if !audit.has("update_settings_security", AuditStatusSuccess, nil) {
		t.Fatalf("expected settings update to be audited")
	}

	updated, _, err = svc.UpdateSettingsSection(ctx, domain.SectionNotifications, []byte(`{"sms_notifications":true}`))
	if err != nil {
		t.Fatalf("update notifications: %v", err)
	}
	if !updated.Notifications.SMSNotifications || updated.Notifications.EmailNotifications {
		t.Fatalf("sections are replaced, missing fields reset: %+v", updated.Notifications)
	}
}

func TestUpdateSettingsSectionRejects(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine())

	cases := []struct {
		name    string
		section string
		payload string
		field   string
	}{
		{"unknown section", "billing", `{}`, "section"},
		{"malformed", domain.SectionProfile, `{"full_name":`, domain.SectionProfile},
		{"non positive timeout", domain.SectionSecurity, `{"two_factor_auth":true}`, "security.session_timeout_minutes"},
		{"unknown timezone", domain.SectionSystem, `{"timezone":"Mars/Olympus"}`, "system.timezone"},
		{"embassy name", domain.SectionEmbassy, `{"contact_email":"info@embassy.gov"}`, "embassy.name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.UpdateSettingsSection(ctx, tc.section, []byte(tc.payload))
			var validation *domain.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, f := range validation.Fields {
				if f.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected field %s, got %+v", tc.field, validation.Fields)
			}
		})
	}

	settings, _ := svc.Settings(ctx)
	if settings.Security != domain.DefaultSettings().Security || settings.System != domain.DefaultSettings().System {
		t.Fatalf("rejected updates must leave settings untouched: %+v", settings)
	}
}
