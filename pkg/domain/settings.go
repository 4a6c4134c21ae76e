package domain

import (
	"time"
	_ "time/tzdata" // zone database for settings validation on minimal images
)

// Settings is the singleton administration configuration.
type Settings struct {
	Profile       ProfileSettings      `json:"profile"`
	Notifications NotificationSettings `json:"notifications"`
	Security      SecuritySettings     `json:"security"`
	System        SystemSettings       `json:"system"`
	Embassy       EmbassySettings      `json:"embassy"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ProfileSettings describes the administrator profile.
type ProfileSettings struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Position string `json:"position"`
}

// NotificationSettings toggles notification channels.
type NotificationSettings struct {
	EmailNotifications bool `json:"email_notifications"`
	SMSNotifications   bool `json:"sms_notifications"`
	ApplicationAlerts  bool `json:"application_alerts"`
	SystemAlerts       bool `json:"system_alerts"`
}

// SecuritySettings holds session policy values. Durations are in minutes and days.
type SecuritySettings struct {
	TwoFactorAuth         bool `json:"two_factor_auth"`
	SessionTimeoutMinutes int  `json:"session_timeout_minutes"`
	PasswordExpiryDays    int  `json:"password_expiry_days"`
}

// SystemSettings holds locale preferences.
type SystemSettings struct {
	DefaultLanguage string `json:"default_language"`
	Timezone        string `json:"timezone"`
	DateFormat      string `json:"date_format"`
}

// EmbassySettings describes the mission itself.
type EmbassySettings struct {
	Name             string `json:"name"`
	Address          string `json:"address"`
	ContactEmail     string `json:"contact_email"`
	WorkingHours     string `json:"working_hours"`
	EmergencyContact string `json:"emergency_contact"`
}

// Settings sections addressable individually.
const (
	SectionProfile       = "profile"
	SectionNotifications = "notifications"
	SectionSecurity      = "security"
	SectionSystem        = "system"
	SectionEmbassy       = "embassy"
)

// SettingsSections lists the addressable sections.
func SettingsSections() []string {
	return []string{SectionProfile, SectionNotifications, SectionSecurity, SectionSystem, SectionEmbassy}
}

// DefaultSettings returns the configuration a fresh installation starts with.
func DefaultSettings() Settings {
	return Settings{
		Profile: ProfileSettings{
			FullName: "Admin User",
			Email:    "admin@embassy.gov",
			Phone:    "+240 222 123 456",
			Position: "Senior Administrator",
		},
		Notifications: NotificationSettings{
			EmailNotifications: true,
			ApplicationAlerts:  true,
			SystemAlerts:       true,
		},
		Security: SecuritySettings{
			SessionTimeoutMinutes: 60,
			PasswordExpiryDays:    90,
		},
		System: SystemSettings{
			DefaultLanguage: "en",
			Timezone:        "Africa/Malabo",
			DateFormat:      "DD/MM/YYYY",
		},
		Embassy: EmbassySettings{
			Name:             "Embassy of Equatorial Guinea",
			Address:          "Malabo, Equatorial Guinea",
			ContactEmail:     "info@embassy.gov",
			WorkingHours:     "08:00 - 17:00",
			EmergencyContact: "+240 222 999 888",
		},
	}
}

// Validate checks cross-section invariants.
func (s Settings) Validate() error {
	c := fieldCheck{entity: EntitySettings}
	if s.Security.SessionTimeoutMinutes <= 0 {
		c.fail("security.session_timeout_minutes", "must be positive")
	}
	if s.Security.PasswordExpiryDays <= 0 {
		c.fail("security.password_expiry_days", "must be positive")
	}
	c.required("embassy.name", s.Embassy.Name)
	c.required("embassy.contact_email", s.Embassy.ContactEmail)
	if s.System.Timezone != "" {
		if _, err := time.LoadLocation(s.System.Timezone); err != nil {
			c.fail("system.timezone", "unknown time zone")
		}
	}
	return c.err()
}
