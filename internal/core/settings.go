package core

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"consulardesk/pkg/domain"
)

// Settings returns the administration settings.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	var out Settings
	err := s.instrument(ctx, "get_settings", EntitySettings, "", func(ctx context.Context) (string, error) {
		return "", s.store.View(ctx, func(view domain.TransactionView) error {
			out = view.Settings()
			return nil
		})
	})
	return out, err
}

// UpdateSettings applies mutator to the settings and validates the result.
func (s *Service) UpdateSettings(ctx context.Context, mutator func(*Settings) error) (Settings, Result, error) {
	return s.updateSettings(ctx, "update_settings", mutator)
}

// UpdateSettingsSection replaces one named section with the JSON payload.
// Fields missing from the payload take their zero value.
func (s *Service) UpdateSettingsSection(ctx context.Context, section string, payload []byte) (Settings, Result, error) {
	return s.updateSettings(ctx, "update_settings_"+section, func(cur *Settings) error {
		var target any
		switch section {
		case domain.SectionProfile:
			cur.Profile = domain.ProfileSettings{}
			target = &cur.Profile
		case domain.SectionNotifications:
			cur.Notifications = domain.NotificationSettings{}
			target = &cur.Notifications
		case domain.SectionSecurity:
			cur.Security = domain.SecuritySettings{}
			target = &cur.Security
		case domain.SectionSystem:
			cur.System = domain.SystemSettings{}
			target = &cur.System
		case domain.SectionEmbassy:
			cur.Embassy = domain.EmbassySettings{}
			target = &cur.Embassy
		default:
			return &domain.ValidationError{
				Entity: EntitySettings,
				Fields: []domain.FieldError{{Field: "section", Message: fmt.Sprintf("unknown section %q", section)}},
			}
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return &domain.ValidationError{
				Entity: EntitySettings,
				Fields: []domain.FieldError{{Field: section, Message: "malformed payload: " + err.Error()}},
			}
		}
		return nil
	})
}

func (s *Service) updateSettings(ctx context.Context, operation string, mutator func(*Settings) error) (Settings, Result, error) {
	var (
		before, after Settings
		res           Result
	)
	err := s.instrument(ctx, operation, EntitySettings, ActionUpdate, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			before = tx.Settings()
			var err error
			after, err = tx.UpdateSettings(mutator)
			return err
		})
		if err != nil {
			return "", err
		}
		s.afterCommit(ctx, []Change{{Entity: EntitySettings, Action: ActionUpdate, Before: before, After: after}}, nil)
		return "", nil
	})
	return after, res, err
}
