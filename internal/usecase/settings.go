package usecase

import (
	"context"
	"encoding/json"

	"github.com/robtrove/TroveCRM/internal/domain"
)

const themeSettingsKey = "theme"

type SettingsUsecase struct {
	repo SettingsRepository
}

func NewSettingsUsecase(repo SettingsRepository) *SettingsUsecase {
	return &SettingsUsecase{repo: repo}
}

// Theme loads the saved theme with defaults applied.
func (uc *SettingsUsecase) Theme(ctx context.Context) (domain.Theme, error) {
	ctx, span := tracer.Start(ctx, "Settings.Usecase.Theme")
	defer span.End()

	raw, err := uc.repo.Get(ctx, themeSettingsKey)
	if err != nil {
		return domain.Theme{}, err
	}
	return domain.ParseTheme(raw)
}

// SaveTheme validates overrides on top of the defaults and stores the full theme.
func (uc *SettingsUsecase) SaveTheme(ctx context.Context, overrides []byte) (domain.Theme, error) {
	ctx, span := tracer.Start(ctx, "Settings.Usecase.SaveTheme")
	defer span.End()

	theme, err := domain.ParseTheme(overrides)
	if err != nil {
		return domain.Theme{}, err
	}
	raw, err := json.Marshal(theme)
	if err != nil {
		return domain.Theme{}, err
	}
	if err := uc.repo.Put(ctx, themeSettingsKey, raw); err != nil {
		return domain.Theme{}, err
	}
	return theme, nil
}

func (uc *SettingsUsecase) ThemeCSS(ctx context.Context) (string, error) {
	theme, err := uc.Theme(ctx)
	if err != nil {
		return "", err
	}
	return theme.CSSVariables(), nil
}
