// Package experience loads profile files and normalizes them before they are
// written to a store.
package experience

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/types"
)

// LoadProfile loads a profile from a JSON file.
func LoadProfile(path string) (*types.Profile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, newLoadError(path, err)
	}

	var profile types.Profile
	if err := json.Unmarshal(content, &profile); err != nil {
		return nil, newLoadError(path, err)
	}

	return &profile, nil
}

// Import normalizes a profile and saves every answer and entry into st.
func Import(ctx context.Context, st store.Store, profile *types.Profile) error {
	if err := Normalize(profile); err != nil {
		return err
	}
	for i := range profile.Answers {
		if err := st.SaveAnswer(ctx, &profile.Answers[i]); err != nil {
			return fmt.Errorf("failed to save answer %s: %w", profile.Answers[i].Type, err)
		}
	}
	for i := range profile.Experiences {
		if err := st.SaveExperience(ctx, &profile.Experiences[i]); err != nil {
			return fmt.Errorf("failed to save %s entry: %w", profile.Experiences[i].GroupType, err)
		}
	}
	return nil
}
