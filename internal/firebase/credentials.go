// Package firebase manages the engine's single Firestore connection: loading
// and checking the service account file, initializing the client exactly once
// and proving connectivity with a round-trip self-test before anything else
// is allowed to use the handle.
package firebase

import (
	"encoding/json"
	"fmt"
	"os"

	appErrors "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/errors"
)

// ServiceAccount is the subset of a Firebase service account file the engine
// checks before handing the path to the SDK. The SDK consumes the full file;
// these fields are the ones whose absence produces confusing downstream
// failures, so they are verified up front.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
}

// LoadServiceAccount reads and checks the service account file at path. It
// performs no network I/O. A missing file and a present-but-unusable file are
// reported as distinct error kinds so callers can tell a deployment mistake
// from a corrupted secret.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.NewMissingCredentials(
				fmt.Sprintf("credentials file not found at %s", path), err)
		}
		return nil, appErrors.NewMissingCredentials(
			fmt.Sprintf("credentials file at %s is not readable", path), err)
	}

	var account ServiceAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, appErrors.NewMalformedCredentials(
			fmt.Sprintf("credentials file at %s is not valid JSON", path), err)
	}

	for field, value := range map[string]string{
		"type":           account.Type,
		"project_id":     account.ProjectID,
		"private_key_id": account.PrivateKeyID,
		"private_key":    account.PrivateKey,
		"client_email":   account.ClientEmail,
	} {
		if value == "" {
			return nil, appErrors.NewMalformedCredentials(
				fmt.Sprintf("credentials file at %s is missing required field %q", path, field), nil)
		}
	}

	return &account, nil
}
