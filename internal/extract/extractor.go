// Package extract obtains a Pocket bearer token from the web app's browser
// session, where Firebase keeps it in IndexedDB.
package extract

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/hpungsan/pocket/internal/config"
	"github.com/hpungsan/pocket/internal/errors"
	"github.com/hpungsan/pocket/internal/logger"
	"github.com/hpungsan/pocket/internal/token"
)

// TokenScript reads the first Firebase credential out of IndexedDB. It always
// resolves: either to {accessToken, refreshToken, expirationTime} or to {error}.
const TokenScript = `() => {
    return new Promise((resolve) => {
        const idbRequest = indexedDB.open("firebaseLocalStorageDb");
        idbRequest.onsuccess = () => {
            const db = idbRequest.result;
            const tx = db.transaction("firebaseLocalStorage", "readonly");
            const store = tx.objectStore("firebaseLocalStorage");
            const getAll = store.getAll();
            getAll.onsuccess = () => {
                for (const item of getAll.result) {
                    if (item?.value?.stsTokenManager?.accessToken) {
                        const tm = item.value.stsTokenManager;
                        resolve({
                            accessToken: tm.accessToken,
                            refreshToken: tm.refreshToken,
                            expirationTime: tm.expirationTime
                        });
                        return;
                    }
                }
                resolve({error: "No token found in IndexedDB"});
            };
            getAll.onerror = () => resolve({error: "Failed to read IndexedDB"});
        };
        idbRequest.onerror = () => resolve({error: "Failed to open IndexedDB"});
    });
}`

// Credential is what the session store hands back.
type Credential struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`

	// ExpirationTime is unix milliseconds as Firebase reports it. It is
	// informational only; saved tokens always get token.DefaultTTL.
	ExpirationTime float64 `json:"expiration_time,omitempty"`
}

// Extractor obtains a Credential from some session source.
type Extractor interface {
	Extract(ctx context.Context) (*Credential, error)
}

// ParseResult maps the object TokenScript resolved to into a Credential.
func ParseResult(data map[string]any) (*Credential, error) {
	if data == nil {
		return nil, errors.NewExtractionFailed("unknown error")
	}

	access := cast.ToString(data["accessToken"])
	if access == "" {
		msg := cast.ToString(data["error"])
		if msg == "" {
			msg = "unknown error"
		}
		return nil, errors.NewExtractionFailed(msg)
	}

	cred := &Credential{
		AccessToken:    access,
		ExpirationTime: cast.ToFloat64(data["expirationTime"]),
	}
	if v, ok := data["refreshToken"]; ok && v != nil {
		refresh := cast.ToString(v)
		cred.RefreshToken = &refresh
	}
	return cred, nil
}

// New builds the extractor selected by cfg.ExtractBackend.
func New(cfg *config.Config) (Extractor, error) {
	poller := Poller{
		Interval:    secondsOr(cfg.LoginPollSeconds, config.DefaultLoginPollSeconds),
		MaxAttempts: cfg.LoginMaxAttempts,
	}
	if poller.MaxAttempts <= 0 {
		poller.MaxAttempts = config.DefaultLoginMaxAttempts
	}

	switch cfg.ExtractBackend {
	case "", config.BackendBrowser:
		return &BrowserExtractor{
			ProfileDir: cfg.BrowserProfileDir,
			Origin:     cfg.LoginOrigin,
			Poller:     poller,
		}, nil
	case config.BackendHook:
		if len(cfg.HookCommand) == 0 {
			return nil, errors.NewExtractionFailed("hook_command is not configured")
		}
		return &HookExtractor{
			Command: cfg.HookCommand,
			Origin:  cfg.LoginOrigin,
		}, nil
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown extract_backend %q (want %q or %q)",
			cfg.ExtractBackend, config.BackendBrowser, config.BackendHook))
	}
}

// Run extracts a credential and saves it to store with token.DefaultTTL.
func Run(ctx context.Context, e Extractor, store token.Store) (*Credential, error) {
	cred, err := e.Extract(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Save(cred.AccessToken, cred.RefreshToken, token.DefaultTTL); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("save token: %w", err))
	}
	logger.Debugf("extracted token (issuer expiry %.0f ms ignored)", cred.ExpirationTime)
	return cred, nil
}
