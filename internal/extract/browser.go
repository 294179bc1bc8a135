package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/hpungsan/pocket/internal/config"
	"github.com/hpungsan/pocket/internal/errors"
	"github.com/hpungsan/pocket/internal/logger"
)

// settleDelay gives IndexedDB time to populate after a fresh login.
const settleDelay = 3 * time.Second

// BrowserExtractor drives a headed Chromium with a persistent profile, so a
// login done once is remembered across runs.
type BrowserExtractor struct {
	ProfileDir string
	Origin     string
	Poller     Poller
}

// Extract opens the web app, waits for the user to log in if needed and
// reads the token out of IndexedDB.
func (b *BrowserExtractor) Extract(ctx context.Context) (*Credential, error) {
	origin := b.Origin
	if origin == "" {
		origin = config.DefaultLoginOrigin
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, errors.NewExtractionFailed(fmt.Sprintf("start playwright: %v (install with: go run github.com/playwright-community/playwright-go/cmd/playwright install chromium)", err))
	}
	defer func() {
		if err := pw.Stop(); err != nil {
			logger.Debugf("stop playwright: %v", err)
		}
	}()

	logger.Info("Launching browser...")
	bctx, err := pw.Chromium.LaunchPersistentContext(b.ProfileDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(false),
		Viewport: &playwright.Size{Width: 1280, Height: 800},
	})
	if err != nil {
		return nil, errors.NewExtractionFailed(fmt.Sprintf("launch browser: %v", err))
	}
	defer func() {
		if err := bctx.Close(); err != nil {
			logger.Debugf("close browser: %v", err)
		}
	}()

	var page playwright.Page
	if pages := bctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else if page, err = bctx.NewPage(); err != nil {
		return nil, errors.NewExtractionFailed(fmt.Sprintf("open page: %v", err))
	}

	logger.Infof("Navigating to %s...", origin)
	if _, err := page.Goto(origin, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, errors.NewExtractionFailed(fmt.Sprintf("navigate to %s: %v", origin, err))
	}

	if LoginPending(page.URL()) {
		total := b.Poller.Interval * time.Duration(b.Poller.MaxAttempts)
		logger.Warn("Please log in to Pocket in the browser window.")
		logger.Infof("Waiting for login to complete (up to %s)...", total)

		err := b.Poller.Poll(ctx, func() (bool, error) {
			return !LoginPending(page.URL()), nil
		})
		if err != nil {
			return nil, err
		}

		logger.Info("Login detected! Extracting token...")
		if err := sleepContext(ctx, settleDelay); err != nil {
			return nil, err
		}
	}

	result, err := page.Evaluate(TokenScript)
	if err != nil {
		return nil, errors.NewExtractionFailed(fmt.Sprintf("evaluate token script: %v", err))
	}

	data, _ := result.(map[string]any)
	return ParseResult(data)
}
