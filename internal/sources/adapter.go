// internal/sources/adapter.go

// Package sources drives the verification websites through a browser
// session and turns their result pages into verify.Result values.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/valpere/GIVerify/internal/browser"
	"github.com/valpere/GIVerify/internal/verify"
)

// formReadyTimeout bounds the wait for the code field once the page is up
const formReadyTimeout = 10 * time.Second

// pageSignal is what the result page showed after submission
type pageSignal string

const (
	signalNone    pageSignal = ""
	signalInvalid pageSignal = "invalid"
	signalTable   pageSignal = "table"
)

// Adapter runs one site's verification flow in a fresh session per call
type Adapter struct {
	site     Site
	launcher browser.Launcher
	logger   *zap.Logger
	signalJS string
}

// NewAdapter creates an adapter for site
func NewAdapter(site Site, launcher browser.Launcher, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if site.ResultWait <= 0 {
		site.ResultWait = ResultWait
	}
	if site.PollInterval <= 0 {
		site.PollInterval = 250 * time.Millisecond
	}
	return &Adapter{
		site:     site,
		launcher: launcher,
		logger:   logger.With(zap.String("source", string(site.Source))),
		signalJS: signalScript(site),
	}
}

// NewPrimary creates the adapter for the primary site
func NewPrimary(launcher browser.Launcher, logger *zap.Logger) *Adapter {
	return NewAdapter(PrimarySite(), launcher, logger)
}

// NewSecondary creates the adapter for the secondary site
func NewSecondary(launcher browser.Launcher, logger *zap.Logger) *Adapter {
	return NewAdapter(SecondarySite(), launcher, logger)
}

// Site returns the adapter's site descriptor
func (a *Adapter) Site() Site {
	return a.site
}

// Extract submits productCode to the site and reads the outcome. The
// session is released on every path.
func (a *Adapter) Extract(ctx context.Context, productCode string) (*verify.Result, error) {
	name := string(a.site.Source)
	logger := a.logger.With(zap.String("product_code", productCode))

	session, err := a.launcher.Launch(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: launch browser session", name)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to release browser session", zap.Error(err))
		}
	}()

	strategy, err := session.Navigate(ctx, a.site.EntryURL, a.site.Navigation)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: open entry page", name)
	}
	logger.Debug("entry page loaded", zap.String("wait_strategy", strategy.String()))

	if err := session.WaitReady(ctx, a.site.CodeInput, formReadyTimeout); err != nil {
		return nil, eris.Wrapf(err, "%s: locate code field", name)
	}
	if err := session.Fill(ctx, a.site.CodeInput, productCode); err != nil {
		return nil, eris.Wrapf(err, "%s: enter product code", name)
	}
	if err := session.Click(ctx, a.site.SubmitButton); err != nil {
		return nil, eris.Wrapf(err, "%s: submit form", name)
	}

	signal, err := a.awaitSignal(ctx, session)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: wait for result", name)
	}
	logger.Debug("result page signal", zap.String("signal", string(signal)))

	switch signal {
	case signalInvalid:
		return verify.InvalidResult(productCode), nil
	case signalNone:
		logger.Warn("no results table or invalid marker appeared", zap.Duration("waited", a.site.ResultWait))
		return verify.Normalized{}.Result(productCode), nil
	}

	html, err := session.OuterHTML(ctx, a.site.ResultTable)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: read results table", name)
	}
	pageURL, err := session.Location(ctx)
	if err != nil {
		logger.Debug("page location unavailable, image URLs stay as found", zap.Error(err))
		pageURL = a.site.EntryURL
	}

	table, err := verify.ParseTable(html, pageURL)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: parse results table", name)
	}

	result := verify.Normalize(table).Result(productCode)
	logger.Info("results table scraped",
		zap.Int("rows", len(table.Rows)),
		zap.Int("attributes", len(result.Attributes)),
		zap.Bool("has_image", result.ImageURL != ""),
	)
	return result, nil
}

// awaitSignal polls the page until the results table or an invalid marker
// shows up, or ResultWait passes. Script errors while the result page is
// loading are expected and retried.
func (a *Adapter) awaitSignal(ctx context.Context, session browser.Session) (pageSignal, error) {
	waitCtx, cancel := context.WithTimeout(ctx, a.site.ResultWait)
	defer cancel()

	ticker := time.NewTicker(a.site.PollInterval)
	defer ticker.Stop()

	for {
		var signal string
		err := session.Evaluate(waitCtx, a.signalJS, &signal)
		if err == nil && signal != "" {
			return pageSignal(signal), nil
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return signalNone, ctx.Err()
			}
			return signalNone, nil
		}
	}
}

// signalScript builds the expression that reports the page signal. The
// invalid checks run first so a stale empty table cannot mask a verdict.
// Invalid text only counts inside the message area.
func signalScript(site Site) string {
	invalidSel, _ := json.Marshal(site.InvalidMarker)
	messageSel, _ := json.Marshal(site.MessageArea)
	tableSel, _ := json.Marshal(site.ResultTable)

	texts := make([]string, 0, len(site.InvalidText))
	for _, t := range site.InvalidText {
		texts = append(texts, strings.ToLower(t))
	}
	invalidTexts, _ := json.Marshal(texts)

	return fmt.Sprintf(`(() => {
  const invalidSel = %s;
  if (invalidSel && document.querySelector(invalidSel)) return %q;
  const messageSel = %s;
  if (messageSel) {
    const text = Array.from(document.querySelectorAll(messageSel))
      .map(el => el.innerText || el.textContent || "")
      .join(" ")
      .toLowerCase();
    if (%s.some(t => text.includes(t))) return %q;
  }
  if (document.querySelector(%s)) return %q;
  return "";
})()`, invalidSel, signalInvalid, messageSel, invalidTexts, signalInvalid, tableSel, signalTable)
}
