// internal/sources/sites.go
package sources

import (
	"time"

	"github.com/valpere/GIVerify/internal/browser"
	"github.com/valpere/GIVerify/internal/verify"
)

const (
	PrimaryEntryURL   = "https://www.kashmirgi.in/verify-product"
	SecondaryEntryURL = "https://giverification.jk.gov.in/Verify"

	// ResultWait bounds the wait for a results table or an invalid marker
	// after the code is submitted
	ResultWait = 15 * time.Second
)

// Site describes one verification website: where its form lives and how
// its result pages signal success or a counterfeit code.
type Site struct {
	Source   verify.Source
	EntryURL string

	CodeInput    string
	SubmitButton string
	ResultTable  string

	// InvalidMarker is a selector present only on "not genuine" pages
	InvalidMarker string
	// InvalidText holds phrases that mark the code as not genuine when they
	// appear inside MessageArea. Entry-page copy outside it never counts.
	InvalidText []string
	// MessageArea selects the containers where the site prints its verdict
	MessageArea string

	Navigation   browser.NavigateOptions
	ResultWait   time.Duration
	PollInterval time.Duration
}

// PrimarySite is the first site consulted. Its entry page must fire the
// load event within 30s.
func PrimarySite() Site {
	return Site{
		Source:        verify.SourcePrimary,
		EntryURL:      PrimaryEntryURL,
		CodeInput:     "#productCode",
		SubmitButton:  "#verifyBtn",
		ResultTable:   "table.verification-result",
		InvalidMarker: ".not-genuine, .alert-invalid",
		InvalidText:   []string{"not genuine", "invalid product code"},
		MessageArea:   ".verification-message, #result",
		Navigation: browser.NavigateOptions{
			Strategy: browser.WaitLoad,
			Timeout:  30 * time.Second,
		},
		ResultWait:   ResultWait,
		PollInterval: 250 * time.Millisecond,
	}
}

// SecondarySite is the fallback. Its entry page is slow: 60s for the load
// event, then another 60s for the code field if the load event never comes.
func SecondarySite() Site {
	return Site{
		Source:        verify.SourceSecondary,
		EntryURL:      SecondaryEntryURL,
		CodeInput:     "input[name='txtCode']",
		SubmitButton:  "input[type='submit'], button[type='submit']",
		ResultTable:   "#gvProductDetails",
		InvalidMarker: "#lblNotGenuine",
		InvalidText:   []string{"not a genuine", "not genuine"},
		MessageArea:   "#lblMessage, #pnlResult",
		Navigation: browser.NavigateOptions{
			Strategy:        browser.WaitLoadThenReady,
			Timeout:         60 * time.Second,
			ReadySelector:   "input[name='txtCode']",
			FallbackTimeout: 60 * time.Second,
		},
		ResultWait:   ResultWait,
		PollInterval: 250 * time.Millisecond,
	}
}
