package oauth

import (
	"github.com/mtreharne/focusbeat/internal/config"
	"golang.org/x/oauth2"
)

const (
	authURL  = "https://cloud.ouraring.com/oauth/authorize"
	tokenURL = "https://api.ouraring.com/oauth/token" //nolint:gosec // not credentials, just endpoint URL
)

// RequiredScopes covers heart-rate telemetry, daily summaries, and the
// personal info read used for connection checks.
var RequiredScopes = []string{
	"heartrate",
	"daily",
	"personal",
}

func NewConfig(oura config.Oura, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     oura.ClientID,
		ClientSecret: oura.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       RequiredScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
			// vendor expects client credentials in the POST body
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
