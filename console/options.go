package console

import (
	"github.com/viant/authflow/config"
)

// Options represents command line options
type Options struct {
	ConfigURL       string `short:"f" long:"config" description:"authflow config file or URL"`
	OAuth2ConfigURL string `short:"c" long:"oauth2" description:"oauth2 client config URL"`
	Issuer          string `short:"i" long:"issuer" description:"authorization server issuer"`
	ClientID        string `long:"client-id" description:"oauth2 client id"`
	Scope           string `short:"s" long:"scope" description:"requested scopes"`
	Locale          string `short:"l" long:"locale" description:"locale forwarded with the code"`
	Port            int    `short:"p" long:"port" description:"loopback callback port"`
	APIBaseURL      string `short:"a" long:"api" description:"data api base url"`
	Email           string `short:"e" long:"email" description:"sign in with email and password instead of oauth"`
	Password        string `long:"password" description:"password used with --email"`
	TokenFile       string `short:"t" long:"token-file" description:"token cache file or URL"`
	Verbose         bool   `short:"v" long:"verbose" description:"debug logging"`
}

// override applies non-empty flags over the loaded config
func (o *Options) override(c *config.Config) {
	if o.OAuth2ConfigURL != "" {
		c.OAuth2ConfigURL = o.OAuth2ConfigURL
	}
	if o.Issuer != "" {
		c.Issuer = o.Issuer
	}
	if o.ClientID != "" {
		c.ClientID = o.ClientID
	}
	if o.Scope != "" {
		c.Scope = o.Scope
	}
	if o.Locale != "" {
		c.Locale = o.Locale
	}
	if o.Port != 0 {
		c.CallbackPort = o.Port
	}
	if o.APIBaseURL != "" {
		c.API.BaseURL = o.APIBaseURL
	}
	if o.TokenFile != "" {
		c.TokenFile = o.TokenFile
	}
	if o.Verbose {
		c.Logging.Level = "debug"
	}
}
