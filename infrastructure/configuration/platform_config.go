package configuration

import (
	"fmt"
	"os"
	"strings"
)

// PlatformClient returns the OAuth client for a platform with environment
// overrides applied, e.g. TWITTER_CLIENT_ID, TWITTER_CLIENT_SECRET and
// TWITTER_REDIRECT_URL. The redirect defaults to the app callback route.
func PlatformClient(platform string) OAuthClient {
	var c OAuthClient
	switch strings.ToLower(platform) {
	case "twitter":
		c = C.Platforms.Twitter
	case "instagram":
		c = C.Platforms.Instagram
	case "facebook":
		c = C.Platforms.Facebook
	case "linkedin":
		c = C.Platforms.LinkedIn
	case "youtube":
		c = C.Platforms.YouTube
	case "tiktok":
		c = C.Platforms.TikTok
	}
	prefix := strings.ToUpper(platform)
	defaultRedirect := fmt.Sprintf("%s/social/callback/%s", strings.TrimRight(C.App.BaseURL, "/"), strings.ToLower(platform))
	c.ClientID = getConfigValue(c.ClientID, prefix+"_CLIENT_ID", "")
	c.ClientSecret = getConfigValue(c.ClientSecret, prefix+"_CLIENT_SECRET", "")
	c.RedirectURI = getConfigValue(c.RedirectURI, prefix+"_REDIRECT_URL", defaultRedirect)
	if C.App.TLSEnabled && !hasHTTPS(c.RedirectURI) {
		c.RedirectURI = toHTTPSCallback(c.RedirectURI)
	}
	return c
}

// Configured reports whether client credentials are present
func (c OAuthClient) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// getConfigValue gets value from config first, then environment variable, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	// placeholders like YOUR_CLIENT_ID count as unset
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func hasHTTPS(u string) bool { return strings.HasPrefix(u, "https://") }

func toHTTPSCallback(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + u[len("http://"):]
	}
	return u
}
