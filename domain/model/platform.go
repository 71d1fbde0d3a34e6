package model

import (
	"fmt"
	"strings"
)

// Platform identifies a supported social network
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
)

// AllPlatforms returns every platform LinkHub can publish to
func AllPlatforms() []Platform {
	return []Platform{PlatformTwitter, PlatformInstagram, PlatformFacebook, PlatformLinkedIn, PlatformYouTube, PlatformTikTok}
}

func (p Platform) Valid() bool {
	for _, known := range AllPlatforms() {
		if p == known {
			return true
		}
	}
	return false
}

func (p Platform) String() string { return string(p) }

// ParsePlatform normalizes s and checks it against the known platforms
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, s)
	}
	return p, nil
}
