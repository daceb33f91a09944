// Package visitor collects per-request visitor metadata: a parsed
// user-agent fingerprint and an optional IP geolocation hint.
//
// The page server uses the bot flag to keep crawler traffic out of page
// view counters, and tags its serve logs with the country code when a
// GeoLite2 database is configured.  The structs are inert—no database
// handles, no large buffers—so they are safe to log or JSON-encode.
package visitor

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// UA holds the parsed user-agent properties the serve path cares about.
type UA struct {
	Raw     string // entire User-Agent header
	Browser string // "Chrome", "Firefox", "Safari", …
	Version string // "124.0.6367"
	OS      string // "MacOSX", "Windows", "Android", …
	Device  string // "Computer", "Phone", "Tablet", …
	IsBot   bool   // true if the UA matches a crawler signature
}

// Geo holds best-effort IP geolocation hints; fields may be empty when the
// database has no match or no database is configured.
type Geo struct {
	IP         net.IP
	CountryISO string // "US", "CA", "FR", …
	City       string
}

// Info is attached to the request context by the Enrich middleware.
type Info struct {
	UA  UA
	Geo Geo
}

type ctxKey struct{}

// FromContext returns the pointer previously stored by Enrich, or nil if
// the middleware has not run.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

// ParseUA converts a raw User-Agent header into our UA struct.
func ParseUA(header string) UA {
	u := uasurfer.Parse(header)

	return UA{
		Raw:     header,
		Browser: strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version: fmt.Sprintf("%d.%d.%d", u.Browser.Version.Major, u.Browser.Version.Minor, u.Browser.Version.Patch),
		OS:      strings.TrimPrefix(u.OS.Name.String(), "OS"),
		Device:  strings.TrimPrefix(u.DeviceType.String(), "Device"),
		IsBot: u.Browser.Name == uasurfer.BrowserBot ||
			u.OS.Name == uasurfer.OSBot ||
			u.OS.Platform == uasurfer.PlatformBot,
	}
}

//
// Geolocation
//

// geoReader is a process-wide MaxMind handle.  It is safe for concurrent
// reads, which is all we ever perform.  Nil when geolocation is disabled.
var geoReader *geoip2.Reader

// InitGeo opens the GeoLite2 database at startup.  An empty path leaves
// geolocation disabled; an unreadable file is an error so a typo in the
// config surfaces at boot.
func InitGeo(dbPath string) error {
	if dbPath == "" {
		return nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open GeoLite2 db: %w", err)
	}
	geoReader = r
	return nil
}

// LookupGeo resolves an IP to country and city.  Best effort: a nil reader
// or a lookup failure yields a Geo with only the IP filled in.
func LookupGeo(ip net.IP) Geo {
	g := Geo{IP: ip}
	if geoReader == nil || ip == nil {
		return g
	}
	rec, err := geoReader.City(ip)
	if err != nil {
		return g
	}
	g.CountryISO = rec.Country.IsoCode
	g.City = rec.City.Names["en"]
	return g
}
