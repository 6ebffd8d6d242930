package source

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultSitesDir is where nginx vhost configs live on most installs.
const DefaultSitesDir = "/etc/nginx/sites-enabled"

var (
	accessLogDirective  = regexp.MustCompile(`(?m)^\s*access_log\s+([^\s;]+)`)
	errorLogDirective   = regexp.MustCompile(`(?m)^\s*error_log\s+([^\s;]+)`)
	serverNameDirective = regexp.MustCompile(`(?m)^\s*server_name\s+([^\s;]+)`)
)

// commonTLDs are skipped when deriving a short label from a server_name.
var commonTLDs = map[string]bool{
	"com": true, "org": true, "net": true, "io": true, "ninja": true,
	"co": true, "app": true, "dev": true, "xyz": true, "gg": true,
	"uk": true, "us": true, "eu": true,
}

// Discover scans nginx config files under sitesDir and extracts every
// access_log and error_log directive, labelled with the config's server_name.
// Sources sharing a path are deduplicated (first config wins) so that no file
// is ever tailed twice. Results are sorted access-first, then by server label.
func Discover(sitesDir string) ([]LogSource, error) {
	info, err := os.Stat(sitesDir)
	if err != nil {
		return nil, fmt.Errorf("sites dir %s: %w", sitesDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sites dir %s: not a directory", sitesDir)
	}

	entries, err := os.ReadDir(sitesDir)
	if err != nil {
		return nil, fmt.Errorf("read sites dir %s: %w", sitesDir, err)
	}

	var sources []LogSource
	seen := make(map[string]bool)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		confPath := filepath.Join(sitesDir, e.Name())
		content, err := os.ReadFile(confPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read %s: %v\n", confPath, err)
			continue
		}

		server := e.Name()
		if m := serverNameDirective.FindSubmatch(content); m != nil {
			server = string(m[1])
		}
		server = ShortServerName(server)

		for _, m := range accessLogDirective.FindAllSubmatch(content, -1) {
			addSource(&sources, seen, string(m[1]), server, Access)
		}
		for _, m := range errorLogDirective.FindAllSubmatch(content, -1) {
			addSource(&sources, seen, string(m[1]), server, Error)
		}
	}

	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].Kind != sources[j].Kind {
			return sources[i].Kind == Access
		}
		return sources[i].Server < sources[j].Server
	})

	return sources, nil
}

func addSource(sources *[]LogSource, seen map[string]bool, path, server string, kind Kind) {
	if path == "" || path == "off" || seen[path] {
		return
	}
	seen[path] = true
	*sources = append(*sources, LogSource{Path: path, Server: server, Kind: kind})
}

// ShortServerName reduces a server_name directive value to a compact label:
// strips www./api. prefixes and picks the first domain part that is longer
// than two characters and not a common TLD.
func ShortServerName(domain string) string {
	if domain == "" {
		return ""
	}

	name := strings.ToLower(domain)
	name = strings.ReplaceAll(name, "www.", "")
	name = strings.ReplaceAll(name, "api.", "")

	parts := strings.Split(name, ".")
	for _, part := range parts {
		if !commonTLDs[part] && len(part) > 2 {
			return part
		}
	}
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return domain
}
