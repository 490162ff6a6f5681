package app

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// databaseSummary describes a configured DSN without its password. It
// prefills the setup form and names the store in startup logs.
type databaseSummary struct {
	Type        string `json:"databaseType"`
	Host        string `json:"databaseHost,omitempty"`
	Port        int    `json:"databasePort,omitempty"`
	User        string `json:"databaseUser,omitempty"`
	Name        string `json:"databaseName,omitempty"`
	SSLMode     string `json:"databaseSslMode,omitempty"`
	Path        string `json:"databasePath,omitempty"`
	PasswordSet bool   `json:"databasePasswordSet"`
}

// String renders the summary for logs.
func (s databaseSummary) String() string {
	if s.Type == "sqlite" {
		return "sqlite " + s.Path
	}
	return fmt.Sprintf("%s %s@%s:%d/%s", s.Type, s.User, s.Host, s.Port, s.Name)
}

func summarizeDSN(dsn string) (databaseSummary, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return databaseSummary{}, fmt.Errorf("empty dsn")
	}

	lowered := strings.ToLower(trimmed)
	if strings.HasPrefix(lowered, "file:") {
		path, _, _ := strings.Cut(trimmed[len("file:"):], "?")
		return databaseSummary{Type: "sqlite", Path: strings.TrimSpace(path)}, nil
	}
	if bare, _, _ := strings.Cut(lowered, "?"); strings.HasSuffix(bare, ".db") || strings.HasSuffix(bare, ".sqlite") {
		path, _, _ := strings.Cut(trimmed, "?")
		return databaseSummary{Type: "sqlite", Path: path}, nil
	}

	u, errParse := url.Parse(trimmed)
	if errParse != nil {
		return databaseSummary{}, fmt.Errorf("parse dsn: %w", errParse)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
	default:
		return databaseSummary{}, fmt.Errorf("unsupported dsn scheme %q", u.Scheme)
	}

	summary := databaseSummary{
		Type:    "postgres",
		Host:    u.Hostname(),
		Port:    5432,
		Name:    strings.TrimPrefix(u.Path, "/"),
		SSLMode: u.Query().Get("sslmode"),
	}
	if rawPort := u.Port(); rawPort != "" {
		port, errPort := strconv.Atoi(rawPort)
		if errPort != nil {
			return databaseSummary{}, fmt.Errorf("parse port: %w", errPort)
		}
		summary.Port = port
	}
	if u.User != nil {
		summary.User = u.User.Username()
		_, summary.PasswordSet = u.User.Password()
	}
	if summary.SSLMode == "" {
		summary.SSLMode = "disable"
	}
	return summary, nil
}
