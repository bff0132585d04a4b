package model

import (
	"fmt"
	"net/url"
	"strconv"
)

type SettingKey string

const (
	SettingKeyProxyURL               SettingKey = "proxy_url"
	SettingKeyCatalogRefreshInterval SettingKey = "catalog_refresh_interval" // hours between OpenRouter catalog refreshes
	SettingKeyRelayLogSaveInterval   SettingKey = "relay_log_save_interval"  // minutes between relay log flushes
	SettingKeyRelayLogKeepPeriod     SettingKey = "relay_log_keep_period"    // days
	SettingKeyRelayLogKeepEnabled    SettingKey = "relay_log_keep_enabled"
	SettingKeyCORSAllowOrigins       SettingKey = "cors_allow_origins" // comma separated, "" disables cross origin, "*" allows all
)

type Setting struct {
	Key   SettingKey `json:"key" gorm:"primaryKey"`
	Value string     `json:"value" gorm:"not null"`
}

func DefaultSettings() []Setting {
	return []Setting{
		{Key: SettingKeyProxyURL, Value: ""},
		{Key: SettingKeyCatalogRefreshInterval, Value: "6"},
		{Key: SettingKeyRelayLogSaveInterval, Value: "10"},
		{Key: SettingKeyRelayLogKeepPeriod, Value: "7"},
		{Key: SettingKeyRelayLogKeepEnabled, Value: "true"},
		{Key: SettingKeyCORSAllowOrigins, Value: ""},
	}
}

func (s *Setting) Validate() error {
	switch s.Key {
	case SettingKeyCatalogRefreshInterval, SettingKeyRelayLogSaveInterval, SettingKeyRelayLogKeepPeriod:
		n, err := strconv.Atoi(s.Value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer", s.Key)
		}
		return nil
	case SettingKeyRelayLogKeepEnabled:
		if s.Value != "true" && s.Value != "false" {
			return fmt.Errorf("%s must be true or false", s.Key)
		}
		return nil
	case SettingKeyProxyURL:
		if s.Value == "" {
			return nil
		}
		parsedURL, err := url.Parse(s.Value)
		if err != nil {
			return fmt.Errorf("proxy URL is invalid: %w", err)
		}
		switch parsedURL.Scheme {
		case "http", "https", "socks", "socks5":
		default:
			return fmt.Errorf("proxy URL scheme must be http, https, socks or socks5")
		}
		if parsedURL.Host == "" {
			return fmt.Errorf("proxy URL must have a host")
		}
		return nil
	case SettingKeyCORSAllowOrigins:
		return nil
	}
	return fmt.Errorf("unknown setting key: %s", s.Key)
}
