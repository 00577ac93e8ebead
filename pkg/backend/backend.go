// Package backend defines the contract between a data-source plugin and its
// host. A plugin is any value implementing one or more capability interfaces:
// QueryDataHandler, StreamHandler, CallResourceHandler and CheckHealthHandler.
// The host detects which of them a plugin provides through a Registry.
package backend

import (
	"encoding/json"
	"time"
)

// DataSourceInstanceSettings describes the configured data source instance a
// request is made against.
type DataSourceInstanceSettings struct {
	ID       int64           `json:"id"`
	UID      string          `json:"uid"`
	Name     string          `json:"name"`
	URL      string          `json:"url,omitempty"`
	JSONData json.RawMessage `json:"jsonData,omitempty"`
}

// PluginContext carries the caller context of every plugin request.
type PluginContext struct {
	OrgID                      int64                       `json:"orgId"`
	PluginID                   string                      `json:"pluginId"`
	DataSourceInstanceSettings *DataSourceInstanceSettings `json:"datasource,omitempty"`
}

// DatasourceUID returns the UID of the data source, or "" when the request
// is not bound to one.
func (p PluginContext) DatasourceUID() string {
	if p.DataSourceInstanceSettings == nil {
		return ""
	}
	return p.DataSourceInstanceSettings.UID
}

// TimeRange is an absolute query time range.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Duration returns the length of the range.
func (tr TimeRange) Duration() time.Duration {
	return tr.To.Sub(tr.From)
}
